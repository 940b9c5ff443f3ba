// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// TenantRealtime returns the tenant's current occupancy snapshot over
// the sliding window. Clients poll this endpoint; responses carry an
// ETag so unchanged snapshots can be served from HTTP caches.
// GET /api/v1/tenants/{tenantID}/realtime
func (h *Handler) TenantRealtime(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}
	snapshot, err := h.aggregator.TenantSnapshot(r.Context(), tenantID)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, snapshot)
}

// DeviceRealtime returns the current snapshot for a single device.
// GET /api/v1/devices/{deviceID}/realtime
func (h *Handler) DeviceRealtime(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceID")
	if deviceID == "" {
		respondError(w, r, http.StatusBadRequest, codeValidation, "device id is required", nil)
		return
	}
	snapshot, err := h.aggregator.DeviceSnapshot(r.Context(), deviceID)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, snapshot)
}
