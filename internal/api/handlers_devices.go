// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mvargas-dev/crowdgauge/internal/logging"
	"github.com/mvargas-dev/crowdgauge/internal/models"
	"github.com/mvargas-dev/crowdgauge/internal/validation"
)

// RegisterDevice binds a hardware device to a tenant and mints its
// ingest token. The plaintext token appears only in this response; the
// store keeps just the hash.
// POST /api/v1/devices
func (h *Handler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterDeviceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, "request body is not valid JSON", nil)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, r, http.StatusBadRequest, codeValidation, verr.ToAPIError())
		return
	}

	tenantID, err := uuid.Parse(req.TenantID)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, "tenant_id is not a valid UUID", nil)
		return
	}

	// Reject before minting a token so a typo'd tenant id fails fast.
	if _, err := h.db.GetTenant(r.Context(), tenantID); err != nil {
		respondStoreError(w, r, err)
		return
	}

	token, hash, err := generateDeviceToken()
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, codeInternal, "failed to provision device", err)
		return
	}

	device := &models.Device{
		ID:        req.DeviceID,
		TenantID:  tenantID,
		Name:      req.Name,
		Capacity:  req.Capacity,
		Active:    true,
		TokenHash: hash,
	}
	if err := h.db.RegisterDevice(r.Context(), device); err != nil {
		respondStoreError(w, r, err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("device_id", sanitizeLogValue(device.ID)).
		Str("tenant_id", tenantID.String()).
		Msg("Device registered")

	respondSuccess(w, r, http.StatusCreated, &models.DeviceRegistration{
		Device: *device,
		Token:  token,
	})
}

// ListDevices returns the devices registered to a tenant with their
// derived online state.
// GET /api/v1/tenants/{tenantID}/devices
func (h *Handler) ListDevices(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}
	if _, err := h.db.GetTenant(r.Context(), tenantID); err != nil {
		respondStoreError(w, r, err)
		return
	}
	devices, err := h.db.ListDevicesByTenant(r.Context(), tenantID)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondList(w, r, devices, len(devices))
}

// ActivateDevice re-enables a deactivated device.
// POST /api/v1/devices/{deviceID}/activate
func (h *Handler) ActivateDevice(w http.ResponseWriter, r *http.Request) {
	h.setDeviceActive(w, r, true)
}

// DeactivateDevice soft-disables a device. Its history stays queryable;
// new events and liveness stop.
// POST /api/v1/devices/{deviceID}/deactivate
func (h *Handler) DeactivateDevice(w http.ResponseWriter, r *http.Request) {
	h.setDeviceActive(w, r, false)
}

func (h *Handler) setDeviceActive(w http.ResponseWriter, r *http.Request, active bool) {
	deviceID := chi.URLParam(r, "deviceID")
	if deviceID == "" {
		respondError(w, r, http.StatusBadRequest, codeValidation, "device id is required", nil)
		return
	}
	if err := h.db.SetDeviceActive(r.Context(), deviceID, active); err != nil {
		respondStoreError(w, r, err)
		return
	}

	device, err := h.db.ResolveDevice(r.Context(), deviceID)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	h.aggregator.Invalidate(device.TenantID)

	logging.Ctx(r.Context()).Info().
		Str("device_id", sanitizeLogValue(deviceID)).
		Bool("active", active).
		Msg("Device state changed")

	respondSuccess(w, r, http.StatusOK, device)
}
