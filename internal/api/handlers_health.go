// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package api

import (
	"net/http"
	"time"

	"github.com/mvargas-dev/crowdgauge/internal/models"
)

// healthStatus is the readiness payload.
type healthStatus struct {
	Status   string `json:"status"`
	Uptime   string `json:"uptime"`
	Database string `json:"database"`
}

// HealthLive answers liveness probes. It succeeds whenever the process
// can serve HTTP; no dependency checks.
// GET /api/v1/health/live
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// HealthReady answers readiness probes. Fails while the store is
// unreachable so load balancers stop routing traffic here.
// GET /api/v1/health/ready
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	status := healthStatus{
		Status:   "ready",
		Uptime:   time.Since(h.started).Round(time.Second).String(),
		Database: "ok",
	}
	if err := h.db.Ping(r.Context()); err != nil {
		status.Status = "degraded"
		status.Database = "unreachable"
		respondJSON(w, http.StatusServiceUnavailable, &models.APIResponse{
			Status:   "error",
			Data:     status,
			Metadata: newMetadata(r),
			Error:    &models.APIError{Code: codeInternal, Message: "store unreachable"},
		})
		return
	}
	respondSuccess(w, r, http.StatusOK, status)
}
