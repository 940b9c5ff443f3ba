// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package api

import (
	"errors"
	"net/http"

	"github.com/mvargas-dev/crowdgauge/internal/rollup"
)

// TriggerRollup runs the daily rollup on demand, for backfill or
// recovery after a missed scheduled run. Defaults to yesterday in the
// rollup timezone; open (not yet finished) dates are rejected.
// POST /api/v1/rollup?date=YYYY-MM-DD
func (h *Handler) TriggerRollup(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r, "date")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}
	if date.IsZero() {
		date = h.rollupJob.Yesterday()
	}

	report, err := h.rollupJob.Run(r.Context(), date)
	if err != nil {
		if errors.Is(err, rollup.ErrOpenDate) {
			respondError(w, r, http.StatusBadRequest, codeValidation, "date is not closed yet; rollups cover finished days only", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, codeInternal, "rollup run failed", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, report)
}

// TriggerTenantRollup recomputes one tenant's summary for a date.
// POST /api/v1/tenants/{tenantID}/rollup?date=YYYY-MM-DD
func (h *Handler) TriggerTenantRollup(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}
	date, err := dateParam(r, "date")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}
	if date.IsZero() {
		date = h.rollupJob.Yesterday()
	}
	if _, err := h.db.GetTenant(r.Context(), tenantID); err != nil {
		respondStoreError(w, r, err)
		return
	}

	wrote, err := h.rollupJob.RunTenant(r.Context(), tenantID, date)
	if err != nil {
		if errors.Is(err, rollup.ErrOpenDate) {
			respondError(w, r, http.StatusBadRequest, codeValidation, "date is not closed yet; rollups cover finished days only", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, codeInternal, "rollup run failed", err)
		return
	}
	if !wrote {
		// Zero events for the day: no row is written and none is deleted.
		respondError(w, r, http.StatusNotFound, codeNotFound, "tenant recorded no events on that date", nil)
		return
	}

	summary, err := h.db.GetDailySummary(r.Context(), tenantID, date)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, summary)
}
