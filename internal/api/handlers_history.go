// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package api

import (
	"fmt"
	"net/http"
	"time"
)

// GetDailySummary returns the archived summary for one closed day.
// Absence of a row means the tenant recorded nothing that day and is
// reported as NOT_FOUND, never as a zero-filled summary.
// GET /api/v1/tenants/{tenantID}/summaries/{date}
func (h *Handler) GetDailySummary(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}
	date, err := datePathParam(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}
	if _, err := h.db.GetTenant(r.Context(), tenantID); err != nil {
		respondStoreError(w, r, err)
		return
	}
	summary, err := h.db.GetDailySummary(r.Context(), tenantID, date)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, summary)
}

// GetDailySummaries returns summaries over a date range. Defaults to
// the last seven closed days; the range is capped by api.max_range_days.
// GET /api/v1/tenants/{tenantID}/summaries?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *Handler) GetDailySummaries(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}
	from, to, err := h.rangeParams(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}
	if _, err := h.db.GetTenant(r.Context(), tenantID); err != nil {
		respondStoreError(w, r, err)
		return
	}
	summaries, err := h.db.GetDailySummaries(r.Context(), tenantID, from, to)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondList(w, r, summaries, len(summaries))
}

// GetHourlyStats returns per-hour aggregates for a tenant over a range.
// GET /api/v1/tenants/{tenantID}/summaries/hourly?from=...&to=...
func (h *Handler) GetHourlyStats(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}
	from, to, err := h.rangeParams(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}
	if _, err := h.db.GetTenant(r.Context(), tenantID); err != nil {
		respondStoreError(w, r, err)
		return
	}
	stats, err := h.db.GetHourlyStats(r.Context(), tenantID, from, to.Add(24*time.Hour))
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondList(w, r, stats, len(stats))
}

// rangeParams resolves the from/to query parameters, applying the
// default window and the configured range cap.
func (h *Handler) rangeParams(r *http.Request) (from, to time.Time, err error) {
	from, err = dateParam(r, "from")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err = dateParam(r, "to")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	if to.IsZero() {
		to = h.now().UTC().AddDate(0, 0, -1).Truncate(24 * time.Hour)
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -6)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("to %s precedes from %s", to.Format("2006-01-02"), from.Format("2006-01-02"))
	}

	maxDays := h.cfg.API.MaxRangeDays
	if maxDays > 0 {
		if days := int(to.Sub(from).Hours()/24) + 1; days > maxDays {
			return time.Time{}, time.Time{}, fmt.Errorf("range spans %d days, maximum is %d", days, maxDays)
		}
	}
	return from, to, nil
}
