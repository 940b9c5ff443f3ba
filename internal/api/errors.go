// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package api

import (
	"errors"
	"net/http"

	"github.com/mvargas-dev/crowdgauge/internal/database"
)

// Stable error codes; see models.APIError for the HTTP status mapping.
const (
	codeInvalidPayload = "INVALID_PAYLOAD"
	codeUnknownDevice  = "UNKNOWN_DEVICE"
	codeTenantNotFound = "TENANT_NOT_FOUND"
	codeNotFound       = "NOT_FOUND"
	codeValidation     = "VALIDATION_ERROR"
	codeRateLimited    = "RATE_LIMITED"
	codeInternal       = "INTERNAL_ERROR"
)

// respondStoreError maps database sentinels to API errors. Anything
// unrecognized becomes INTERNAL_ERROR with the cause kept in the logs
// only.
func respondStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, database.ErrTenantNotFound):
		respondError(w, r, http.StatusNotFound, codeTenantNotFound, "tenant not found", nil)
	case errors.Is(err, database.ErrUnknownDevice):
		respondError(w, r, http.StatusNotFound, codeUnknownDevice, "device is not registered", nil)
	case errors.Is(err, database.ErrSummaryNotFound):
		respondError(w, r, http.StatusNotFound, codeNotFound, "no summary for that date", nil)
	case errors.Is(err, database.ErrDeviceExists):
		respondError(w, r, http.StatusConflict, codeValidation, "device id is already registered", nil)
	default:
		respondError(w, r, http.StatusInternalServerError, codeInternal, "internal error", err)
	}
}
