// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/mvargas-dev/crowdgauge/internal/logging"
	"github.com/mvargas-dev/crowdgauge/internal/middleware"
	"github.com/mvargas-dev/crowdgauge/internal/models"
	"github.com/mvargas-dev/crowdgauge/internal/validation"
)

// APIVersion appears in every response's metadata.
const APIVersion = "v1"

// maxBodyBytes caps request bodies; sensor payloads are tiny.
const maxBodyBytes = 64 * 1024

// sanitizeLogValue strips control characters so attacker-supplied
// strings cannot forge log lines.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

func newMetadata(r *http.Request) *models.Metadata {
	return &models.Metadata{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   APIVersion,
		RequestID: middleware.GetRequestID(r.Context()),
	}
}

// respondJSON writes the envelope with an FNV-1a ETag.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("ETag", generateETag(data))
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// generateETag hashes the body with FNV-1a.
func generateETag(data []byte) string {
	hash := uint32(2166136261)
	for _, b := range data {
		hash ^= uint32(b)
		hash *= 16777619
	}
	return strconv.FormatUint(uint64(hash), 16)
}

func respondSuccess(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	respondJSON(w, status, &models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: newMetadata(r),
	})
}

// respondList is respondSuccess with an item count in the metadata.
func respondList(w http.ResponseWriter, r *http.Request, data interface{}, count int) {
	meta := newMetadata(r)
	meta.Count = &count
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: meta,
	})
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	if err != nil {
		logging.Ctx(r.Context()).Error().
			Str("code", code).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("API error")
	}
	respondJSON(w, status, &models.APIResponse{
		Status:   "error",
		Metadata: newMetadata(r),
		Error:    &models.APIError{Code: code, Message: message},
	})
}

func respondValidationError(w http.ResponseWriter, r *http.Request, status int, code string, apiErr *validation.APIError) {
	respondJSON(w, status, &models.APIResponse{
		Status:   "error",
		Metadata: newMetadata(r),
		Error: &models.APIError{
			Code:    code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		},
	})
}

// decodeJSON reads a bounded request body into v.
func decodeJSON(r *http.Request, v interface{}) error {
	defer func() { _ = r.Body.Close() }()
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("failed to decode request body: %w", err)
	}
	return nil
}

// tenantIDParam parses the {tenantID} route parameter.
func tenantIDParam(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "tenantID")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid tenant id %q", sanitizeLogValue(raw))
	}
	return id, nil
}

// datePathParam parses the {date} route parameter (YYYY-MM-DD).
func datePathParam(r *http.Request) (time.Time, error) {
	raw := chi.URLParam(r, "date")
	date, err := time.Parse(models.DateFormat, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", sanitizeLogValue(raw))
	}
	return date, nil
}

// dateParam parses a YYYY-MM-DD query parameter. Returns the zero
// time when the parameter is absent.
func dateParam(r *http.Request, key string) (time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}, nil
	}
	date, err := time.Parse(models.DateFormat, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q, want YYYY-MM-DD", key, sanitizeLogValue(raw))
	}
	return date, nil
}
