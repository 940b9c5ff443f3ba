// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mvargas-dev/crowdgauge/internal/logging"
	"github.com/mvargas-dev/crowdgauge/internal/metrics"
	"github.com/mvargas-dev/crowdgauge/internal/models"
	"github.com/mvargas-dev/crowdgauge/internal/validation"
)

// IngestEvent accepts one occupancy reading from an edge device.
// POST /api/v1/events
//
// The timestamp is always server-assigned; anything the device sends
// is ignored. Appending the event and bumping the device's last_seen
// happen in one transaction on the direct path; on the stream path
// the consumer's batch insert provides the same guarantee.
func (h *Handler) IngestEvent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { metrics.IngestDuration.Observe(time.Since(start).Seconds()) }()

	var req models.IngestRequest
	if err := decodeJSON(r, &req); err != nil {
		metrics.IngestEventsTotal.WithLabelValues("invalid").Inc()
		respondError(w, r, http.StatusUnprocessableEntity, codeInvalidPayload, "request body is not valid JSON", nil)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		metrics.IngestEventsTotal.WithLabelValues("invalid").Inc()
		respondValidationError(w, r, http.StatusUnprocessableEntity, codeInvalidPayload, verr.ToAPIError())
		return
	}

	// Rate limiting runs before the ownership lookup so a misbehaving
	// device cannot hammer the database.
	if !h.limiters.Allow(req.DeviceID) {
		metrics.IngestEventsTotal.WithLabelValues("rate_limited").Inc()
		respondError(w, r, http.StatusTooManyRequests, codeRateLimited, "device is sending too fast", nil)
		return
	}

	device, err := h.db.ResolveDevice(r.Context(), req.DeviceID)
	if err != nil {
		metrics.IngestEventsTotal.WithLabelValues("unknown_device").Inc()
		respondStoreError(w, r, err)
		return
	}

	// Token mismatches answer exactly like unknown devices so the
	// endpoint is not an existence oracle for device IDs.
	if h.cfg.Ingest.RequireToken && !tokenMatches(bearerToken(r), device.TokenHash) {
		metrics.IngestEventsTotal.WithLabelValues("unknown_device").Inc()
		respondError(w, r, http.StatusNotFound, codeUnknownDevice, "device is not registered", nil)
		return
	}

	if !device.Active {
		metrics.IngestEventsTotal.WithLabelValues("unknown_device").Inc()
		respondError(w, r, http.StatusNotFound, codeUnknownDevice, "device is deactivated", nil)
		return
	}

	event := models.AnalysisEvent{
		ID:         uuid.New(),
		DeviceID:   device.ID,
		TenantID:   device.TenantID,
		Occupancy:  *req.Occupancy,
		Entries:    req.Entries,
		Exits:      req.Exits,
		Confidence: req.Confidence,
		RawPayload: req.RawPayload,
		RecordedAt: h.now().UTC(),
	}

	if h.publisher != nil {
		if err := h.publisher.PublishEvent(r.Context(), event); err != nil {
			metrics.IngestEventsTotal.WithLabelValues("error").Inc()
			respondError(w, r, http.StatusInternalServerError, codeInternal, "failed to accept event", err)
			return
		}
		metrics.IngestEventsTotal.WithLabelValues("queued").Inc()
		respondSuccess(w, r, http.StatusAccepted, &models.IngestAck{
			EventID:    event.ID.String(),
			RecordedAt: event.RecordedAt.Format(time.RFC3339),
			Queued:     true,
		})
		return
	}

	if err := h.db.AppendEvent(r.Context(), &event); err != nil {
		metrics.IngestEventsTotal.WithLabelValues("error").Inc()
		respondStoreError(w, r, err)
		return
	}
	h.aggregator.Invalidate(device.TenantID)

	metrics.IngestEventsTotal.WithLabelValues("stored").Inc()
	logging.Ctx(r.Context()).Debug().
		Str("device_id", device.ID).
		Str("tenant_id", device.TenantID.String()).
		Int("occupancy", event.Occupancy).
		Msg("Event stored")

	respondSuccess(w, r, http.StatusCreated, &models.IngestAck{
		EventID:    event.ID.String(),
		RecordedAt: event.RecordedAt.Format(time.RFC3339),
	})
}
