// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package models

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// AnalysisEvent is one occupancy reading from a device. Events are
// append-only: once stored they are never updated or individually
// deleted (retention pruning removes whole age ranges).
//
// RecordedAt is assigned by the server at ingestion. Device clocks are
// not trusted and any client-supplied timestamp is discarded.
//
// RawPayload is the detector's own output, stored verbatim for audit
// and offline analysis. It is opaque to this service and never parsed;
// the detector versions its own format.
type AnalysisEvent struct {
	ID         uuid.UUID       `json:"id"`
	DeviceID   string          `json:"device_id"`
	TenantID   uuid.UUID       `json:"tenant_id"`
	Occupancy  int             `json:"occupancy"`
	Entries    int             `json:"entries"`
	Exits      int             `json:"exits"`
	Confidence *float64        `json:"confidence,omitempty"`
	RawPayload json.RawMessage `json:"raw_payload,omitempty"`
	RecordedAt time.Time       `json:"recorded_at"`
}
