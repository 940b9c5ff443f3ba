// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package eventstream

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/mvargas-dev/crowdgauge/internal/models"
)

// SchemaVersion is the current envelope format version. Bump on
// breaking changes to Envelope; consumers accept older versions.
const SchemaVersion = 1

// Subject patterns. Per-tenant subjects keep the option of filtered
// consumers open; the default consumer subscribes to the wildcard.
const (
	StreamName      = "OCCUPANCY_EVENTS"
	SubjectWildcard = "occupancy.>"
	subjectPrefix   = "occupancy.events."
)

// Envelope is the wire format for one occupancy event.
type Envelope struct {
	SchemaVersion int                  `json:"schema_version"`
	Event         models.AnalysisEvent `json:"event"`
}

// NewEnvelope wraps an event in the current schema version.
func NewEnvelope(event models.AnalysisEvent) *Envelope {
	return &Envelope{SchemaVersion: SchemaVersion, Event: event}
}

// Topic returns the NATS subject for this envelope's event.
// Format: occupancy.events.<tenant_id>
func (e *Envelope) Topic() string {
	return subjectPrefix + e.Event.TenantID.String()
}

// Validate checks the fields a consumer relies on.
func (e *Envelope) Validate() error {
	if e.SchemaVersion < 1 || e.SchemaVersion > SchemaVersion {
		return fmt.Errorf("unsupported schema version %d", e.SchemaVersion)
	}
	if e.Event.ID.String() == "00000000-0000-0000-0000-000000000000" {
		return fmt.Errorf("event id is required")
	}
	if e.Event.DeviceID == "" {
		return fmt.Errorf("device id is required")
	}
	if e.Event.RecordedAt.IsZero() {
		return fmt.Errorf("recorded_at is required")
	}
	return nil
}

// Marshal serializes the envelope for publishing.
func (e *Envelope) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return data, nil
}

// UnmarshalEnvelope deserializes and validates a wire payload.
func UnmarshalEnvelope(data []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if e.SchemaVersion == 0 {
		e.SchemaVersion = 1
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}
