// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package models

import (
	"time"

	"github.com/google/uuid"
)

// Device is an edge camera or sensor registered to a tenant. The ID is
// the hardware identifier the device reports in its payloads; it is
// unique across the whole installation, which is what makes single-lookup
// ownership resolution possible.
type Device struct {
	ID        string     `json:"id"`
	TenantID  uuid.UUID  `json:"tenant_id"`
	Name      string     `json:"name,omitempty"`
	Capacity  *int       `json:"capacity,omitempty"` // zone capacity for percentage-based classification
	Active    bool       `json:"active"`
	LastSeen  *time.Time `json:"last_seen,omitempty"`
	CreatedAt time.Time  `json:"created_at"`

	// TokenHash is the SHA-256 hex digest of the device's ingest token.
	// Never serialized.
	TokenHash string `json:"-"`
}

// IsOnline reports whether the device counts as online at the given
// instant: it must be active and have reported within the liveness
// window. Liveness is always derived at read time, never stored.
func (d *Device) IsOnline(now time.Time, window time.Duration) bool {
	if !d.Active || d.LastSeen == nil {
		return false
	}
	return now.Sub(*d.LastSeen) <= window
}
