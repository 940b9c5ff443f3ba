// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package models

import (
	"time"

	"github.com/google/uuid"
)

// TenantProfile selects the crowd-level classification scheme for a tenant.
type TenantProfile string

const (
	// ProfileRetail classifies by raw occupancy counts. Used for open
	// spaces (stores, lobbies) where capacity is fuzzy or unknown.
	ProfileRetail TenantProfile = "retail"

	// ProfileTransit classifies by percentage of known capacity. Used for
	// bounded spaces (platforms, vehicles) with a hard occupancy limit.
	ProfileTransit TenantProfile = "transit"
)

// Valid reports whether the profile is one of the supported schemes.
func (p TenantProfile) Valid() bool {
	return p == ProfileRetail || p == ProfileTransit
}

// Tenant is an isolated customer account. All devices, events, and
// summaries belong to exactly one tenant; nothing is ever aggregated
// across tenant boundaries.
type Tenant struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name"`
	Profile   TenantProfile `json:"profile"`
	Capacity  *int          `json:"capacity,omitempty"` // total capacity across the tenant's space, when known
	CreatedAt time.Time     `json:"created_at"`
}
