// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package models

import "github.com/goccy/go-json"

// IngestRequest is the body POSTed by edge devices. Occupancy is a
// pointer so that a genuine zero reading is distinguishable from a
// missing field. Any timestamp a device includes is ignored; the server
// assigns RecordedAt itself. RawPayload is stored as-is and never
// interpreted; the request body size limit is its only bound.
type IngestRequest struct {
	DeviceID   string          `json:"device_id" validate:"required,min=1,max=128"`
	Occupancy  *int            `json:"occupancy" validate:"required,gte=0"`
	Entries    int             `json:"entries" validate:"gte=0"`
	Exits      int             `json:"exits" validate:"gte=0"`
	Confidence *float64        `json:"confidence,omitempty" validate:"omitempty,gte=0,lte=1"`
	RawPayload json.RawMessage `json:"raw_payload,omitempty"`
}

// CreateTenantRequest provisions a tenant account.
type CreateTenantRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=255"`
	Profile  string `json:"profile" validate:"required,oneof=retail transit"`
	Capacity *int   `json:"capacity,omitempty" validate:"omitempty,gt=0"`
}

// RegisterDeviceRequest binds a hardware device to a tenant.
type RegisterDeviceRequest struct {
	DeviceID string `json:"device_id" validate:"required,min=1,max=128"`
	TenantID string `json:"tenant_id" validate:"required,uuid4"`
	Name     string `json:"name,omitempty" validate:"omitempty,max=255"`
	Capacity *int   `json:"capacity,omitempty" validate:"omitempty,gt=0"`
}
