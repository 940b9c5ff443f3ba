// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package models

import (
	"time"

	"github.com/google/uuid"
)

// DeviceSnapshot is the realtime view of a single device over the
// sliding window.
//
// Occupancy is a point sample: the most recent reading in the window,
// nil when the device produced none. Entries and Exits are counters
// summed across every reading in the window.
type DeviceSnapshot struct {
	DeviceID   string     `json:"device_id"`
	Name       string     `json:"name,omitempty"`
	Online     bool       `json:"online"`
	LastSeen   *time.Time `json:"last_seen,omitempty"`
	Occupancy  *int       `json:"occupancy,omitempty"`
	SampledAt  *time.Time `json:"sampled_at,omitempty"`
	Entries    int        `json:"entries"`
	Exits      int        `json:"exits"`
	CrowdLevel CrowdLevel `json:"crowd_level"`
}

// TenantSnapshot is the realtime view of a whole tenant. Only online
// devices contribute to the totals; TotalOccupancy sums their latest
// occupancy samples and AverageOccupancy divides by the number of
// contributing devices. The tenant crowd level classifies the AVERAGE,
// so it describes how crowded a typical zone feels rather than growing
// with the number of installed sensors.
//
// HasData is false when no online device produced a sample in the
// window. In that state the level is CrowdLevelNoData and the totals
// are zero-valued but meaningless.
type TenantSnapshot struct {
	TenantID         uuid.UUID        `json:"tenant_id"`
	Profile          TenantProfile    `json:"profile"`
	WindowStart      time.Time        `json:"window_start"`
	WindowEnd        time.Time        `json:"window_end"`
	HasData          bool             `json:"has_data"`
	CrowdLevel       CrowdLevel       `json:"crowd_level"`
	TotalOccupancy   int              `json:"total_occupancy"`
	AverageOccupancy float64          `json:"average_occupancy"`
	OnlineDevices    int              `json:"online_devices"`
	TotalDevices     int              `json:"total_devices"`
	Devices          []DeviceSnapshot `json:"devices"`
	GeneratedAt      time.Time        `json:"generated_at"`
}
