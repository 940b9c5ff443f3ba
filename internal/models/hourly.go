// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package models

import "time"

// HourlyStat is one hour bucket of a tenant's day, aggregated in the
// store. Hours without events produce no bucket.
type HourlyStat struct {
	Hour          time.Time `json:"hour"`
	AvgOccupancy  float64   `json:"avg_occupancy"`
	PeakOccupancy int       `json:"peak_occupancy"`
	Entries       int64     `json:"entries"`
	Exits         int64     `json:"exits"`
	EventCount    int64     `json:"event_count"`
}
