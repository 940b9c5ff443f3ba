// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package models

import (
	"time"

	"github.com/google/uuid"
)

// DateFormat is the wire and storage format for summary dates.
const DateFormat = "2006-01-02"

// DaySegment labels a fixed six-hour slice of the day used for the
// busiest-period statistic.
type DaySegment string

const (
	SegmentNight     DaySegment = "night"     // 00:00-06:00
	SegmentMorning   DaySegment = "morning"   // 06:00-12:00
	SegmentAfternoon DaySegment = "afternoon" // 12:00-18:00
	SegmentEvening   DaySegment = "evening"   // 18:00-24:00
)

// SegmentForHour maps an hour of day (0-23) to its segment.
func SegmentForHour(hour int) DaySegment {
	switch {
	case hour < 6:
		return SegmentNight
	case hour < 12:
		return SegmentMorning
	case hour < 18:
		return SegmentAfternoon
	default:
		return SegmentEvening
	}
}

// DailySummary is the per-tenant archive row for one closed calendar
// day. Rows exist only for days with at least one event; a missing row
// means "no data", which the API surfaces as NOT_FOUND rather than a
// zero-filled summary.
//
// TotalVisitors sums every occupancy reading of the day. With periodic
// snapshots this overcounts dwell time rather than counting unique
// people; it is kept as the historical definition of the field and
// consumers treat it as a relative traffic index, not a head count.
type DailySummary struct {
	TenantID         uuid.UUID  `json:"tenant_id"`
	Date             time.Time  `json:"date"`
	TotalVisitors    int64      `json:"total_visitors"`
	TotalEntries     int64      `json:"total_entries"`
	TotalExits       int64      `json:"total_exits"`
	PeakOccupancy    int        `json:"peak_occupancy"`
	MinOccupancy     int        `json:"min_occupancy"`
	AverageOccupancy float64    `json:"average_occupancy"`
	PeakHour         int        `json:"peak_hour"`
	PeakHourVisitors int64      `json:"peak_hour_visitors"`
	BusiestPeriod    DaySegment `json:"busiest_period"`
	ActiveDevices    int        `json:"active_devices"`
	EventCount       int64      `json:"event_count"`
	ComputedAt       time.Time  `json:"computed_at"`
}

// DateString returns the summary date in DateFormat.
func (s *DailySummary) DateString() string {
	return s.Date.Format(DateFormat)
}

// RollupFailure records one tenant's failure during a batch rollup run.
type RollupFailure struct {
	TenantID uuid.UUID `json:"tenant_id"`
	Error    string    `json:"error"`
}

// RollupReport is the outcome of a batch rollup for one date. Tenants
// are processed independently; a failure for one never aborts the rest.
type RollupReport struct {
	Date       string          `json:"date"`
	Succeeded  int             `json:"succeeded"`
	Skipped    int             `json:"skipped"` // tenants with zero events for the date
	Failed     int             `json:"failed"`
	Failures   []RollupFailure `json:"failures,omitempty"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
}
