// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

// Package rollup archives closed days into daily summaries. The
// computation itself is a pure function of the day's events; the job
// around it handles scheduling, per-tenant isolation, and persistence.
package rollup

import (
	"time"

	"github.com/google/uuid"

	"github.com/mvargas-dev/crowdgauge/internal/models"
)

// Compute builds the daily summary for one tenant and one day from the
// day's events. Returns nil when the slice is empty: a day without
// events produces no summary row at all, so its absence stays
// distinguishable from a genuinely quiet day.
//
// TotalVisitors sums every occupancy reading. Periodic snapshots make
// this a dwell-weighted traffic index rather than a unique-person
// count; the field keeps that historical meaning on purpose.
func Compute(tenantID uuid.UUID, date time.Time, loc *time.Location, events []models.AnalysisEvent) *models.DailySummary {
	if len(events) == 0 {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}

	var (
		totalVisitors   int64
		totalEntries    int64
		totalExits      int64
		occupancySum    int64
		peakOccupancy   int
		minOccupancy    = events[0].Occupancy
		hourVisitors    [24]int64
		segmentVisitors = map[models.DaySegment]int64{}
		devices         = map[string]struct{}{}
	)

	for i := range events {
		event := &events[i]
		totalVisitors += int64(event.Occupancy)
		totalEntries += int64(event.Entries)
		totalExits += int64(event.Exits)
		occupancySum += int64(event.Occupancy)
		if event.Occupancy > peakOccupancy {
			peakOccupancy = event.Occupancy
		}
		if event.Occupancy < minOccupancy {
			minOccupancy = event.Occupancy
		}

		// Hour and segment buckets follow the tenant-facing timezone,
		// not UTC, so "evening" means the building's evening. Both sum
		// visitor contribution, not event counts: one crowded reading
		// outweighs many near-empty ones.
		hour := event.RecordedAt.In(loc).Hour()
		hourVisitors[hour] += int64(event.Occupancy)
		segmentVisitors[models.SegmentForHour(hour)] += int64(event.Occupancy)

		devices[event.DeviceID] = struct{}{}
	}

	peakHour := 0
	for hour := 1; hour < 24; hour++ {
		// Strict greater-than: the earliest hour wins ties.
		if hourVisitors[hour] > hourVisitors[peakHour] {
			peakHour = hour
		}
	}

	busiest := models.SegmentNight
	busiestVisitors := segmentVisitors[models.SegmentNight]
	for _, segment := range []models.DaySegment{models.SegmentMorning, models.SegmentAfternoon, models.SegmentEvening} {
		if segmentVisitors[segment] > busiestVisitors {
			busiest = segment
			busiestVisitors = segmentVisitors[segment]
		}
	}

	return &models.DailySummary{
		TenantID:         tenantID,
		Date:             time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
		TotalVisitors:    totalVisitors,
		TotalEntries:     totalEntries,
		TotalExits:       totalExits,
		PeakOccupancy:    peakOccupancy,
		MinOccupancy:     minOccupancy,
		AverageOccupancy: float64(occupancySum) / float64(len(events)),
		PeakHour:         peakHour,
		PeakHourVisitors: hourVisitors[peakHour],
		BusiestPeriod:    busiest,
		ActiveDevices:    len(devices),
		EventCount:       int64(len(events)),
	}
}
