// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package database

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mvargas-dev/crowdgauge/internal/models"
)

func testSummary(tenantID uuid.UUID, date time.Time) *models.DailySummary {
	return &models.DailySummary{
		TenantID:         tenantID,
		Date:             date,
		TotalVisitors:    420,
		TotalEntries:     100,
		TotalExits:       95,
		PeakOccupancy:    31,
		MinOccupancy:     2,
		AverageOccupancy: 12.5,
		PeakHour:         14,
		PeakHourVisitors: 64,
		BusiestPeriod:    models.SegmentAfternoon,
		ActiveDevices:    3,
		EventCount:       288,
	}
}

func TestUpsertDailySummaryReplaces(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	tenant := seedTenant(t, db, models.ProfileRetail)
	date := time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC)

	summary := testSummary(tenant.ID, date)
	require.NoError(t, db.UpsertDailySummary(ctx, summary))

	// Recompute with different numbers; the row must be replaced, not
	// merged or duplicated.
	recomputed := testSummary(tenant.ID, date)
	recomputed.TotalVisitors = 500
	recomputed.PeakHour = 15
	require.NoError(t, db.UpsertDailySummary(ctx, recomputed))

	got, err := db.GetDailySummary(ctx, tenant.ID, date)
	require.NoError(t, err)
	require.EqualValues(t, 500, got.TotalVisitors)
	require.Equal(t, 15, got.PeakHour)
	require.EqualValues(t, 64, got.PeakHourVisitors)
	require.Equal(t, 2, got.MinOccupancy)
	require.Equal(t, models.SegmentAfternoon, got.BusiestPeriod)

	all, err := db.GetDailySummaries(ctx, tenant.ID, date.AddDate(0, 0, -1), date.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestGetDailySummaryNotFound(t *testing.T) {
	db := setupTestDB(t)
	tenant := seedTenant(t, db, models.ProfileRetail)

	_, err := db.GetDailySummary(context.Background(), tenant.ID,
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, ErrSummaryNotFound)
}

func TestGetDailySummariesRange(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	tenant := seedTenant(t, db, models.ProfileRetail)

	// Three days with summaries, one gap in between.
	for _, day := range []int{10, 11, 13} {
		date := time.Date(2026, 3, day, 0, 0, 0, 0, time.UTC)
		require.NoError(t, db.UpsertDailySummary(ctx, testSummary(tenant.ID, date)))
	}

	from := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC)
	summaries, err := db.GetDailySummaries(ctx, tenant.ID, from, to)
	require.NoError(t, err)
	require.Len(t, summaries, 3)

	// Ordered by date; the gap day is simply absent.
	require.Equal(t, "2026-03-10", summaries[0].DateString())
	require.Equal(t, "2026-03-11", summaries[1].DateString())
	require.Equal(t, "2026-03-13", summaries[2].DateString())
}

func TestGetHourlyStats(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	tenant := seedTenant(t, db, models.ProfileRetail)
	seedDevice(t, db, tenant.ID, "cam-1")

	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	// Two events at 09:xx, one at 14:xx.
	for _, ts := range []time.Time{
		day.Add(9*time.Hour + 5*time.Minute),
		day.Add(9*time.Hour + 45*time.Minute),
		day.Add(14*time.Hour + 10*time.Minute),
	} {
		require.NoError(t, db.AppendEvent(ctx, &models.AnalysisEvent{
			DeviceID: "cam-1", TenantID: tenant.ID, Occupancy: 10, Entries: 2, RecordedAt: ts,
		}))
	}

	stats, err := db.GetHourlyStats(ctx, tenant.ID, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, stats, 2)
	require.EqualValues(t, 2, stats[0].EventCount)
	require.EqualValues(t, 4, stats[0].Entries)
	require.EqualValues(t, 1, stats[1].EventCount)
}
