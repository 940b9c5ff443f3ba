// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mvargas-dev/crowdgauge/internal/metrics"
	"github.com/mvargas-dev/crowdgauge/internal/models"
)

// UpsertDailySummary writes the summary row for (tenant, date),
// replacing any existing row wholesale. Recomputing a day is therefore
// idempotent: the newest computation always wins and no partial merge
// can occur.
func (db *DB) UpsertDailySummary(ctx context.Context, summary *models.DailySummary) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer metrics.RecordDBQuery("upsert_summary", time.Now())

	if summary.ComputedAt.IsZero() {
		summary.ComputedAt = time.Now().UTC()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO daily_summaries (
			tenant_id, summary_date, total_visitors, total_entries, total_exits,
			peak_occupancy, min_occupancy, average_occupancy, peak_hour,
			peak_hour_visitors, busiest_period, active_devices, event_count,
			computed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (tenant_id, summary_date) DO UPDATE SET
			total_visitors = excluded.total_visitors,
			total_entries = excluded.total_entries,
			total_exits = excluded.total_exits,
			peak_occupancy = excluded.peak_occupancy,
			min_occupancy = excluded.min_occupancy,
			average_occupancy = excluded.average_occupancy,
			peak_hour = excluded.peak_hour,
			peak_hour_visitors = excluded.peak_hour_visitors,
			busiest_period = excluded.busiest_period,
			active_devices = excluded.active_devices,
			event_count = excluded.event_count,
			computed_at = excluded.computed_at`,
		summary.TenantID.String(), summary.DateString(), summary.TotalVisitors,
		summary.TotalEntries, summary.TotalExits, summary.PeakOccupancy,
		summary.MinOccupancy, summary.AverageOccupancy, summary.PeakHour,
		summary.PeakHourVisitors, string(summary.BusiestPeriod),
		summary.ActiveDevices, summary.EventCount, summary.ComputedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert daily summary: %w", err)
	}
	return nil
}

// GetDailySummary fetches the summary for one (tenant, date). Returns
// ErrSummaryNotFound when no row exists, which callers surface as
// NOT_FOUND: a day without events has no summary.
func (db *DB) GetDailySummary(ctx context.Context, tenantID uuid.UUID, date time.Time) (*models.DailySummary, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer metrics.RecordDBQuery("get_summary", time.Now())

	row := db.conn.QueryRowContext(ctx,
		`SELECT tenant_id, summary_date, total_visitors, total_entries, total_exits,
			peak_occupancy, min_occupancy, average_occupancy, peak_hour,
			peak_hour_visitors, busiest_period, active_devices, event_count,
			computed_at
		 FROM daily_summaries WHERE tenant_id = ? AND summary_date = ?`,
		tenantID.String(), date.Format(models.DateFormat))

	summary, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSummaryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily summary: %w", err)
	}
	return summary, nil
}

// GetDailySummaries returns the tenant's summaries with
// from <= date <= to, ordered by date. Days without events simply have
// no row and are absent from the result.
func (db *DB) GetDailySummaries(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]models.DailySummary, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer metrics.RecordDBQuery("get_summaries_range", time.Now())

	rows, err := db.conn.QueryContext(ctx,
		`SELECT tenant_id, summary_date, total_visitors, total_entries, total_exits,
			peak_occupancy, min_occupancy, average_occupancy, peak_hour,
			peak_hour_visitors, busiest_period, active_devices, event_count,
			computed_at
		 FROM daily_summaries
		 WHERE tenant_id = ? AND summary_date >= ? AND summary_date <= ?
		 ORDER BY summary_date`,
		tenantID.String(), from.Format(models.DateFormat), to.Format(models.DateFormat))
	if err != nil {
		return nil, fmt.Errorf("failed to query daily summaries: %w", err)
	}
	defer closeQuietly(rows)

	var summaries []models.DailySummary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		summaries = append(summaries, *summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate summaries: %w", err)
	}
	return summaries, nil
}

func scanSummary(row rowScanner) (*models.DailySummary, error) {
	var (
		summary     models.DailySummary
		tenantIDStr string
		period      string
	)
	if err := row.Scan(&tenantIDStr, &summary.Date, &summary.TotalVisitors,
		&summary.TotalEntries, &summary.TotalExits, &summary.PeakOccupancy,
		&summary.MinOccupancy, &summary.AverageOccupancy, &summary.PeakHour,
		&summary.PeakHourVisitors, &period,
		&summary.ActiveDevices, &summary.EventCount, &summary.ComputedAt); err != nil {
		return nil, err
	}

	tenantID, err := parseUUID(tenantIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid tenant id %q: %w", tenantIDStr, err)
	}
	summary.TenantID = tenantID
	summary.BusiestPeriod = models.DaySegment(period)
	return &summary, nil
}
