// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mvargas-dev/crowdgauge/internal/metrics"
	"github.com/mvargas-dev/crowdgauge/internal/models"
)

// GetHourlyStats aggregates a tenant's events into hour buckets inside
// [from, to). Bucketing happens in DuckDB via DATE_TRUNC; hours without
// events yield no row.
func (db *DB) GetHourlyStats(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]models.HourlyStat, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer metrics.RecordDBQuery("get_hourly_stats", time.Now())

	rows, err := db.conn.QueryContext(ctx,
		`SELECT
			DATE_TRUNC('hour', recorded_at) AS bucket,
			AVG(occupancy) AS avg_occupancy,
			MAX(occupancy) AS peak_occupancy,
			SUM(entries) AS entries,
			SUM(exits) AS exits,
			COUNT(*) AS event_count
		 FROM analysis_events
		 WHERE tenant_id = ? AND recorded_at >= ? AND recorded_at < ?
		 GROUP BY bucket
		 ORDER BY bucket`,
		tenantID.String(), from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query hourly stats: %w", err)
	}
	defer closeQuietly(rows)

	var stats []models.HourlyStat
	for rows.Next() {
		var s models.HourlyStat
		if err := rows.Scan(&s.Hour, &s.AvgOccupancy, &s.PeakOccupancy,
			&s.Entries, &s.Exits, &s.EventCount); err != nil {
			return nil, fmt.Errorf("failed to scan hourly stat: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate hourly stats: %w", err)
	}
	return stats, nil
}
