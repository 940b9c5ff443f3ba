// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mvargas-dev/crowdgauge/internal/logging"
	"github.com/mvargas-dev/crowdgauge/internal/metrics"
	"github.com/mvargas-dev/crowdgauge/internal/models"
)

// AppendEvent stores one occupancy reading and bumps the device's
// last_seen in the same transaction. Liveness therefore moves in
// lockstep with the log: a stored event is always visible in last_seen
// and vice versa.
func (db *DB) AppendEvent(ctx context.Context, event *models.AnalysisEvent) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer metrics.RecordDBQuery("append_event", time.Now())

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO analysis_events (id, device_id, tenant_id, occupancy, entries, exits, confidence, raw_payload, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID.String(), event.DeviceID, event.TenantID.String(),
		event.Occupancy, event.Entries, event.Exits, event.Confidence,
		[]byte(event.RawPayload), event.RecordedAt)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE devices SET last_seen = ? WHERE id = ? AND (last_seen IS NULL OR last_seen < ?)`,
		event.RecordedAt, event.DeviceID, event.RecordedAt)
	if err != nil {
		return fmt.Errorf("failed to update last_seen: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit event: %w", err)
	}
	committed = true
	metrics.EventsStoredTotal.Inc()
	return nil
}

// InsertEventsBatch stores a batch of readings in one transaction using
// a prepared statement, skipping duplicates by event ID. Used by the
// stream consumer and the WAL replayer, both of which can redeliver.
// Returns the inserted and duplicate counts.
func (db *DB) InsertEventsBatch(ctx context.Context, events []models.AnalysisEvent) (inserted, duplicates int, err error) {
	if len(events) == 0 {
		return 0, 0, nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer metrics.RecordDBQuery("insert_events_batch", time.Now())

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO analysis_events (id, device_id, tenant_id, occupancy, entries, exits, confidence, raw_payload, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to prepare batch insert: %w", err)
	}
	defer closeQuietly(stmt)

	// Track the newest reading per device so last_seen is bumped once
	// per device, not once per event.
	latestByDevice := make(map[string]time.Time)

	for i := range events {
		event := &events[i]
		if event.ID == uuid.Nil {
			event.ID = uuid.New()
		}

		result, execErr := stmt.ExecContext(ctx,
			event.ID.String(), event.DeviceID, event.TenantID.String(),
			event.Occupancy, event.Entries, event.Exits, event.Confidence,
			[]byte(event.RawPayload), event.RecordedAt)
		if execErr != nil {
			return 0, 0, fmt.Errorf("failed to insert event %s: %w", event.ID, execErr)
		}

		rows, raErr := result.RowsAffected()
		if raErr != nil {
			return 0, 0, fmt.Errorf("failed to check insert result: %w", raErr)
		}
		if rows == 0 {
			duplicates++
			continue
		}
		inserted++
		if ts, ok := latestByDevice[event.DeviceID]; !ok || event.RecordedAt.After(ts) {
			latestByDevice[event.DeviceID] = event.RecordedAt
		}
	}

	for deviceID, ts := range latestByDevice {
		if _, err = tx.ExecContext(ctx,
			`UPDATE devices SET last_seen = ? WHERE id = ? AND (last_seen IS NULL OR last_seen < ?)`,
			ts, deviceID, ts); err != nil {
			return 0, 0, fmt.Errorf("failed to update last_seen for %s: %w", deviceID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit batch: %w", err)
	}
	committed = true

	metrics.EventsStoredTotal.Add(float64(inserted))
	metrics.EventsDuplicateTotal.Add(float64(duplicates))
	if duplicates > 0 {
		logging.Debug().Int("duplicates", duplicates).Int("inserted", inserted).
			Msg("Batch insert skipped duplicate events")
	}
	return inserted, duplicates, nil
}

// GetEventsInWindow returns the tenant's events with
// from <= recorded_at < to, ordered by recorded_at then ID so repeated
// reads are stable.
func (db *DB) GetEventsInWindow(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]models.AnalysisEvent, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer metrics.RecordDBQuery("get_events_window", time.Now())

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, device_id, tenant_id, occupancy, entries, exits, confidence, raw_payload, recorded_at
		 FROM analysis_events
		 WHERE tenant_id = ? AND recorded_at >= ? AND recorded_at < ?
		 ORDER BY recorded_at, id`,
		tenantID.String(), from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer closeQuietly(rows)

	return collectEvents(rows)
}

// GetDeviceEventsInWindow returns one device's events in the window,
// ordered by recorded_at then ID.
func (db *DB) GetDeviceEventsInWindow(ctx context.Context, deviceID string, from, to time.Time) ([]models.AnalysisEvent, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer metrics.RecordDBQuery("get_device_events_window", time.Now())

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, device_id, tenant_id, occupancy, entries, exits, confidence, raw_payload, recorded_at
		 FROM analysis_events
		 WHERE device_id = ? AND recorded_at >= ? AND recorded_at < ?
		 ORDER BY recorded_at, id`,
		deviceID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query device events: %w", err)
	}
	defer closeQuietly(rows)

	return collectEvents(rows)
}

// PruneEventsBefore deletes events older than the cutoff. Summaries are
// untouched; they are the durable archive of pruned days.
func (db *DB) PruneEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer metrics.RecordDBQuery("prune_events", time.Now())

	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM analysis_events WHERE recorded_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune events: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned events: %w", err)
	}
	return deleted, nil
}

func collectEvents(rows *sql.Rows) ([]models.AnalysisEvent, error) {
	var events []models.AnalysisEvent
	for rows.Next() {
		var (
			event       models.AnalysisEvent
			idStr       string
			tenantIDStr string
			confidence  sql.NullFloat64
			rawPayload  []byte
		)
		if err := rows.Scan(&idStr, &event.DeviceID, &tenantIDStr,
			&event.Occupancy, &event.Entries, &event.Exits, &confidence,
			&rawPayload, &event.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		id, err := parseUUID(idStr)
		if err != nil {
			return nil, fmt.Errorf("invalid event id %q: %w", idStr, err)
		}
		tenantID, err := parseUUID(tenantIDStr)
		if err != nil {
			return nil, fmt.Errorf("invalid tenant id %q: %w", tenantIDStr, err)
		}
		event.ID = id
		event.TenantID = tenantID
		if confidence.Valid {
			c := confidence.Float64
			event.Confidence = &c
		}
		if len(rawPayload) > 0 {
			event.RawPayload = rawPayload
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}
