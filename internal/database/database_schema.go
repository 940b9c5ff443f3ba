// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context for schema operations. Schema changes
// on a cold start can take a while on slow disks.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// getTableCreationQueries returns the DDL for all tables, in dependency
// order. Every statement is idempotent.
func getTableCreationQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS tenants (
			id UUID PRIMARY KEY,
			name VARCHAR NOT NULL,
			profile VARCHAR NOT NULL,
			capacity INTEGER,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS devices (
			id VARCHAR PRIMARY KEY,
			tenant_id UUID NOT NULL,
			name VARCHAR,
			capacity INTEGER,
			active BOOLEAN NOT NULL DEFAULT true,
			token_hash VARCHAR,
			last_seen TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		// Append-only occupancy log. recorded_at is server-assigned.
		`CREATE TABLE IF NOT EXISTS analysis_events (
			id UUID PRIMARY KEY,
			device_id VARCHAR NOT NULL,
			tenant_id UUID NOT NULL,
			occupancy INTEGER NOT NULL,
			entries INTEGER NOT NULL DEFAULT 0,
			exits INTEGER NOT NULL DEFAULT 0,
			confidence DOUBLE,
			raw_payload BLOB,
			recorded_at TIMESTAMP NOT NULL
		)`,

		// One row per (tenant, closed day) with at least one event.
		`CREATE TABLE IF NOT EXISTS daily_summaries (
			tenant_id UUID NOT NULL,
			summary_date DATE NOT NULL,
			total_visitors BIGINT NOT NULL,
			total_entries BIGINT NOT NULL,
			total_exits BIGINT NOT NULL,
			peak_occupancy INTEGER NOT NULL,
			min_occupancy INTEGER NOT NULL,
			average_occupancy DOUBLE NOT NULL,
			peak_hour INTEGER NOT NULL,
			peak_hour_visitors BIGINT NOT NULL,
			busiest_period VARCHAR NOT NULL,
			active_devices INTEGER NOT NULL,
			event_count BIGINT NOT NULL,
			computed_at TIMESTAMP NOT NULL,
			PRIMARY KEY (tenant_id, summary_date)
		)`,
	}
}

func getIndexCreationQueries() []string {
	return []string{
		// The realtime window and rollup day queries are both
		// (tenant_id, recorded_at) range scans.
		`CREATE INDEX IF NOT EXISTS idx_events_tenant_recorded ON analysis_events (tenant_id, recorded_at)`,
		`CREATE INDEX IF NOT EXISTS idx_events_device_recorded ON analysis_events (device_id, recorded_at)`,
		`CREATE INDEX IF NOT EXISTS idx_devices_tenant ON devices (tenant_id)`,
	}
}

// createTables creates all tables and indexes if they do not exist.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range getTableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	for _, query := range getIndexCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
