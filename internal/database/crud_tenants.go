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

// InsertTenant stores a new tenant. A nil ID is assigned.
func (db *DB) InsertTenant(ctx context.Context, tenant *models.Tenant) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer metrics.RecordDBQuery("insert_tenant", time.Now())

	if tenant.ID == uuid.Nil {
		tenant.ID = uuid.New()
	}
	if tenant.CreatedAt.IsZero() {
		tenant.CreatedAt = time.Now().UTC()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO tenants (id, name, profile, capacity, created_at) VALUES (?, ?, ?, ?, ?)`,
		tenant.ID.String(), tenant.Name, string(tenant.Profile), tenant.Capacity, tenant.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert tenant: %w", err)
	}
	return nil
}

// GetTenant fetches a tenant by ID. Returns ErrTenantNotFound when the
// ID does not exist.
func (db *DB) GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer metrics.RecordDBQuery("get_tenant", time.Now())

	row := db.conn.QueryRowContext(ctx,
		`SELECT id, name, profile, capacity, created_at FROM tenants WHERE id = ?`,
		id.String())

	tenant, err := scanTenant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return tenant, nil
}

// ListTenants returns all tenants ordered by creation time.
func (db *DB) ListTenants(ctx context.Context) ([]models.Tenant, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer metrics.RecordDBQuery("list_tenants", time.Now())

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, profile, capacity, created_at FROM tenants ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer closeQuietly(rows)

	var tenants []models.Tenant
	for rows.Next() {
		tenant, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenants = append(tenants, *tenant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tenants: %w", err)
	}
	return tenants, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTenant(row rowScanner) (*models.Tenant, error) {
	var (
		tenant   models.Tenant
		idStr    string
		profile  string
		capacity sql.NullInt64
	)
	if err := row.Scan(&idStr, &tenant.Name, &profile, &capacity, &tenant.CreatedAt); err != nil {
		return nil, err
	}

	id, err := parseUUID(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid tenant id %q: %w", idStr, err)
	}
	tenant.ID = id
	tenant.Profile = models.TenantProfile(profile)
	if capacity.Valid {
		c := int(capacity.Int64)
		tenant.Capacity = &c
	}
	return &tenant, nil
}
