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

// RegisterDevice binds a device to a tenant. Returns ErrTenantNotFound
// when the tenant does not exist and ErrDeviceExists when the device ID
// is already taken.
func (db *DB) RegisterDevice(ctx context.Context, device *models.Device) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer metrics.RecordDBQuery("register_device", time.Now())

	if _, err := db.GetTenant(ctx, device.TenantID); err != nil {
		return err
	}

	if device.CreatedAt.IsZero() {
		device.CreatedAt = time.Now().UTC()
	}

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO devices (id, tenant_id, name, capacity, active, token_hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		device.ID, device.TenantID.String(), device.Name, device.Capacity,
		device.Active, device.TokenHash, device.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check device insert: %w", err)
	}
	if rows == 0 {
		return ErrDeviceExists
	}
	return nil
}

// ResolveDevice is the single ownership-resolution path: one indexed
// lookup from the hardware ID to the owning tenant and the device's
// auth/liveness state. Every ingest request goes through here.
// Returns ErrUnknownDevice when the ID is not registered.
func (db *DB) ResolveDevice(ctx context.Context, deviceID string) (*models.Device, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer metrics.RecordDBQuery("resolve_device", time.Now())

	row := db.conn.QueryRowContext(ctx,
		`SELECT id, tenant_id, name, capacity, active, token_hash, last_seen, created_at
		 FROM devices WHERE id = ?`, deviceID)

	device, err := scanDevice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUnknownDevice
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve device: %w", err)
	}
	return device, nil
}

// ListDevicesByTenant returns the tenant's devices ordered by ID.
// Returns ErrTenantNotFound for an unknown tenant, so callers can tell
// "tenant with no devices" from "no such tenant".
func (db *DB) ListDevicesByTenant(ctx context.Context, tenantID uuid.UUID) ([]models.Device, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer metrics.RecordDBQuery("list_devices", time.Now())

	if _, err := db.GetTenant(ctx, tenantID); err != nil {
		return nil, err
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, tenant_id, name, capacity, active, token_hash, last_seen, created_at
		 FROM devices WHERE tenant_id = ? ORDER BY id`, tenantID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer closeQuietly(rows)

	var devices []models.Device
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, *device)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate devices: %w", err)
	}
	return devices, nil
}

// SetDeviceActive soft-activates or soft-deactivates a device. An
// inactive device never counts as online regardless of last_seen.
func (db *DB) SetDeviceActive(ctx context.Context, deviceID string, active bool) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	defer metrics.RecordDBQuery("set_device_active", time.Now())

	result, err := db.conn.ExecContext(ctx,
		`UPDATE devices SET active = ? WHERE id = ?`, active, deviceID)
	if err != nil {
		return fmt.Errorf("failed to update device: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check device update: %w", err)
	}
	if rows == 0 {
		return ErrUnknownDevice
	}
	return nil
}

func scanDevice(row rowScanner) (*models.Device, error) {
	var (
		device      models.Device
		tenantIDStr string
		name        sql.NullString
		capacity    sql.NullInt64
		tokenHash   sql.NullString
		lastSeen    sql.NullTime
	)
	if err := row.Scan(&device.ID, &tenantIDStr, &name, &capacity, &device.Active,
		&tokenHash, &lastSeen, &device.CreatedAt); err != nil {
		return nil, err
	}

	tenantID, err := parseUUID(tenantIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid tenant id %q: %w", tenantIDStr, err)
	}
	device.TenantID = tenantID
	device.Name = name.String
	device.TokenHash = tokenHash.String
	if capacity.Valid {
		c := int(capacity.Int64)
		device.Capacity = &c
	}
	if lastSeen.Valid {
		ts := lastSeen.Time
		device.LastSeen = &ts
	}
	return &device, nil
}
