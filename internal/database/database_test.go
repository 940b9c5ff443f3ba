// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mvargas-dev/crowdgauge/internal/config"
	"github.com/mvargas-dev/crowdgauge/internal/models"
)

// setupTestDB creates a fresh on-disk database in a temp dir.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Path:      filepath.Join(t.TempDir(), "test.duckdb"),
		MaxMemory: "256MB",
		Threads:   2,
	}
	db, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})
	return db
}

// seedTenant inserts a tenant and returns it.
func seedTenant(t *testing.T, db *DB, profile models.TenantProfile) *models.Tenant {
	t.Helper()
	tenant := &models.Tenant{Name: "t-" + uuid.NewString()[:8], Profile: profile}
	require.NoError(t, db.InsertTenant(context.Background(), tenant))
	return tenant
}

// seedDevice registers a device under the tenant and returns it.
func seedDevice(t *testing.T, db *DB, tenantID uuid.UUID, id string) *models.Device {
	t.Helper()
	device := &models.Device{ID: id, TenantID: tenantID, Active: true}
	require.NoError(t, db.RegisterDevice(context.Background(), device))
	return device
}

func TestNewCreatesSchema(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Ping(context.Background()))

	// Idempotent: creating tables again must not fail.
	require.NoError(t, db.createTables())
}

func TestTenantRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	capacity := 120
	tenant := &models.Tenant{Name: "Central Station", Profile: models.ProfileTransit, Capacity: &capacity}
	require.NoError(t, db.InsertTenant(ctx, tenant))

	got, err := db.GetTenant(ctx, tenant.ID)
	require.NoError(t, err)
	require.Equal(t, "Central Station", got.Name)
	require.Equal(t, models.ProfileTransit, got.Profile)
	require.NotNil(t, got.Capacity)
	require.Equal(t, 120, *got.Capacity)
}

func TestGetTenantNotFound(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.GetTenant(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrTenantNotFound)
}

func TestRegisterDeviceErrors(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	tenant := seedTenant(t, db, models.ProfileRetail)

	err := db.RegisterDevice(ctx, &models.Device{ID: "cam-1", TenantID: uuid.New(), Active: true})
	require.ErrorIs(t, err, ErrTenantNotFound)

	seedDevice(t, db, tenant.ID, "cam-1")
	err = db.RegisterDevice(ctx, &models.Device{ID: "cam-1", TenantID: tenant.ID, Active: true})
	require.ErrorIs(t, err, ErrDeviceExists)
}

func TestResolveDevice(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	tenant := seedTenant(t, db, models.ProfileRetail)
	seedDevice(t, db, tenant.ID, "cam-7")

	device, err := db.ResolveDevice(ctx, "cam-7")
	require.NoError(t, err)
	require.Equal(t, tenant.ID, device.TenantID)
	require.True(t, device.Active)
	require.Nil(t, device.LastSeen)

	_, err = db.ResolveDevice(ctx, "ghost")
	require.ErrorIs(t, err, ErrUnknownDevice)
}

func TestAppendEventBumpsLastSeenAtomically(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	tenant := seedTenant(t, db, models.ProfileRetail)
	seedDevice(t, db, tenant.ID, "cam-1")

	recorded := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	event := &models.AnalysisEvent{
		DeviceID:   "cam-1",
		TenantID:   tenant.ID,
		Occupancy:  7,
		Entries:    2,
		Exits:      1,
		RecordedAt: recorded,
	}
	require.NoError(t, db.AppendEvent(ctx, event))
	require.NotEqual(t, uuid.Nil, event.ID)

	device, err := db.ResolveDevice(ctx, "cam-1")
	require.NoError(t, err)
	require.NotNil(t, device.LastSeen)
	require.True(t, device.LastSeen.Equal(recorded))

	// An older event must not move last_seen backwards.
	older := &models.AnalysisEvent{
		DeviceID:   "cam-1",
		TenantID:   tenant.ID,
		Occupancy:  3,
		RecordedAt: recorded.Add(-time.Hour),
	}
	require.NoError(t, db.AppendEvent(ctx, older))

	device, err = db.ResolveDevice(ctx, "cam-1")
	require.NoError(t, err)
	require.True(t, device.LastSeen.Equal(recorded))
}

func TestInsertEventsBatchDeduplicates(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	tenant := seedTenant(t, db, models.ProfileRetail)
	seedDevice(t, db, tenant.ID, "cam-1")

	id := uuid.New()
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	batch := []models.AnalysisEvent{
		{ID: id, DeviceID: "cam-1", TenantID: tenant.ID, Occupancy: 5, RecordedAt: base},
		{ID: id, DeviceID: "cam-1", TenantID: tenant.ID, Occupancy: 5, RecordedAt: base},
		{DeviceID: "cam-1", TenantID: tenant.ID, Occupancy: 6, RecordedAt: base.Add(time.Minute),
			RawPayload: []byte(`{"detector":"yolo-v8","v":3}`)},
	}

	inserted, duplicates, err := db.InsertEventsBatch(ctx, batch)
	require.NoError(t, err)
	require.Equal(t, 2, inserted)
	require.Equal(t, 1, duplicates)

	// last_seen reflects the newest reading of the batch.
	device, err := db.ResolveDevice(ctx, "cam-1")
	require.NoError(t, err)
	require.True(t, device.LastSeen.Equal(base.Add(time.Minute)))

	// The opaque detector blob survives the batch path untouched.
	events, err := db.GetEventsInWindow(ctx, tenant.ID, base, base.Add(2*time.Minute))
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Nil(t, events[0].RawPayload)
	require.Equal(t, []byte(`{"detector":"yolo-v8","v":3}`), []byte(events[1].RawPayload))
}

func TestGetEventsInWindowBounds(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	tenant := seedTenant(t, db, models.ProfileRetail)
	seedDevice(t, db, tenant.ID, "cam-1")

	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	for _, offset := range []time.Duration{-15 * time.Minute, -5 * time.Minute, -1 * time.Minute, 0} {
		require.NoError(t, db.AppendEvent(ctx, &models.AnalysisEvent{
			DeviceID: "cam-1", TenantID: tenant.ID, Occupancy: 1, RecordedAt: base.Add(offset),
		}))
	}

	// Window [base-10m, base): includes -5m and -1m, excludes -15m and
	// the right-edge event at base itself.
	events, err := db.GetEventsInWindow(ctx, tenant.ID, base.Add(-10*time.Minute), base)
	require.NoError(t, err)
	require.Len(t, events, 2)
	for i := 1; i < len(events); i++ {
		require.False(t, events[i].RecordedAt.Before(events[i-1].RecordedAt))
	}
}

func TestEventsIsolatedByTenant(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	tenantA := seedTenant(t, db, models.ProfileRetail)
	tenantB := seedTenant(t, db, models.ProfileRetail)
	seedDevice(t, db, tenantA.ID, "cam-a")
	seedDevice(t, db, tenantB.ID, "cam-b")

	now := time.Now().UTC()
	require.NoError(t, db.AppendEvent(ctx, &models.AnalysisEvent{
		DeviceID: "cam-a", TenantID: tenantA.ID, Occupancy: 4, RecordedAt: now,
	}))
	require.NoError(t, db.AppendEvent(ctx, &models.AnalysisEvent{
		DeviceID: "cam-b", TenantID: tenantB.ID, Occupancy: 9, RecordedAt: now,
	}))

	events, err := db.GetEventsInWindow(ctx, tenantA.ID, now.Add(-time.Minute), now.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "cam-a", events[0].DeviceID)
}

func TestPruneEventsBefore(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	tenant := seedTenant(t, db, models.ProfileRetail)
	seedDevice(t, db, tenant.ID, "cam-1")

	now := time.Now().UTC()
	require.NoError(t, db.AppendEvent(ctx, &models.AnalysisEvent{
		DeviceID: "cam-1", TenantID: tenant.ID, Occupancy: 1, RecordedAt: now.Add(-48 * time.Hour),
	}))
	require.NoError(t, db.AppendEvent(ctx, &models.AnalysisEvent{
		DeviceID: "cam-1", TenantID: tenant.ID, Occupancy: 2, RecordedAt: now,
	}))

	deleted, err := db.PruneEventsBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)

	events, err := db.GetEventsInWindow(ctx, tenant.ID, now.Add(-72*time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, events, 1)
}
