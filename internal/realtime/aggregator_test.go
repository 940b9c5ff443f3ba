// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mvargas-dev/crowdgauge/internal/crowd"
	"github.com/mvargas-dev/crowdgauge/internal/models"
)

// fakeStore is an in-memory EventSource.
type fakeStore struct {
	tenants map[uuid.UUID]*models.Tenant
	devices map[string]*models.Device
	events  []models.AnalysisEvent
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tenants: make(map[uuid.UUID]*models.Tenant),
		devices: make(map[string]*models.Device),
	}
}

func (s *fakeStore) GetTenant(_ context.Context, id uuid.UUID) (*models.Tenant, error) {
	if t, ok := s.tenants[id]; ok {
		return t, nil
	}
	return nil, errTenantNotFound
}

func (s *fakeStore) ListDevicesByTenant(_ context.Context, tenantID uuid.UUID) ([]models.Device, error) {
	var out []models.Device
	for _, d := range s.devices {
		if d.TenantID == tenantID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (s *fakeStore) ResolveDevice(_ context.Context, deviceID string) (*models.Device, error) {
	if d, ok := s.devices[deviceID]; ok {
		return d, nil
	}
	return nil, errUnknownDevice
}

func (s *fakeStore) GetEventsInWindow(_ context.Context, tenantID uuid.UUID, from, to time.Time) ([]models.AnalysisEvent, error) {
	var out []models.AnalysisEvent
	for _, e := range s.events {
		if e.TenantID == tenantID && !e.RecordedAt.Before(from) && e.RecordedAt.Before(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeStore) GetDeviceEventsInWindow(_ context.Context, deviceID string, from, to time.Time) ([]models.AnalysisEvent, error) {
	var out []models.AnalysisEvent
	for _, e := range s.events {
		if e.DeviceID == deviceID && !e.RecordedAt.Before(from) && e.RecordedAt.Before(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

var (
	errTenantNotFound = &notFoundError{"tenant"}
	errUnknownDevice  = &notFoundError{"device"}
)

type notFoundError struct{ what string }

func (e *notFoundError) Error() string { return e.what + " not found" }

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestAggregator(store *fakeStore) *Aggregator {
	a := New(store, crowd.NewLiveness(5*time.Minute), 10*time.Minute, 0)
	a.now = func() time.Time { return testNow }
	return a
}

func seedTenant(s *fakeStore, profile models.TenantProfile, capacity *int) *models.Tenant {
	t := &models.Tenant{ID: uuid.New(), Name: "t", Profile: profile, Capacity: capacity}
	s.tenants[t.ID] = t
	return t
}

func seedDevice(s *fakeStore, tenantID uuid.UUID, id string, seenAgo time.Duration) *models.Device {
	seen := testNow.Add(-seenAgo)
	d := &models.Device{ID: id, TenantID: tenantID, Active: true, LastSeen: &seen}
	s.devices[id] = d
	return d
}

func addEvent(s *fakeStore, tenantID uuid.UUID, deviceID string, occupancy, entries, exits int, ago time.Duration) {
	s.events = append(s.events, models.AnalysisEvent{
		ID: uuid.New(), TenantID: tenantID, DeviceID: deviceID,
		Occupancy: occupancy, Entries: entries, Exits: exits,
		RecordedAt: testNow.Add(-ago),
	})
}

func TestTenantSnapshotAveragesOnlineDevices(t *testing.T) {
	store := newFakeStore()
	tenant := seedTenant(store, models.ProfileRetail, nil)
	seedDevice(store, tenant.ID, "cam-1", time.Minute)
	seedDevice(store, tenant.ID, "cam-2", time.Minute)

	// cam-1: latest sample 30 (older sample 5 must lose).
	addEvent(store, tenant.ID, "cam-1", 5, 1, 0, 8*time.Minute)
	addEvent(store, tenant.ID, "cam-1", 30, 2, 1, 2*time.Minute)
	// cam-2: latest sample 10.
	addEvent(store, tenant.ID, "cam-2", 10, 4, 3, 3*time.Minute)

	snap, err := newTestAggregator(store).TenantSnapshot(context.Background(), tenant.ID)
	require.NoError(t, err)

	require.True(t, snap.HasData)
	require.Equal(t, 40, snap.TotalOccupancy)
	require.InDelta(t, 20.0, snap.AverageOccupancy, 1e-9)
	// classify(average=20) is high for retail; classify(sum=40) would
	// wrongly be very_high.
	require.Equal(t, models.CrowdLevelHigh, snap.CrowdLevel)
	require.Equal(t, 2, snap.OnlineDevices)

	// Entries/exits are counters over the whole window.
	var entries, exits int
	for _, d := range snap.Devices {
		entries += d.Entries
		exits += d.Exits
	}
	require.Equal(t, 7, entries)
	require.Equal(t, 4, exits)
}

func TestTenantSnapshotExcludesOfflineDevices(t *testing.T) {
	store := newFakeStore()
	tenant := seedTenant(store, models.ProfileRetail, nil)
	seedDevice(store, tenant.ID, "cam-online", time.Minute)
	seedDevice(store, tenant.ID, "cam-offline", 20*time.Minute)

	addEvent(store, tenant.ID, "cam-online", 8, 0, 0, time.Minute)
	// The offline device has an event just inside the window; it must
	// still not contribute to the totals.
	addEvent(store, tenant.ID, "cam-offline", 100, 0, 0, 9*time.Minute)

	snap, err := newTestAggregator(store).TenantSnapshot(context.Background(), tenant.ID)
	require.NoError(t, err)

	require.Equal(t, 8, snap.TotalOccupancy)
	require.Equal(t, 1, snap.OnlineDevices)
	require.InDelta(t, 8.0, snap.AverageOccupancy, 1e-9)
}

func TestTenantSnapshotNoOnlineDevicesIsNoData(t *testing.T) {
	store := newFakeStore()
	tenant := seedTenant(store, models.ProfileRetail, nil)
	seedDevice(store, tenant.ID, "cam-1", time.Hour)

	snap, err := newTestAggregator(store).TenantSnapshot(context.Background(), tenant.ID)
	require.NoError(t, err)

	require.False(t, snap.HasData)
	require.Equal(t, models.CrowdLevelNoData, snap.CrowdLevel)
	require.NotEqual(t, models.CrowdLevelEmpty, snap.CrowdLevel,
		"silent fleet must never read as an empty building")
	require.Equal(t, 1, snap.TotalDevices)
	require.Equal(t, 0, snap.OnlineDevices)
}

func TestTenantSnapshotTransitUsesCapacity(t *testing.T) {
	store := newFakeStore()
	capacity := 100
	tenant := seedTenant(store, models.ProfileTransit, &capacity)
	seedDevice(store, tenant.ID, "platform-1", time.Minute)
	addEvent(store, tenant.ID, "platform-1", 95, 0, 0, time.Minute)

	snap, err := newTestAggregator(store).TenantSnapshot(context.Background(), tenant.ID)
	require.NoError(t, err)
	require.Equal(t, models.CrowdLevelVeryHigh, snap.CrowdLevel)
}

func TestDeviceSnapshot(t *testing.T) {
	store := newFakeStore()
	tenant := seedTenant(store, models.ProfileRetail, nil)
	seedDevice(store, tenant.ID, "cam-1", time.Minute)
	addEvent(store, tenant.ID, "cam-1", 12, 3, 2, 4*time.Minute)
	addEvent(store, tenant.ID, "cam-1", 15, 1, 1, time.Minute)

	ds, err := newTestAggregator(store).DeviceSnapshot(context.Background(), "cam-1")
	require.NoError(t, err)

	require.True(t, ds.Online)
	require.NotNil(t, ds.Occupancy)
	require.Equal(t, 15, *ds.Occupancy)
	require.Equal(t, 4, ds.Entries)
	require.Equal(t, 3, ds.Exits)
	require.Equal(t, models.CrowdLevelHigh, ds.CrowdLevel)
}

func TestDeviceSnapshotNoEvents(t *testing.T) {
	store := newFakeStore()
	tenant := seedTenant(store, models.ProfileRetail, nil)
	seedDevice(store, tenant.ID, "cam-1", time.Hour)

	ds, err := newTestAggregator(store).DeviceSnapshot(context.Background(), "cam-1")
	require.NoError(t, err)

	require.False(t, ds.Online)
	require.Nil(t, ds.Occupancy)
	require.Equal(t, models.CrowdLevelNoData, ds.CrowdLevel)
}

func TestSnapshotCacheInvalidation(t *testing.T) {
	store := newFakeStore()
	tenant := seedTenant(store, models.ProfileRetail, nil)
	seedDevice(store, tenant.ID, "cam-1", time.Minute)
	addEvent(store, tenant.ID, "cam-1", 5, 0, 0, time.Minute)

	a := New(store, crowd.NewLiveness(5*time.Minute), 10*time.Minute, time.Minute)
	a.now = func() time.Time { return testNow }
	defer a.Close()

	first, err := a.TenantSnapshot(context.Background(), tenant.ID)
	require.NoError(t, err)
	require.Equal(t, 5, first.TotalOccupancy)

	// New event: without invalidation the cached snapshot would be
	// served; after Invalidate the fresh value must appear.
	addEvent(store, tenant.ID, "cam-1", 25, 0, 0, 30*time.Second)

	cached, err := a.TenantSnapshot(context.Background(), tenant.ID)
	require.NoError(t, err)
	require.Equal(t, 5, cached.TotalOccupancy)

	a.Invalidate(tenant.ID)
	fresh, err := a.TenantSnapshot(context.Background(), tenant.ID)
	require.NoError(t, err)
	require.Equal(t, 25, fresh.TotalOccupancy)
}
