// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

// Package realtime computes sliding-window snapshots of current
// occupancy. Nothing is materialized: every read derives the state from
// the event log and the devices' last_seen timestamps, so a snapshot
// can never go stale relative to the data it summarizes.
package realtime

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mvargas-dev/crowdgauge/internal/cache"
	"github.com/mvargas-dev/crowdgauge/internal/crowd"
	"github.com/mvargas-dev/crowdgauge/internal/metrics"
	"github.com/mvargas-dev/crowdgauge/internal/models"
)

// DefaultWindow is the default realtime sliding window.
const DefaultWindow = 10 * time.Minute

// EventSource is the slice of the store the aggregator reads.
type EventSource interface {
	GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	ListDevicesByTenant(ctx context.Context, tenantID uuid.UUID) ([]models.Device, error)
	ResolveDevice(ctx context.Context, deviceID string) (*models.Device, error)
	GetEventsInWindow(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]models.AnalysisEvent, error)
	GetDeviceEventsInWindow(ctx context.Context, deviceID string, from, to time.Time) ([]models.AnalysisEvent, error)
}

// Aggregator derives realtime snapshots from the event log.
type Aggregator struct {
	store    EventSource
	liveness *crowd.Liveness
	window   time.Duration
	cache    *cache.Cache

	// now is swappable in tests.
	now func() time.Time
}

// New creates an aggregator. cacheTTL <= 0 disables snapshot caching;
// the config layer guarantees cacheTTL never exceeds window.
func New(store EventSource, liveness *crowd.Liveness, window, cacheTTL time.Duration) *Aggregator {
	if window <= 0 {
		window = DefaultWindow
	}
	a := &Aggregator{
		store:    store,
		liveness: liveness,
		window:   window,
		now:      time.Now,
	}
	if cacheTTL > 0 {
		a.cache = cache.New(cacheTTL)
	}
	return a
}

// Window returns the sliding window length.
func (a *Aggregator) Window() time.Duration {
	return a.window
}

// Invalidate drops the tenant's cached snapshot. Called on every ingest
// so a cached snapshot never hides a fresher event than its TTL allows.
func (a *Aggregator) Invalidate(tenantID uuid.UUID) {
	if a.cache != nil {
		a.cache.Delete(tenantID.String())
	}
}

// Close releases the cache's background resources.
func (a *Aggregator) Close() {
	if a.cache != nil {
		a.cache.Close()
	}
}

// TenantSnapshot computes the tenant-wide realtime view.
//
// Only online devices participate. Each contributes its latest
// occupancy sample (point sample, latest wins) while entries and exits
// are summed across all window events. The tenant crowd level
// classifies the average per-device occupancy, so it reflects how
// crowded a typical zone is instead of scaling with sensor count. With
// zero contributing devices the snapshot reports HasData=false and
// CrowdLevelNoData; silence is never reported as an empty building.
func (a *Aggregator) TenantSnapshot(ctx context.Context, tenantID uuid.UUID) (*models.TenantSnapshot, error) {
	if a.cache != nil {
		if cached, ok := a.cache.Get(tenantID.String()); ok {
			metrics.SnapshotCacheHits.Inc()
			return cached.(*models.TenantSnapshot), nil
		}
		metrics.SnapshotCacheMisses.Inc()
	}
	defer metrics.RecordSnapshot("tenant", time.Now())

	tenant, err := a.store.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	devices, err := a.store.ListDevicesByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	now := a.now().UTC()
	windowStart := now.Add(-a.window)
	events, err := a.store.GetEventsInWindow(ctx, tenantID, windowStart, now)
	if err != nil {
		return nil, err
	}

	// Events arrive ordered by recorded_at, so the last one seen per
	// device is its latest sample.
	type deviceWindow struct {
		latest  *models.AnalysisEvent
		entries int
		exits   int
	}
	windows := make(map[string]*deviceWindow)
	for i := range events {
		event := &events[i]
		w := windows[event.DeviceID]
		if w == nil {
			w = &deviceWindow{}
			windows[event.DeviceID] = w
		}
		w.latest = event
		w.entries += event.Entries
		w.exits += event.Exits
	}

	snapshot := &models.TenantSnapshot{
		TenantID:     tenant.ID,
		Profile:      tenant.Profile,
		WindowStart:  windowStart,
		WindowEnd:    now,
		TotalDevices: len(devices),
		Devices:      make([]models.DeviceSnapshot, 0, len(devices)),
		GeneratedAt:  now,
	}

	contributing := 0
	total := 0
	for i := range devices {
		device := &devices[i]
		online := a.liveness.IsOnline(device, now)
		ds := models.DeviceSnapshot{
			DeviceID: device.ID,
			Name:     device.Name,
			Online:   online,
			LastSeen: device.LastSeen,
		}

		if w := windows[device.ID]; w != nil && w.latest != nil {
			occ := w.latest.Occupancy
			sampledAt := w.latest.RecordedAt
			ds.Occupancy = &occ
			ds.SampledAt = &sampledAt
			ds.Entries = w.entries
			ds.Exits = w.exits
			sample := float64(occ)
			ds.CrowdLevel = crowd.ClassifySample(&sample, tenant.Profile, device.Capacity)

			if online {
				contributing++
				total += occ
			}
		} else {
			ds.CrowdLevel = models.CrowdLevelNoData
		}

		if online {
			snapshot.OnlineDevices++
		}
		snapshot.Devices = append(snapshot.Devices, ds)
	}

	if contributing > 0 {
		snapshot.HasData = true
		snapshot.TotalOccupancy = total
		snapshot.AverageOccupancy = float64(total) / float64(contributing)
		avg := snapshot.AverageOccupancy
		snapshot.CrowdLevel = crowd.ClassifySample(&avg, tenant.Profile, tenant.Capacity)
	} else {
		snapshot.CrowdLevel = models.CrowdLevelNoData
	}

	if a.cache != nil {
		a.cache.Set(tenantID.String(), snapshot)
	}
	return snapshot, nil
}

// DeviceSnapshot computes the realtime view of a single device.
func (a *Aggregator) DeviceSnapshot(ctx context.Context, deviceID string) (*models.DeviceSnapshot, error) {
	defer metrics.RecordSnapshot("device", time.Now())

	device, err := a.store.ResolveDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	tenant, err := a.store.GetTenant(ctx, device.TenantID)
	if err != nil {
		return nil, err
	}

	now := a.now().UTC()
	events, err := a.store.GetDeviceEventsInWindow(ctx, deviceID, now.Add(-a.window), now)
	if err != nil {
		return nil, err
	}

	ds := &models.DeviceSnapshot{
		DeviceID:   device.ID,
		Name:       device.Name,
		Online:     a.liveness.IsOnline(device, now),
		LastSeen:   device.LastSeen,
		CrowdLevel: models.CrowdLevelNoData,
	}

	if len(events) > 0 {
		latest := &events[len(events)-1]
		occ := latest.Occupancy
		sampledAt := latest.RecordedAt
		ds.Occupancy = &occ
		ds.SampledAt = &sampledAt
		for i := range events {
			ds.Entries += events[i].Entries
			ds.Exits += events[i].Exits
		}
		sample := float64(occ)
		ds.CrowdLevel = crowd.ClassifySample(&sample, tenant.Profile, device.Capacity)
	}

	return ds, nil
}
