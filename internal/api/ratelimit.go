// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package api

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// deviceLimiters keeps one token bucket per device for the ingest
// path. Entries idle past staleAfter are dropped during occasional
// sweeps so a churning device fleet cannot grow the map unbounded.
type deviceLimiters struct {
	mu       sync.Mutex
	limiters map[string]*deviceLimiter
	rate     rate.Limit
	burst    int

	staleAfter time.Duration
	lastSweep  time.Time
	now        func() time.Time
}

type deviceLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const limiterSweepInterval = 10 * time.Minute

func newDeviceLimiters(perSecond float64, burst int) *deviceLimiters {
	if perSecond <= 0 {
		perSecond = 1
	}
	if burst < 1 {
		burst = 1
	}
	return &deviceLimiters{
		limiters:   make(map[string]*deviceLimiter),
		rate:       rate.Limit(perSecond),
		burst:      burst,
		staleAfter: time.Hour,
		now:        time.Now,
	}
}

// Allow reports whether the device may ingest one more event now.
func (d *deviceLimiters) Allow(deviceID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	entry, ok := d.limiters[deviceID]
	if !ok {
		entry = &deviceLimiter{limiter: rate.NewLimiter(d.rate, d.burst)}
		d.limiters[deviceID] = entry
	}
	entry.lastSeen = now

	if now.Sub(d.lastSweep) > limiterSweepInterval {
		d.sweepLocked(now)
	}

	return entry.limiter.Allow()
}

func (d *deviceLimiters) sweepLocked(now time.Time) {
	d.lastSweep = now
	for id, entry := range d.limiters {
		if now.Sub(entry.lastSeen) > d.staleAfter {
			delete(d.limiters, id)
		}
	}
}
