// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package crowd

import (
	"time"

	"github.com/mvargas-dev/crowdgauge/internal/models"
)

// DefaultLivenessWindow is how long after its last report a device
// still counts as online.
const DefaultLivenessWindow = 5 * time.Minute

// Liveness decides device online state from last_seen timestamps.
// Online state is recomputed on every read; there is no stored flag to
// go stale, so a silent device falls offline the moment the window
// elapses without any writer having to notice.
type Liveness struct {
	window time.Duration
}

// NewLiveness returns a tracker with the given window, or the default
// when window is non-positive.
func NewLiveness(window time.Duration) *Liveness {
	if window <= 0 {
		window = DefaultLivenessWindow
	}
	return &Liveness{window: window}
}

// Window returns the configured liveness window.
func (l *Liveness) Window() time.Duration {
	return l.window
}

// IsOnline reports whether the device is online at the given instant.
func (l *Liveness) IsOnline(d *models.Device, now time.Time) bool {
	return d.IsOnline(now, l.window)
}
