// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package crowd

import (
	"testing"
	"time"

	"github.com/mvargas-dev/crowdgauge/internal/models"
)

func TestLivenessDefaults(t *testing.T) {
	l := NewLiveness(0)
	if l.Window() != DefaultLivenessWindow {
		t.Errorf("Window() = %v, want %v", l.Window(), DefaultLivenessWindow)
	}
}

func TestLivenessIsOnline(t *testing.T) {
	l := NewLiveness(5 * time.Minute)
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	seen := now.Add(-2 * time.Minute)
	stale := now.Add(-10 * time.Minute)

	tests := []struct {
		name   string
		device models.Device
		want   bool
	}{
		{"recent and active", models.Device{Active: true, LastSeen: &seen}, true},
		{"recent but deactivated", models.Device{Active: false, LastSeen: &seen}, false},
		{"stale", models.Device{Active: true, LastSeen: &stale}, false},
		{"never seen", models.Device{Active: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := l.IsOnline(&tt.device, now); got != tt.want {
				t.Errorf("IsOnline() = %v, want %v", got, tt.want)
			}
		})
	}
}

// A device reported online at one instant must read offline once the
// window elapses without any intervening write.
func TestLivenessDecaysWithoutWrites(t *testing.T) {
	l := NewLiveness(5 * time.Minute)
	seen := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	d := models.Device{Active: true, LastSeen: &seen}

	if !l.IsOnline(&d, seen.Add(time.Minute)) {
		t.Fatal("device should be online one minute after reporting")
	}
	if l.IsOnline(&d, seen.Add(6*time.Minute)) {
		t.Fatal("device should fall offline after the window with no new events")
	}
}
