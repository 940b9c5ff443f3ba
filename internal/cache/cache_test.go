// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package cache

import (
	"testing"
	"time"
)

func TestSetGet(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()

	c.Set("tenant-a", 42)
	got, ok := c.Get("tenant-a")
	if !ok || got.(int) != 42 {
		t.Errorf("Get() = %v, %v; want 42, true", got, ok)
	}
}

func TestGetMiss(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()

	if _, ok := c.Get("absent"); ok {
		t.Error("expected miss for absent key")
	}
	if stats := c.GetStats(); stats.Misses != 1 {
		t.Errorf("Misses = %d, want 1", stats.Misses)
	}
}

func TestExpiry(t *testing.T) {
	c := New(10 * time.Millisecond)
	defer c.Close()

	c.Set("k", "v")
	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("expired entry should not be returned")
	}
}

func TestDeleteInvalidates(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()

	c.Set("tenant-a", "stale")
	c.Delete("tenant-a")
	if _, ok := c.Get("tenant-a"); ok {
		t.Error("deleted entry should be gone")
	}
}
