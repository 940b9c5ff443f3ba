// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

// Package cache provides a small thread-safe in-memory TTL cache. The
// realtime aggregator uses it for tenant snapshots with a TTL well
// below the realtime window, and invalidates a tenant's entry on every
// ingest so fresh events are visible immediately.
package cache

import (
	"sync"
	"time"
)

// Entry is one cached item with its expiry.
type Entry struct {
	Data      interface{}
	ExpiresAt time.Time
}

// Stats tracks cache effectiveness.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
}

// Cache is a thread-safe TTL cache. A background goroutine sweeps
// expired entries every cleanupInterval for the cache's lifetime.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ttl     time.Duration
	stats   Stats
	stop    chan struct{}
}

const cleanupInterval = time.Minute

// New creates a cache whose entries expire after ttl.
func New(ttl time.Duration) *Cache {
	c := &Cache{
		entries: make(map[string]Entry),
		ttl:     ttl,
		stop:    make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Get returns the cached value for key, or (nil, false) when absent or
// expired. An expired entry is removed on access.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		c.recordMiss()
		return nil, false
	}
	if time.Now().After(entry.ExpiresAt) {
		c.Delete(key)
		c.recordMiss()
		return nil, false
	}

	c.mu.Lock()
	c.stats.Hits++
	c.mu.Unlock()
	return entry.Data, true
}

// Set stores value under key with the default TTL.
func (c *Cache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = Entry{Data: value, ExpiresAt: time.Now().Add(c.ttl)}
}

// Delete removes key. Used to invalidate a tenant's snapshot when a new
// event arrives.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.stats.Evictions++
	}
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry)
}

// GetStats returns a copy of the counters.
func (c *Cache) GetStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// Close stops the cleanup goroutine.
func (c *Cache) Close() {
	close(c.stop)
}

func (c *Cache) recordMiss() {
	c.mu.Lock()
	c.stats.Misses++
	c.mu.Unlock()
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

func (c *Cache) cleanup() {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
			c.stats.Evictions++
		}
	}
}
