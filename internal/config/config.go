// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

// Package config loads and validates service configuration from three
// layered sources: built-in defaults, an optional YAML file, and
// environment variables (highest priority).
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the service.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	API       APIConfig       `koanf:"api"`
	Ingest    IngestConfig    `koanf:"ingest"`
	Realtime  RealtimeConfig  `koanf:"realtime"`
	Rollup    RollupConfig    `koanf:"rollup"`
	Retention RetentionConfig `koanf:"retention"`
	NATS      NATSConfig      `koanf:"nats"`
	WAL       WALConfig       `koanf:"wal"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig controls the embedded DuckDB store.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	// Threads: 0 means runtime.NumCPU().
	Threads int `koanf:"threads"`
}

// APIConfig controls query-side behavior.
type APIConfig struct {
	// RateLimitReqs/RateLimitWindow bound per-IP requests on query routes.
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	MaxRangeDays    int           `koanf:"max_range_days"`
}

// IngestConfig controls the device-facing write path.
type IngestConfig struct {
	// LivenessWindow is how long after its last event a device still
	// counts as online.
	LivenessWindow time.Duration `koanf:"liveness_window"`
	// DeviceRatePerSecond/DeviceBurst bound the per-device token bucket.
	DeviceRatePerSecond float64 `koanf:"device_rate_per_second"`
	DeviceBurst         int     `koanf:"device_burst"`
	// RequireToken enables device token authentication. Disable only in
	// closed test networks.
	RequireToken bool `koanf:"require_token"`
}

// RealtimeConfig controls the sliding-window aggregator.
type RealtimeConfig struct {
	Window time.Duration `koanf:"window"`
	// CacheTTL caches tenant snapshots. Must stay at or below Window;
	// zero disables the cache.
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

// RollupConfig controls the daily archiver.
type RollupConfig struct {
	Enabled bool `koanf:"enabled"`
	// Hour is the local hour (0-23) at which yesterday's rollup runs.
	Hour int `koanf:"hour"`
	// Timezone is the IANA zone that defines day boundaries.
	Timezone string `koanf:"timezone"`
}

// RetentionConfig controls raw-event pruning. Summaries are never pruned.
type RetentionConfig struct {
	Enabled bool `koanf:"enabled"`
	// Days of raw events to keep. Must cover at least one full day so
	// the rollup always sees complete input.
	Days int `koanf:"days"`
}

// NATSConfig controls the optional JetStream ingest pipeline. When
// disabled, ingestion writes synchronously to the store.
type NATSConfig struct {
	Enabled        bool          `koanf:"enabled"`
	URL            string        `koanf:"url"`
	EmbeddedServer bool          `koanf:"embedded_server"`
	StoreDir       string        `koanf:"store_dir"`
	MaxMemory      int64         `koanf:"max_memory"`
	MaxStore       int64         `koanf:"max_store"`
	RetentionDays  int           `koanf:"retention_days"`
	BatchSize      int           `koanf:"batch_size"`
	FlushInterval  time.Duration `koanf:"flush_interval"`
	Subscribers    int           `koanf:"subscribers"`
	DurableName    string        `koanf:"durable_name"`
	QueueGroup     string        `koanf:"queue_group"`
}

// WALConfig controls the Badger-backed pending store that parks events
// when the database is unavailable.
type WALConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
	// ReplayInterval is how often parked events are retried.
	ReplayInterval time.Duration `koanf:"replay_interval"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks cross-field constraints after all layers are merged.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Ingest.LivenessWindow <= 0 {
		return fmt.Errorf("ingest.liveness_window must be positive")
	}
	if c.Realtime.Window <= 0 {
		return fmt.Errorf("realtime.window must be positive")
	}
	if c.Realtime.CacheTTL > c.Realtime.Window {
		return fmt.Errorf("realtime.cache_ttl %v exceeds the realtime window %v; cached snapshots would outlive the data they summarize",
			c.Realtime.CacheTTL, c.Realtime.Window)
	}
	if c.Rollup.Hour < 0 || c.Rollup.Hour > 23 {
		return fmt.Errorf("rollup.hour %d out of range", c.Rollup.Hour)
	}
	if _, err := time.LoadLocation(c.Rollup.Timezone); err != nil {
		return fmt.Errorf("rollup.timezone %q invalid: %w", c.Rollup.Timezone, err)
	}
	if c.Retention.Enabled && c.Retention.Days < 2 {
		return fmt.Errorf("retention.days must be at least 2 so rollups see complete days")
	}
	if c.NATS.Enabled {
		if c.NATS.URL == "" && !c.NATS.EmbeddedServer {
			return fmt.Errorf("nats.url is required when nats is enabled without the embedded server")
		}
		if c.NATS.BatchSize < 1 {
			return fmt.Errorf("nats.batch_size must be at least 1")
		}
	}
	return nil
}

// RollupLocation returns the configured day-boundary timezone. Validate
// must have accepted the config first.
func (c *Config) RollupLocation() *time.Location {
	loc, err := time.LoadLocation(c.Rollup.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
