// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where a config file is searched, first hit
// wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/crowdgauge/config.yaml",
	"/etc/crowdgauge/config.yml",
}

// ConfigPathEnvVar overrides the config file search.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8419,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Path:      "/data/crowdgauge.duckdb",
			MaxMemory: "1GB",
			Threads:   0, // runtime.NumCPU()
		},
		API: APIConfig{
			RateLimitReqs:   120,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
			MaxRangeDays:    366,
		},
		Ingest: IngestConfig{
			LivenessWindow:      5 * time.Minute,
			DeviceRatePerSecond: 2,
			DeviceBurst:         10,
			RequireToken:        true,
		},
		Realtime: RealtimeConfig{
			Window:   10 * time.Minute,
			CacheTTL: 5 * time.Second,
		},
		Rollup: RollupConfig{
			Enabled:  true,
			Hour:     2,
			Timezone: "UTC",
		},
		Retention: RetentionConfig{
			Enabled: true,
			Days:    90,
		},
		NATS: NATSConfig{
			Enabled:        false,
			URL:            "nats://127.0.0.1:4222",
			EmbeddedServer: true,
			StoreDir:       "/data/nats/jetstream",
			MaxMemory:      1 << 30,  // 1GB
			MaxStore:       10 << 30, // 10GB
			RetentionDays:  7,
			BatchSize:      500,
			FlushInterval:  2 * time.Second,
			Subscribers:    2,
			DurableName:    "occupancy-writer",
			QueueGroup:     "writers",
		},
		WAL: WALConfig{
			Enabled:        true,
			Path:           "/data/wal",
			ReplayInterval: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, then an optional YAML
// file, then environment variables, and validates the result.
// Precedence: ENV > file > defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated env strings.
var sliceConfigPaths = []string{
	"api.cors_origins",
}

// processSliceFields converts comma-separated strings into slices for
// the known slice paths. Env vars arrive as plain strings.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to config paths.
// Unmapped variables return "" and are skipped, so stray environment
// noise never leaks into the config.
func envTransformFunc(key string) string {
	envMappings := map[string]string{
		"http_host":             "server.host",
		"http_port":             "server.port",
		"http_timeout":          "server.timeout",
		"http_shutdown_timeout": "server.shutdown_timeout",

		"duckdb_path":       "database.path",
		"duckdb_max_memory": "database.max_memory",
		"duckdb_threads":    "database.threads",

		"api_rate_limit_requests": "api.rate_limit_reqs",
		"api_rate_limit_window":   "api.rate_limit_window",
		"cors_origins":            "api.cors_origins",
		"api_max_range_days":      "api.max_range_days",

		"liveness_window":        "ingest.liveness_window",
		"device_rate_per_second": "ingest.device_rate_per_second",
		"device_burst":           "ingest.device_burst",
		"require_device_token":   "ingest.require_token",

		"realtime_window":    "realtime.window",
		"realtime_cache_ttl": "realtime.cache_ttl",

		"rollup_enabled":  "rollup.enabled",
		"rollup_hour":     "rollup.hour",
		"rollup_timezone": "rollup.timezone",

		"retention_enabled": "retention.enabled",
		"retention_days":    "retention.days",

		"nats_enabled":        "nats.enabled",
		"nats_url":            "nats.url",
		"nats_embedded":       "nats.embedded_server",
		"nats_store_dir":      "nats.store_dir",
		"nats_max_memory":     "nats.max_memory",
		"nats_max_store":      "nats.max_store",
		"nats_retention_days": "nats.retention_days",
		"nats_batch_size":     "nats.batch_size",
		"nats_flush_interval": "nats.flush_interval",
		"nats_subscribers":    "nats.subscribers",
		"nats_durable_name":   "nats.durable_name",
		"nats_queue_group":    "nats.queue_group",

		"wal_enabled":         "wal.enabled",
		"wal_path":            "wal.path",
		"wal_replay_interval": "wal.replay_interval",

		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
