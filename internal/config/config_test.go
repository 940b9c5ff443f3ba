// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 8419, cfg.Server.Port)
	require.Equal(t, 5*time.Minute, cfg.Ingest.LivenessWindow)
	require.Equal(t, 10*time.Minute, cfg.Realtime.Window)
	require.False(t, cfg.NATS.Enabled)
	require.Equal(t, "UTC", cfg.Rollup.Timezone)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("REALTIME_WINDOW", "15m")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 9000, cfg.Server.Port)
	require.Equal(t, 15*time.Minute, cfg.Realtime.Window)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.API.CORSOrigins)
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 7777
rollup:
  timezone: Europe/Berlin
  hour: 3
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 7777, cfg.Server.Port)
	require.Equal(t, "Europe/Berlin", cfg.Rollup.Timezone)
	require.Equal(t, 3, cfg.Rollup.Hour)
}

func TestEnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 7777\n"), 0o600))
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "8888")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 8888, cfg.Server.Port)
}

func TestValidateRejections(t *testing.T) {
	base := func() *Config { return defaultConfig() }

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 0 }},
		{"empty database path", func(c *Config) { c.Database.Path = "" }},
		{"zero liveness window", func(c *Config) { c.Ingest.LivenessWindow = 0 }},
		{"zero realtime window", func(c *Config) { c.Realtime.Window = 0 }},
		{"cache ttl beyond window", func(c *Config) { c.Realtime.CacheTTL = time.Hour }},
		{"rollup hour out of range", func(c *Config) { c.Rollup.Hour = 24 }},
		{"bad timezone", func(c *Config) { c.Rollup.Timezone = "Mars/Olympus" }},
		{"retention too short", func(c *Config) { c.Retention.Days = 1 }},
		{"nats without url or embedded", func(c *Config) {
			c.NATS.Enabled = true
			c.NATS.EmbeddedServer = false
			c.NATS.URL = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestEnvTransformSkipsUnknown(t *testing.T) {
	require.Equal(t, "", envTransformFunc("PATH"))
	require.Equal(t, "", envTransformFunc("HOME"))
	require.Equal(t, "server.port", envTransformFunc("HTTP_PORT"))
}
