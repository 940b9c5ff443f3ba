// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package eventstream

import (
	"time"

	"github.com/mvargas-dev/crowdgauge/internal/config"
)

// PublisherConfig holds publisher connection settings.
type PublisherConfig struct {
	URL             string
	MaxReconnects   int
	ReconnectWait   time.Duration
	ReconnectBuffer int
	TrackMsgID      bool
}

// DefaultPublisherConfig returns production publisher defaults.
func DefaultPublisherConfig(url string) PublisherConfig {
	return PublisherConfig{
		URL:             url,
		MaxReconnects:   -1,
		ReconnectWait:   2 * time.Second,
		ReconnectBuffer: 8 * 1024 * 1024,
		TrackMsgID:      true,
	}
}

// SubscriberConfig holds durable consumer settings.
type SubscriberConfig struct {
	URL              string
	DurableName      string
	QueueGroup       string
	SubscribersCount int
	AckWaitTimeout   time.Duration
	MaxDeliver       int
	MaxAckPending    int
	CloseTimeout     time.Duration
	MaxReconnects    int
	ReconnectWait    time.Duration

	// StreamName binds the subscriber to a pre-created stream. Needed
	// because the consumer topic is a wildcard and NATS stream names
	// cannot contain wildcards, so AutoProvision would fail.
	StreamName string
}

// SubscriberConfigFrom builds subscriber settings from app config.
func SubscriberConfigFrom(cfg *config.NATSConfig, url string) SubscriberConfig {
	return SubscriberConfig{
		URL:              url,
		DurableName:      cfg.DurableName,
		QueueGroup:       cfg.QueueGroup,
		SubscribersCount: cfg.Subscribers,
		AckWaitTimeout:   30 * time.Second,
		MaxDeliver:       5,
		MaxAckPending:    1000,
		CloseTimeout:     30 * time.Second,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
		StreamName:       StreamName,
	}
}

// StreamConfig defines the occupancy event stream.
type StreamConfig struct {
	Name            string
	Subjects        []string
	MaxAge          time.Duration
	MaxBytes        int64
	MaxMsgs         int64
	DuplicateWindow time.Duration
	Replicas        int
}

// StreamConfigFrom builds the stream definition from app config.
func StreamConfigFrom(cfg *config.NATSConfig) StreamConfig {
	return StreamConfig{
		Name:            StreamName,
		Subjects:        []string{SubjectWildcard},
		MaxAge:          time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		MaxBytes:        cfg.MaxStore,
		MaxMsgs:         -1,
		DuplicateWindow: 2 * time.Minute,
		Replicas:        1,
	}
}

// ServerConfig holds embedded NATS server settings.
type ServerConfig struct {
	Host              string
	Port              int
	StoreDir          string
	JetStreamMaxMem   int64
	JetStreamMaxStore int64
}

// ServerConfigFrom builds embedded server settings from app config.
// Port -1 lets the server pick a free port; ClientURL reports it.
func ServerConfigFrom(cfg *config.NATSConfig) ServerConfig {
	return ServerConfig{
		Host:              "127.0.0.1",
		Port:              -1,
		StoreDir:          cfg.StoreDir,
		JetStreamMaxMem:   cfg.MaxMemory,
		JetStreamMaxStore: cfg.MaxStore,
	}
}
