// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package api

import (
	"context"
	"time"

	"github.com/mvargas-dev/crowdgauge/internal/config"
	"github.com/mvargas-dev/crowdgauge/internal/database"
	"github.com/mvargas-dev/crowdgauge/internal/models"
	"github.com/mvargas-dev/crowdgauge/internal/realtime"
	"github.com/mvargas-dev/crowdgauge/internal/rollup"
)

// EventPublisher hands accepted events to the stream pipeline.
// Satisfied by eventstream.Publisher; nil means direct append.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event models.AnalysisEvent) error
}

// Handler carries the dependencies shared by all endpoints.
type Handler struct {
	db         *database.DB
	aggregator *realtime.Aggregator
	rollupJob  *rollup.Job
	publisher  EventPublisher
	cfg        *config.Config
	limiters   *deviceLimiters
	started    time.Time

	// now is swappable in tests.
	now func() time.Time
}

// NewHandler wires the endpoint dependencies. publisher may be nil;
// events then go straight to the database.
func NewHandler(db *database.DB, aggregator *realtime.Aggregator, rollupJob *rollup.Job, publisher EventPublisher, cfg *config.Config) *Handler {
	return &Handler{
		db:         db,
		aggregator: aggregator,
		rollupJob:  rollupJob,
		publisher:  publisher,
		cfg:        cfg,
		limiters:   newDeviceLimiters(cfg.Ingest.DeviceRatePerSecond, cfg.Ingest.DeviceBurst),
		started:    time.Now(),
		now:        time.Now,
	}
}

// SetPublisher swaps the stream publisher after construction. Used at
// startup when the stream comes up after the HTTP surface is built.
func (h *Handler) SetPublisher(p EventPublisher) {
	h.publisher = p
}
