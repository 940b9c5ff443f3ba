// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package services

import (
	"context"
	"time"

	"github.com/mvargas-dev/crowdgauge/internal/logging"
)

// EventPruner is the slice of database.DB the retention loop needs.
type EventPruner interface {
	PruneEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionService deletes raw events older than the retention period.
// Daily summaries are a separate table and are never touched; pruned
// history stays queryable through them.
type RetentionService struct {
	store    EventPruner
	keepDays int
	interval time.Duration
}

// NewRetentionService prunes events older than keepDays, checking every
// interval (default 6h).
func NewRetentionService(store EventPruner, keepDays int, interval time.Duration) *RetentionService {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &RetentionService{store: store, keepDays: keepDays, interval: interval}
}

// Serve implements suture.Service.
func (s *RetentionService) Serve(ctx context.Context) error {
	logger := logging.WithComponent("retention")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		cutoff := time.Now().UTC().AddDate(0, 0, -s.keepDays)
		deleted, err := s.store.PruneEventsBefore(ctx, cutoff)
		if err != nil {
			logger.Error().Err(err).Msg("Retention prune failed")
			continue
		}
		if deleted > 0 {
			logger.Info().
				Int64("deleted", deleted).
				Time("cutoff", cutoff).
				Msg("Pruned expired events")
		}
	}
}

func (s *RetentionService) String() string {
	return "retention"
}
