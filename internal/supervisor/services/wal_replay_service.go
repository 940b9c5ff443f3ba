// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/mvargas-dev/crowdgauge/internal/logging"
	"github.com/mvargas-dev/crowdgauge/internal/models"
	"github.com/mvargas-dev/crowdgauge/internal/wal"
)

// ReplaySource is the slice of wal.Log the replay loop needs.
type ReplaySource interface {
	Replay(ctx context.Context, fn func(context.Context, *wal.Entry) error) (drained, remaining int, err error)
}

// BatchSink accepts replayed events. The batch insert path deduplicates
// by event ID, so a parked event that already reached the store through
// the stream is silently skipped.
type BatchSink interface {
	InsertEventsBatch(ctx context.Context, events []models.AnalysisEvent) (inserted, duplicates int, err error)
}

// WALReplayService periodically drains parked events into the store.
// Events land in the WAL only while the primary write path is down, so
// most ticks find nothing to do.
type WALReplayService struct {
	log      ReplaySource
	sink     BatchSink
	interval time.Duration
}

// NewWALReplayService retries parked events every interval (default 30s).
func NewWALReplayService(log ReplaySource, sink BatchSink, interval time.Duration) *WALReplayService {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &WALReplayService{log: log, sink: sink, interval: interval}
}

// Serve implements suture.Service.
func (s *WALReplayService) Serve(ctx context.Context) error {
	logger := logging.WithComponent("wal-replay")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		drained, remaining, err := s.log.Replay(ctx, s.replayEntry)
		if err != nil {
			logger.Error().Err(err).Msg("WAL replay pass failed")
			continue
		}
		if drained > 0 || remaining > 0 {
			logger.Info().
				Int("drained", drained).
				Int("remaining", remaining).
				Msg("WAL replay pass complete")
		}
	}
}

func (s *WALReplayService) replayEntry(ctx context.Context, entry *wal.Entry) error {
	var event models.AnalysisEvent
	if err := entry.UnmarshalPayload(&event); err != nil {
		return fmt.Errorf("parked entry %s is unreadable: %w", entry.ID, err)
	}
	_, _, err := s.sink.InsertEventsBatch(ctx, []models.AnalysisEvent{event})
	return err
}

func (s *WALReplayService) String() string {
	return "wal-replay"
}
