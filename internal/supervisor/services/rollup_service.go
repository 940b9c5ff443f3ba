// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package services

import (
	"context"
	"time"

	"github.com/mvargas-dev/crowdgauge/internal/logging"
	"github.com/mvargas-dev/crowdgauge/internal/models"
)

// RollupRunner is the slice of rollup.Job the scheduler needs.
type RollupRunner interface {
	Run(ctx context.Context, date time.Time) (*models.RollupReport, error)
	Yesterday() time.Time
}

// RollupService runs yesterday's rollup once a day at the configured
// local hour. A failed run is logged and retried at the next scheduled
// slot; the on-demand API endpoint covers manual recovery in between.
type RollupService struct {
	job  RollupRunner
	hour int
	loc  *time.Location

	// now is swappable in tests.
	now func() time.Time
}

// NewRollupService schedules the job at hour (0-23) in loc.
func NewRollupService(job RollupRunner, hour int, loc *time.Location) *RollupService {
	if loc == nil {
		loc = time.UTC
	}
	return &RollupService{job: job, hour: hour, loc: loc, now: time.Now}
}

// nextRun returns the next occurrence of the scheduled hour after now.
func (s *RollupService) nextRun(now time.Time) time.Time {
	local := now.In(s.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), s.hour, 0, 0, 0, s.loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Serve implements suture.Service.
func (s *RollupService) Serve(ctx context.Context) error {
	logger := logging.WithComponent("rollup-scheduler")

	for {
		next := s.nextRun(s.now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		date := s.job.Yesterday()
		report, err := s.job.Run(ctx, date)
		if err != nil {
			logger.Error().Err(err).
				Str("date", date.Format(models.DateFormat)).
				Msg("Scheduled rollup failed")
			continue
		}
		logger.Info().
			Str("date", report.Date).
			Int("succeeded", report.Succeeded).
			Int("skipped", report.Skipped).
			Int("failed", report.Failed).
			Msg("Scheduled rollup complete")
	}
}

func (s *RollupService) String() string {
	return "rollup-scheduler"
}
