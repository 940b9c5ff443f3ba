// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package rollup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mvargas-dev/crowdgauge/internal/logging"
	"github.com/mvargas-dev/crowdgauge/internal/metrics"
	"github.com/mvargas-dev/crowdgauge/internal/models"
)

// ErrOpenDate is returned when a rollup is requested for today or a
// future date. Only closed days are archived; an open day would produce
// a summary that silently goes stale as more events arrive.
var ErrOpenDate = errors.New("rollup date is not closed yet")

// Store is the slice of the database the job needs.
type Store interface {
	ListTenants(ctx context.Context) ([]models.Tenant, error)
	GetEventsInWindow(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]models.AnalysisEvent, error)
	UpsertDailySummary(ctx context.Context, summary *models.DailySummary) error
}

// Job runs batch rollups across all tenants.
type Job struct {
	store Store
	loc   *time.Location

	// now is swappable in tests.
	now func() time.Time
}

// NewJob creates a rollup job using loc for day boundaries.
func NewJob(store Store, loc *time.Location) *Job {
	if loc == nil {
		loc = time.UTC
	}
	return &Job{store: store, loc: loc, now: time.Now}
}

// RunTenant recomputes and upserts one tenant's summary for the date.
// Returns (false, nil) when the tenant had no events that day: nothing
// is written and any recompute stays idempotent.
func (j *Job) RunTenant(ctx context.Context, tenantID uuid.UUID, date time.Time) (bool, error) {
	if err := j.ensureClosed(date); err != nil {
		return false, err
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, j.loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	events, err := j.store.GetEventsInWindow(ctx, tenantID, dayStart.UTC(), dayEnd.UTC())
	if err != nil {
		return false, fmt.Errorf("failed to load events: %w", err)
	}

	summary := Compute(tenantID, date, j.loc, events)
	if summary == nil {
		return false, nil
	}

	if err := j.store.UpsertDailySummary(ctx, summary); err != nil {
		return false, fmt.Errorf("failed to store summary: %w", err)
	}
	return true, nil
}

// Run rolls up every tenant for the date. Tenants are strictly
// isolated: a failure is recorded in the report and the run continues
// with the next tenant. The returned error is non-nil only when the run
// could not start at all (open date, tenant listing failure).
func (j *Job) Run(ctx context.Context, date time.Time) (*models.RollupReport, error) {
	if err := j.ensureClosed(date); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { metrics.RollupDuration.Observe(time.Since(start).Seconds()) }()

	tenants, err := j.store.ListTenants(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}

	report := &models.RollupReport{
		Date:      date.Format(models.DateFormat),
		StartedAt: start.UTC(),
	}

	for i := range tenants {
		tenant := &tenants[i]
		wrote, err := j.RunTenant(ctx, tenant.ID, date)
		switch {
		case err != nil:
			report.Failed++
			report.Failures = append(report.Failures, models.RollupFailure{
				TenantID: tenant.ID,
				Error:    err.Error(),
			})
			metrics.RollupTenantFailures.Inc()
			logging.Ctx(ctx).Error().Err(err).
				Str("tenant_id", tenant.ID.String()).
				Str("date", report.Date).
				Msg("Tenant rollup failed")
		case wrote:
			report.Succeeded++
		default:
			report.Skipped++
		}
	}

	report.FinishedAt = time.Now().UTC()

	result := "complete"
	if report.Failed > 0 {
		result = "partial"
	}
	metrics.RollupRunsTotal.WithLabelValues(result).Inc()

	logging.Ctx(ctx).Info().
		Str("date", report.Date).
		Int("succeeded", report.Succeeded).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Msg("Rollup run finished")
	return report, nil
}

// Yesterday returns the most recent closed date in the job's timezone.
func (j *Job) Yesterday() time.Time {
	now := j.now().In(j.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, j.loc).AddDate(0, 0, -1)
}

// ensureClosed rejects dates whose day has not ended in the job's
// timezone.
func (j *Job) ensureClosed(date time.Time) error {
	now := j.now().In(j.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, j.loc)
	requested := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, j.loc)
	if !requested.Before(today) {
		return fmt.Errorf("%w: %s", ErrOpenDate, requested.Format(models.DateFormat))
	}
	return nil
}
