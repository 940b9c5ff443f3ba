// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package database

import (
	"errors"
	"io"

	"github.com/rs/zerolog"

	"github.com/mvargas-dev/crowdgauge/internal/logging"
)

// Sentinel errors. Callers distinguish these with errors.Is when
// mapping to API error codes; UNKNOWN_DEVICE and TENANT_NOT_FOUND are
// distinct failures and must never collapse into each other.
var (
	// ErrUnknownDevice means the device ID is not registered to any
	// tenant.
	ErrUnknownDevice = errors.New("device not registered")

	// ErrTenantNotFound means the tenant ID does not exist.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrDeviceExists means the device ID is already registered.
	ErrDeviceExists = errors.New("device already registered")

	// ErrSummaryNotFound means no daily summary row exists for the
	// requested (tenant, date). Absence of a row is "no data for that
	// day", not an internal failure.
	ErrSummaryNotFound = errors.New("no summary for that date")
)

// closeQuietly closes a resource ignoring any error. For cleanup paths
// where the original error is already being returned.
func closeQuietly(c io.Closer) {
	_ = c.Close()
}

// closeWithLog closes a resource and logs a warning on failure.
func closeWithLog(c io.Closer, logger *zerolog.Logger, resourceType string) {
	if err := c.Close(); err != nil {
		if logger == nil {
			logging.Warn().Err(err).Str("resource", resourceType).Msg("Failed to close resource")
			return
		}
		logger.Warn().Err(err).Str("resource", resourceType).Msg("Failed to close resource")
	}
}
