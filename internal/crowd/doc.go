// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

// Package crowd holds the pure classification and liveness rules.
// Nothing here touches the database or the clock; callers pass the
// sample and the current time in, which keeps every rule trivially
// testable.
package crowd
