// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

// Package models defines the domain types shared across the service:
// tenants and their classification profiles, devices, occupancy events,
// realtime snapshots, daily summaries, and the HTTP request/response
// envelope.
//
// Types in this package carry no behavior beyond small derived-value
// helpers. Persistence lives in internal/database, aggregation in
// internal/realtime and internal/rollup.
package models
