// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

// Package database owns the embedded DuckDB store: schema creation,
// tenant and device CRUD, the append-only event log, and the daily
// summary archive.
//
// All timestamps are stored in UTC. The event log is never updated in
// place; retention pruning is the only deletion path.
package database
