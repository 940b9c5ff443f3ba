// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

// Package api is the HTTP surface: device ingest, tenant and device
// provisioning, realtime snapshots, daily summaries, rollup triggers,
// and health probes. Routing uses chi; every response travels in the
// models.APIResponse envelope with stable machine-readable error
// codes. Reads are polled; there is no push or streaming contract.
package api
