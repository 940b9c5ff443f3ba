// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

// Package eventstream moves occupancy events through NATS JetStream.
//
// When the stream is enabled, the ingest path publishes each accepted
// event instead of writing it to DuckDB inline. A durable consumer
// group drains the stream in batches and persists them with a single
// transaction per batch, which keeps high-frequency sensor bursts off
// the request path.
//
// The pipeline:
//
//	ingest → Publisher (circuit breaker) → JetStream → Consumer → DuckDB
//	              ↓ (breaker open / publish error)
//	            WAL park for later replay
//
// The package also runs an embedded NATS server for single-node
// deployments so no external broker is required.
package eventstream
