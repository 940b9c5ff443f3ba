// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

// Package metrics defines the Prometheus collectors for the service.
// Collectors are registered via promauto at package load; the /metrics
// endpoint is mounted by the API router.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingest path.
var (
	// IngestEventsTotal counts ingestion attempts by outcome:
	// stored, queued, invalid, unknown_device, rate_limited, error.
	IngestEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crowdgauge",
		Subsystem: "ingest",
		Name:      "events_total",
		Help:      "Ingestion attempts by outcome",
	}, []string{"outcome"})

	IngestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "crowdgauge",
		Subsystem: "ingest",
		Name:      "duration_seconds",
		Help:      "End-to-end ingest handler latency",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	})
)

// Event store.
var (
	EventsStoredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "crowdgauge",
		Subsystem: "store",
		Name:      "events_stored_total",
		Help:      "Events durably written to the event log",
	})

	EventsDuplicateTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "crowdgauge",
		Subsystem: "store",
		Name:      "events_duplicate_total",
		Help:      "Events skipped as duplicates during batch insert",
	})

	DBQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "crowdgauge",
		Subsystem: "store",
		Name:      "query_duration_seconds",
		Help:      "Database operation latency by operation name",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
)

// Realtime reads.
var (
	SnapshotDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "crowdgauge",
		Subsystem: "realtime",
		Name:      "snapshot_duration_seconds",
		Help:      "Snapshot computation latency by scope (device, tenant)",
		Buckets:   prometheus.DefBuckets,
	}, []string{"scope"})

	SnapshotCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "crowdgauge",
		Subsystem: "realtime",
		Name:      "cache_hits_total",
		Help:      "Tenant snapshots served from cache",
	})

	SnapshotCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "crowdgauge",
		Subsystem: "realtime",
		Name:      "cache_misses_total",
		Help:      "Tenant snapshots recomputed from the store",
	})
)

// Rollup.
var (
	RollupRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crowdgauge",
		Subsystem: "rollup",
		Name:      "runs_total",
		Help:      "Batch rollup runs by result (complete, partial)",
	}, []string{"result"})

	RollupTenantFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "crowdgauge",
		Subsystem: "rollup",
		Name:      "tenant_failures_total",
		Help:      "Per-tenant failures across all rollup runs",
	})

	RollupDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "crowdgauge",
		Subsystem: "rollup",
		Name:      "duration_seconds",
		Help:      "Batch rollup run duration",
		Buckets:   []float64{.1, .5, 1, 5, 15, 60, 300},
	})
)

// Stream pipeline and WAL.
var (
	StreamPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crowdgauge",
		Subsystem: "stream",
		Name:      "published_total",
		Help:      "Events handed to the stream by outcome (ok, fallback, error)",
	}, []string{"outcome"})

	StreamConsumedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "crowdgauge",
		Subsystem: "stream",
		Name:      "consumed_total",
		Help:      "Events consumed from the stream",
	})

	WALPendingEvents = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "crowdgauge",
		Subsystem: "wal",
		Name:      "pending_events",
		Help:      "Events parked awaiting database replay",
	})

	WALReplayedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "crowdgauge",
		Subsystem: "wal",
		Name:      "replayed_total",
		Help:      "Parked events successfully replayed into the store",
	})
)

// HTTP API.
var (
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crowdgauge",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route pattern, and status",
	}, []string{"method", "route", "status"})

	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "crowdgauge",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route pattern",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	APIActiveRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "crowdgauge",
		Subsystem: "api",
		Name:      "active_requests",
		Help:      "In-flight HTTP requests",
	})
)

// RecordDBQuery observes one database operation.
func RecordDBQuery(operation string, start time.Time) {
	DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// RecordSnapshot observes one snapshot computation.
func RecordSnapshot(scope string, start time.Time) {
	SnapshotDuration.WithLabelValues(scope).Observe(time.Since(start).Seconds())
}
