// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

// Crowdgauge ingests occupancy readings from edge crowd-detection
// sensors and serves per-tenant realtime snapshots, crowd levels, and
// daily history over HTTP.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/mvargas-dev/crowdgauge/internal/api"
	"github.com/mvargas-dev/crowdgauge/internal/config"
	"github.com/mvargas-dev/crowdgauge/internal/crowd"
	"github.com/mvargas-dev/crowdgauge/internal/database"
	"github.com/mvargas-dev/crowdgauge/internal/eventstream"
	"github.com/mvargas-dev/crowdgauge/internal/logging"
	"github.com/mvargas-dev/crowdgauge/internal/realtime"
	"github.com/mvargas-dev/crowdgauge/internal/rollup"
	"github.com/mvargas-dev/crowdgauge/internal/supervisor"
	"github.com/mvargas-dev/crowdgauge/internal/supervisor/services"
	"github.com/mvargas-dev/crowdgauge/internal/wal"
)

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("Fatal error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	logging.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Msg("Starting crowdgauge")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Warn().Err(err).Msg("Database close failed")
		}
	}()

	liveness := crowd.NewLiveness(cfg.Ingest.LivenessWindow)
	aggregator := realtime.New(db, liveness, cfg.Realtime.Window, cfg.Realtime.CacheTTL)
	defer aggregator.Close()

	rollupJob := rollup.NewJob(db, cfg.RollupLocation())

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	// WAL is opened before the stream so the publisher has its fallback
	// from the first event on.
	var parkLog *wal.Log
	if cfg.WAL.Enabled {
		parkLog, err = wal.Open(cfg.WAL.Path)
		if err != nil {
			return fmt.Errorf("open wal: %w", err)
		}
		defer func() {
			if err := parkLog.Close(); err != nil {
				logging.Warn().Err(err).Msg("WAL close failed")
			}
		}()
		tree.AddDataService(services.NewWALReplayService(parkLog, db, cfg.WAL.ReplayInterval))
	}

	var publisher *eventstream.Publisher
	if cfg.NATS.Enabled {
		var cleanup func()
		publisher, cleanup, err = setupStream(ctx, cfg, db, aggregator, parkLog, tree)
		if err != nil {
			return fmt.Errorf("set up event stream: %w", err)
		}
		defer cleanup()
	}

	if cfg.Rollup.Enabled {
		tree.AddPipelineService(services.NewRollupService(rollupJob, cfg.Rollup.Hour, cfg.RollupLocation()))
	}
	if cfg.Retention.Enabled {
		tree.AddDataService(services.NewRetentionService(db, cfg.Retention.Days, 0))
	}

	handler := api.NewHandler(db, aggregator, rollupJob, nil, cfg)
	if publisher != nil {
		handler.SetPublisher(publisher)
	}
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPService(httpServer, cfg.Server.ShutdownTimeout))

	err = tree.Serve(ctx)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("supervisor: %w", err)
	}

	if unstopped, rerr := tree.UnstoppedServiceReport(); rerr == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service missed shutdown deadline")
		}
	}

	logging.Info().Msg("Shutdown complete")
	return nil
}

// setupStream brings up the JetStream pipeline: embedded server (when
// configured), stream provisioning, the breaker-protected publisher,
// and the batch consumer. The returned cleanup tears the pieces down
// in reverse order.
func setupStream(ctx context.Context, cfg *config.Config, db *database.DB, aggregator *realtime.Aggregator, parkLog *wal.Log, tree *supervisor.Tree) (*eventstream.Publisher, func(), error) {
	var embedded *eventstream.EmbeddedServer

	url := cfg.NATS.URL
	if cfg.NATS.EmbeddedServer {
		serverCfg := eventstream.ServerConfigFrom(&cfg.NATS)
		var err error
		embedded, err = eventstream.NewEmbeddedServer(&serverCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("start embedded NATS: %w", err)
		}
		url = embedded.ClientURL()
		logging.Info().Str("url", url).Msg("Embedded NATS server ready")
	}

	fail := func(err error) (*eventstream.Publisher, func(), error) {
		if embedded != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = embedded.Shutdown(shutdownCtx)
		}
		return nil, nil, err
	}

	// Provision the stream before any publisher or subscriber binds to it.
	nc, err := natsgo.Connect(url,
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return fail(fmt.Errorf("connect to NATS: %w", err))
	}
	js, err := jetstream.New(nc)
	if err != nil {
		return fail(fmt.Errorf("create JetStream context: %w", err))
	}
	streamCfg := eventstream.StreamConfigFrom(&cfg.NATS)
	initializer, err := eventstream.NewStreamInitializer(js, &streamCfg)
	if err != nil {
		return fail(err)
	}
	provisionCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if _, err := initializer.EnsureStream(provisionCtx); err != nil {
		return fail(err)
	}

	wmLogger := eventstream.NewWatermillLogger()
	publisher, err := eventstream.NewPublisher(eventstream.DefaultPublisherConfig(url), wmLogger)
	if err != nil {
		return fail(err)
	}
	publisher.SetCircuitBreaker(gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "stream-publish",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}))
	if parkLog != nil {
		publisher.SetFallback(parkLog)
	}

	subCfg := eventstream.SubscriberConfigFrom(&cfg.NATS, url)
	subscriber, err := eventstream.NewSubscriber(&subCfg, wmLogger)
	if err != nil {
		return fail(err)
	}

	consumerCfg := eventstream.DefaultConsumerConfig()
	if cfg.NATS.BatchSize > 0 {
		consumerCfg.BatchSize = cfg.NATS.BatchSize
	}
	if cfg.NATS.FlushInterval > 0 {
		consumerCfg.FlushInterval = cfg.NATS.FlushInterval
	}
	consumer, err := eventstream.NewConsumer(subscriber, db, aggregator, consumerCfg)
	if err != nil {
		return fail(err)
	}
	tree.AddPipelineService(services.NewConsumerService(consumer))

	cleanup := func() {
		if err := publisher.Close(); err != nil {
			logging.Warn().Err(err).Msg("Publisher close failed")
		}
		if err := subscriber.Close(); err != nil {
			logging.Warn().Err(err).Msg("Subscriber close failed")
		}
		nc.Close()
		if embedded != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := embedded.Shutdown(shutdownCtx); err != nil {
				logging.Warn().Err(err).Msg("Embedded NATS shutdown failed")
			}
		}
	}
	return publisher, cleanup, nil
}
