// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package eventstream

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/mvargas-dev/crowdgauge/internal/logging"
	"github.com/mvargas-dev/crowdgauge/internal/metrics"
	"github.com/mvargas-dev/crowdgauge/internal/models"
)

// MessageSource abstracts the subscriber for testing.
type MessageSource interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
}

// Sink receives drained batches. Satisfied by database.DB.
type Sink interface {
	InsertEventsBatch(ctx context.Context, events []models.AnalysisEvent) (inserted, duplicates int, err error)
}

// Invalidator drops cached snapshots for tenants whose data changed.
// Satisfied by realtime.Aggregator.
type Invalidator interface {
	Invalidate(tenantID uuid.UUID)
}

// ConsumerConfig holds batch drain settings.
type ConsumerConfig struct {
	Topic         string
	BatchSize     int
	FlushInterval time.Duration
}

// DefaultConsumerConfig returns drain defaults.
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Topic:         SubjectWildcard,
		BatchSize:     500,
		FlushInterval: 2 * time.Second,
	}
}

// Consumer drains occupancy events from the stream into the database
// in batches. A batch is flushed when it reaches BatchSize or when
// FlushInterval elapses, whichever comes first.
type Consumer struct {
	source      MessageSource
	sink        Sink
	invalidator Invalidator
	config      ConsumerConfig

	pending []pendingMessage
}

type pendingMessage struct {
	msg   *message.Message
	event models.AnalysisEvent
}

// NewConsumer creates a batch consumer. The invalidator may be nil.
func NewConsumer(source MessageSource, sink Sink, invalidator Invalidator, cfg ConsumerConfig) (*Consumer, error) {
	if source == nil {
		return nil, fmt.Errorf("message source required")
	}
	if sink == nil {
		return nil, fmt.Errorf("sink required")
	}
	if cfg.Topic == "" {
		cfg.Topic = SubjectWildcard
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 2 * time.Second
	}
	return &Consumer{
		source:      source,
		sink:        sink,
		invalidator: invalidator,
		config:      cfg,
	}, nil
}

// Run consumes until the context is canceled. Any accumulated batch
// is flushed before returning.
func (c *Consumer) Run(ctx context.Context) error {
	messages, err := c.source.Subscribe(ctx, c.config.Topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", c.config.Topic, err)
	}

	logging.Info().
		Str("topic", c.config.Topic).
		Int("batch_size", c.config.BatchSize).
		Dur("flush_interval", c.config.FlushInterval).
		Msg("Stream consumer started")

	ticker := time.NewTicker(c.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.flush(context.WithoutCancel(ctx))
			return ctx.Err()
		case <-ticker.C:
			c.flush(ctx)
		case msg, ok := <-messages:
			if !ok {
				c.flush(ctx)
				return nil
			}
			c.accept(msg)
			if len(c.pending) >= c.config.BatchSize {
				c.flush(ctx)
			}
		}
	}
}

// accept deserializes one message into the pending batch. Payloads
// that cannot be deserialized are acked and dropped; redelivery would
// never fix them.
func (c *Consumer) accept(msg *message.Message) {
	envelope, err := UnmarshalEnvelope(msg.Payload)
	if err != nil {
		logging.Warn().Err(err).
			Str("message_uuid", msg.UUID).
			Msg("Dropping malformed stream message")
		msg.Ack()
		return
	}
	c.pending = append(c.pending, pendingMessage{msg: msg, event: envelope.Event})
}

// flush writes the pending batch in one transaction. On success every
// message is acked; on failure every message is nacked for JetStream
// redelivery, relying on event ID dedup to keep the write idempotent.
func (c *Consumer) flush(ctx context.Context) {
	if len(c.pending) == 0 {
		return
	}
	batch := c.pending
	c.pending = nil

	events := make([]models.AnalysisEvent, len(batch))
	for i, p := range batch {
		events[i] = p.event
	}

	inserted, duplicates, err := c.sink.InsertEventsBatch(ctx, events)
	if err != nil {
		logging.Error().Err(err).
			Int("batch_size", len(batch)).
			Msg("Batch insert failed, nacking for redelivery")
		for _, p := range batch {
			p.msg.Nack()
		}
		return
	}

	for _, p := range batch {
		p.msg.Ack()
	}
	metrics.StreamConsumedTotal.Add(float64(len(batch)))

	if c.invalidator != nil {
		seen := map[uuid.UUID]struct{}{}
		for _, p := range batch {
			if _, ok := seen[p.event.TenantID]; ok {
				continue
			}
			seen[p.event.TenantID] = struct{}{}
			c.invalidator.Invalidate(p.event.TenantID)
		}
	}

	logging.Debug().
		Int("inserted", inserted).
		Int("duplicates", duplicates).
		Msg("Stream batch flushed")
}
