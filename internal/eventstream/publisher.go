// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package eventstream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/mvargas-dev/crowdgauge/internal/metrics"
	"github.com/mvargas-dev/crowdgauge/internal/models"
)

// Park is where events go when the stream rejects them. Satisfied by
// the WAL.
type Park interface {
	Append(ctx context.Context, event any) (string, error)
}

// Publisher sends occupancy events to JetStream behind a circuit
// breaker. When the breaker is open or a publish fails, events are
// parked in the WAL instead of being dropped.
type Publisher struct {
	publisher message.Publisher
	breaker   *gobreaker.CircuitBreaker[any]
	fallback  Park
	logger    watermill.LoggerAdapter

	mu     sync.RWMutex
	closed bool
}

// NewPublisher creates a JetStream publisher with reconnect handling.
// The message ID header carries the event UUID so JetStream's
// duplicate window absorbs WAL replays of already-published events.
func NewPublisher(cfg PublisherConfig, logger watermill.LoggerAdapter) (*Publisher, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.ReconnectBufSize(cfg.ReconnectBuffer),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{
				"url": nc.ConnectedUrl(),
			})
		}),
	}

	wmConfig := wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false, // stream is pre-created by StreamInitializer
			TrackMsgId:    cfg.TrackMsgID,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}

	pub, err := wmNats.NewPublisher(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	return &Publisher{
		publisher: pub,
		logger:    logger,
	}, nil
}

// SetCircuitBreaker installs breaker protection on publishes.
func (p *Publisher) SetCircuitBreaker(cb *gobreaker.CircuitBreaker[any]) {
	p.breaker = cb
}

// SetFallback installs the park for events the stream rejects.
func (p *Publisher) SetFallback(park Park) {
	p.fallback = park
}

// Publish sends a raw message to the topic with breaker protection.
func (p *Publisher) Publish(ctx context.Context, topic string, msg *message.Message) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return fmt.Errorf("publisher is closed")
	}
	p.mu.RUnlock()

	if msg.Metadata.Get(natsgo.MsgIdHdr) == "" {
		msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)
	}

	if p.breaker != nil {
		_, err := p.breaker.Execute(func() (any, error) {
			return nil, p.publisher.Publish(topic, msg)
		})
		return err
	}
	return p.publisher.Publish(topic, msg)
}

// PublishEvent wraps the event in an envelope and publishes it. On
// failure the event is parked in the WAL when a fallback is set; the
// event is then considered accepted and a nil error is returned.
func (p *Publisher) PublishEvent(ctx context.Context, event models.AnalysisEvent) error {
	envelope := NewEnvelope(event)
	data, err := envelope.Marshal()
	if err != nil {
		return err
	}

	msg := message.NewMessage(event.ID.String(), data)
	msg.Metadata.Set("tenant_id", event.TenantID.String())
	msg.Metadata.Set("device_id", event.DeviceID)

	if err := p.Publish(ctx, envelope.Topic(), msg); err != nil {
		if p.fallback == nil {
			metrics.StreamPublishedTotal.WithLabelValues("error").Inc()
			return err
		}
		// The bare event is parked, not the envelope; replay feeds the
		// store's batch insert directly.
		if _, parkErr := p.fallback.Append(ctx, event); parkErr != nil {
			metrics.StreamPublishedTotal.WithLabelValues("error").Inc()
			return fmt.Errorf("publish failed (%v) and park failed: %w", err, parkErr)
		}
		metrics.StreamPublishedTotal.WithLabelValues("fallback").Inc()
		p.logger.Info("Event parked after publish failure", watermill.LogFields{
			"event_id": event.ID.String(),
		})
		return nil
	}

	metrics.StreamPublishedTotal.WithLabelValues("ok").Inc()
	return nil
}

// Close shuts down the publisher.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}
