// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package services

import (
	"context"
	"errors"
	"fmt"
)

// StreamConsumer matches eventstream.Consumer's run loop.
type StreamConsumer interface {
	Run(ctx context.Context) error
}

// ConsumerService runs the stream consumer under supervision. The
// consumer flushes its pending batch before returning on cancellation,
// so a supervised restart never drops acknowledged messages.
type ConsumerService struct {
	consumer StreamConsumer
}

func NewConsumerService(consumer StreamConsumer) *ConsumerService {
	return &ConsumerService{consumer: consumer}
}

// Serve implements suture.Service.
func (s *ConsumerService) Serve(ctx context.Context) error {
	if err := s.consumer.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return ctx.Err()
		}
		return fmt.Errorf("stream consumer failed: %w", err)
	}
	return nil
}

func (s *ConsumerService) String() string {
	return "stream-consumer"
}
