// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	requestIDKey     contextKey = "request_id"
	correlationIDKey contextKey = "correlation_id"
)

// GenerateRequestID returns a new request ID (full UUID).
func GenerateRequestID() string {
	return uuid.New().String()
}

// GenerateCorrelationID returns a short correlation ID, the first 8
// characters of a UUID, enough for grepping logs by hand.
func GenerateCorrelationID() string {
	return uuid.New().String()[:8]
}

// ContextWithRequestID returns a context carrying the given request ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext retrieves the request ID, or "" when absent.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithCorrelationID returns a context carrying the given
// correlation ID.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationIDFromContext retrieves the correlation ID, or "" when
// absent.
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// Ctx returns a logger with request and correlation IDs from the
// context attached. This is the standard way to log inside handlers and
// services.
//
//	logging.Ctx(ctx).Info().Msg("event stored")
func Ctx(ctx context.Context) *zerolog.Logger {
	logger := Logger()
	logCtx := logger.With()
	if id := RequestIDFromContext(ctx); id != "" {
		logCtx = logCtx.Str("request_id", id)
	}
	if id := CorrelationIDFromContext(ctx); id != "" {
		logCtx = logCtx.Str("correlation_id", id)
	}
	l := logCtx.Logger()
	return &l
}

// WithComponent creates a child logger tagged with a component field.
//
//	rollupLog := logging.WithComponent("rollup")
func WithComponent(component string) zerolog.Logger {
	return With().Str("component", component).Logger()
}
