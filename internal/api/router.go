// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mvargas-dev/crowdgauge/internal/middleware"
)

// NewRouter builds the full HTTP surface. The ingest endpoint carries
// its own per-device token bucket, so the shared per-IP limiter applies
// only to query routes.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(chimiddleware.Timeout(h.cfg.Server.Timeout))

	if len(h.cfg.API.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.cfg.API.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
			ExposedHeaders:   []string{"ETag", middleware.RequestIDHeader},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Device write path. Per-device rate limiting happens inside the
		// handler where the device ID is known.
		r.Post("/events", h.IngestEvent)

		r.Get("/health/live", h.HealthLive)
		r.Get("/health/ready", h.HealthReady)

		// Query surface, bounded per client IP.
		r.Group(func(r chi.Router) {
			if h.cfg.API.RateLimitReqs > 0 {
				window := h.cfg.API.RateLimitWindow
				if window <= 0 {
					window = time.Minute
				}
				r.Use(httprate.LimitByIP(h.cfg.API.RateLimitReqs, window))
			}

			r.Route("/tenants", func(r chi.Router) {
				r.Post("/", h.CreateTenant)
				r.Get("/", h.ListTenants)

				r.Route("/{tenantID}", func(r chi.Router) {
					r.Get("/", h.GetTenant)
					r.Get("/devices", h.ListDevices)
					r.Get("/realtime", h.TenantRealtime)
					r.Get("/summaries", h.GetDailySummaries)
					r.Get("/summaries/hourly", h.GetHourlyStats)
					r.Get("/summaries/{date}", h.GetDailySummary)
					r.Post("/rollup", h.TriggerTenantRollup)
				})
			})

			r.Route("/devices", func(r chi.Router) {
				r.Post("/", h.RegisterDevice)
				r.Route("/{deviceID}", func(r chi.Router) {
					r.Get("/realtime", h.DeviceRealtime)
					r.Post("/activate", h.ActivateDevice)
					r.Post("/deactivate", h.DeactivateDevice)
				})
			})

			r.Post("/rollup", h.TriggerRollup)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, codeNotFound, "no such endpoint", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, codeValidation, "method not allowed", nil)
	})

	return r
}
