// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/productreco/backend/internal/middleware"
)

// RouterConfig configures the HTTP surface: CORS origins and rate limits.
type RouterConfig struct {
	CORSAllowedOrigins []string
	RateLimitRPS       int
}

// DefaultRouterConfig returns permissive defaults suitable for local
// development; production deployments should set CORSAllowedOrigins
// explicitly.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CORSAllowedOrigins: []string{"*"},
		RateLimitRPS:       20,
	}
}

// asHandlerMiddleware adapts one of internal/middleware's HandlerFunc-style
// middlewares to chi's func(http.Handler) http.Handler convention.
func asHandlerMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// NewRouter builds the chi router for every route in the conversational
// recommendation API.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	perf := middleware.NewPerformanceMonitor(1000)

	r.Use(asHandlerMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(asHandlerMiddleware(middleware.PrometheusMetrics))
	r.Use(perf.Middleware)
	r.Use(asHandlerMiddleware(middleware.Compression))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Health endpoints get a permissive rate limit so monitoring can poll
	// frequently without tripping the same budget as user-facing traffic.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(httprate.LimitByIP(1000, time.Minute))
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(cfg.RateLimitRPS*60, time.Minute))

		r.Post("/chat", h.Chat)
		r.Get("/session/{id}", h.GetSession)
		r.Post("/session/reset", h.ResetSession)
		r.Post("/recommend", h.Recommend)
		r.Post("/recommend/compare", h.RecommendCompare)
		r.Get("/status", h.Status)
		r.Get("/debug/performance", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, perf.GetStats())
		})
	})

	return r
}
