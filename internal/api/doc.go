// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

// Package api wires the chi router and HTTP handlers for the conversational
// recommendation service's external interface:
//
//	POST /api/v1/chat              — one interview/recommendation turn
//	GET  /api/v1/session/{id}       — session state snapshot
//	POST /api/v1/session/reset      — clear a session's filters/questions
//	POST /api/v1/recommend          — one-shot ranking given filters+preferences
//	POST /api/v1/recommend/compare  — the same request ranked by both engines
//	GET  /api/v1/status             — config echo + per-component preload timings
//	GET  /api/v1/health/live        — liveness probe
//	GET  /api/v1/health/ready       — readiness probe
//	GET  /metrics                   — Prometheus scrape endpoint
//
// Handlers depend only on the Orchestrator interface, not on
// internal/orchestrator directly, so the transport layer can be tested with
// a fake orchestrator and vice versa.
package api
