// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Orchestrator is implemented by internal/orchestrator's chat state machine.
// The handler layer depends only on this interface so the transport and the
// conversation pipeline can be tested independently.
type Orchestrator interface {
	HandleChatTurn(ctx context.Context, req ChatRequest) (ChatResult, error)
	GetSession(ctx context.Context, sessionID string) (SessionSnapshot, error)
	ResetSession(ctx context.Context, sessionID string) (ResetResult, error)
	Recommend(ctx context.Context, req RecommendRequest) (RecommendResult, error)
	CompareRecommend(ctx context.Context, req RecommendRequest) (CompareResult, error)
	Status(ctx context.Context) (StatusResult, error)
}

// Handler holds the dependencies shared by every route.
type Handler struct {
	orchestrator Orchestrator
	logger       zerolog.Logger
}

// NewHandler builds a Handler bound to an Orchestrator implementation.
func NewHandler(orchestrator Orchestrator, logger zerolog.Logger) *Handler {
	return &Handler{orchestrator: orchestrator, logger: logger}
}

func requestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return uuid.NewString()
}

// Chat handles POST /chat.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reqID := requestID(r)

	var body ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, reqID, start, string(ErrKindValidation), "bad_request", "request body is not valid JSON")
		return
	}
	if body.Message == "" {
		writeError(w, reqID, start, string(ErrKindValidation), "missing_message", "message is required")
		return
	}

	result, err := h.orchestrator.HandleChatTurn(r.Context(), body)
	if err != nil {
		h.writeOrchestratorError(w, reqID, start, err)
		return
	}
	writeOK(w, reqID, start, result)
}

// GetSession handles GET /session/{id}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reqID := requestID(r)

	sessionID := chi.URLParam(r, "id")
	snapshot, err := h.orchestrator.GetSession(r.Context(), sessionID)
	if err != nil {
		h.writeOrchestratorError(w, reqID, start, err)
		return
	}
	writeOK(w, reqID, start, snapshot)
}

// ResetSession handles POST /session/reset.
func (h *Handler) ResetSession(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reqID := requestID(r)

	var body struct {
		SessionID string `json:"session_id,omitempty"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	result, err := h.orchestrator.ResetSession(r.Context(), body.SessionID)
	if err != nil {
		h.writeOrchestratorError(w, reqID, start, err)
		return
	}
	writeOK(w, reqID, start, result)
}

// Recommend handles POST /recommend.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reqID := requestID(r)

	var body RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, reqID, start, string(ErrKindValidation), "bad_request", "request body is not valid JSON")
		return
	}

	result, err := h.orchestrator.Recommend(r.Context(), body)
	if err != nil {
		h.writeOrchestratorError(w, reqID, start, err)
		return
	}
	writeOK(w, reqID, start, result)
}

// RecommendCompare handles POST /recommend/compare.
func (h *Handler) RecommendCompare(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reqID := requestID(r)

	var body RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, reqID, start, string(ErrKindValidation), "bad_request", "request body is not valid JSON")
		return
	}

	result, err := h.orchestrator.CompareRecommend(r.Context(), body)
	if err != nil {
		h.writeOrchestratorError(w, reqID, start, err)
		return
	}
	writeOK(w, reqID, start, result)
}

// Status handles GET /status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reqID := requestID(r)

	result, err := h.orchestrator.Status(r.Context())
	if err != nil {
		h.writeOrchestratorError(w, reqID, start, err)
		return
	}
	writeOK(w, reqID, start, result)
}

// HealthLive handles GET /health/live: the process is running.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "live"})
}

// HealthReady handles GET /health/ready: all preloaded components are ready.
// Readiness itself is reported by the orchestrator's Status, so this simply
// checks that Status succeeds at all.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if _, err := h.orchestrator.Status(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *Handler) writeOrchestratorError(w http.ResponseWriter, reqID string, start time.Time, err error) {
	var oerr *OrchestratorError
	if errors.As(err, &oerr) {
		h.logger.Warn().Str("request_id", reqID).Str("kind", string(oerr.Kind)).Err(err).Msg("orchestrator returned typed error")
		writeError(w, reqID, start, string(oerr.Kind), oerr.Code, oerr.Message)
		return
	}
	h.logger.Error().Str("request_id", reqID).Err(err).Msg("orchestrator returned unexpected error")
	writeError(w, reqID, start, string(ErrKindInvalid), "internal_error", "something went wrong, please try again")
}
