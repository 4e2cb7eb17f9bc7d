// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

// Package api provides chi-based HTTP routing and the standardized response
// envelope for the conversational recommendation service.
package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// Response is the standardized response wrapper returned by every endpoint.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// Error represents an error response body.
type Error struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// Meta carries response metadata.
type Meta struct {
	RequestID  string    `json:"request_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMs int64     `json:"duration_ms,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeOK writes a successful envelope with data.
func writeOK(w http.ResponseWriter, requestID string, start time.Time, data interface{}) {
	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    data,
		Meta: &Meta{
			RequestID:  requestID,
			Timestamp:  time.Now().UTC(),
			DurationMs: time.Since(start).Milliseconds(),
		},
	})
}

// errorStatus maps an ErrorKind string to an HTTP status code. Unknown kinds
// fall back to 500, matching the "typed failures surfaced as INVALID with a
// user-facing message" rule for failures with no defined status.
func errorStatus(kind string) int {
	switch kind {
	case "INVALID", "VALIDATION":
		return http.StatusBadRequest
	case "NOT_FOUND":
		return http.StatusNotFound
	case "RATE_LIMITED":
		return http.StatusTooManyRequests
	case "LLM_FAILURE", "TRANSIENT_STORAGE":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes a failed envelope. kind is the ErrorKind; code is the
// machine-readable error code surfaced to the caller.
func writeError(w http.ResponseWriter, requestID string, start time.Time, kind, code, message string) {
	writeJSON(w, errorStatus(kind), Response{
		Success: false,
		Error: &Error{
			Code:      code,
			Message:   message,
			RequestID: requestID,
		},
		Meta: &Meta{
			RequestID:  requestID,
			Timestamp:  time.Now().UTC(),
			DurationMs: time.Since(start).Milliseconds(),
		},
	})
}
