// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

// Package llm provides an optional structured-output LLM client in front of
// internal/agent's rule-based parsing and internal/narrator's rule-based
// comparison narration. A Client is entirely optional: every caller must
// keep working with it absent (ErrUnavailable), since rule-based parsing and
// narration are the system's real behavior, not a fallback bolted on for
// when an LLM happens to be down.
package llm

import (
	"context"
	"errors"
)

// ErrUnavailable is returned by a Client that cannot currently serve a
// completion: no provider configured, circuit open, or rate limited.
var ErrUnavailable = errors.New("llm: unavailable")

// Message is one turn of a chat completion request.
type Message struct {
	Role    string // "system" or "user"
	Content string
}

// CompletionRequest asks for a JSON-object completion: the caller supplies
// the schema contract in the system prompt and parses Text as JSON itself,
// following the ancestor's response_format={"type":"json_object"} contract.
type CompletionRequest struct {
	Messages []Message
}

// CompletionResult is a successful completion.
type CompletionResult struct {
	Text string
}

// Client is the interface every LLM-backed feature in this package depends
// on, so callers can be built and tested against it before any real
// provider is wired, the same way internal/orchestrator depends on the
// Ranker interface rather than a concrete engine.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}

// UnavailableClient always returns ErrUnavailable. It is the zero-value
// default when no LLM provider is configured, so intent/narrator code paths
// exercise their rule-based fallback unconditionally rather than branching
// on a nil Client.
type UnavailableClient struct{}

// Complete implements Client.
func (UnavailableClient) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	return CompletionResult{}, ErrUnavailable
}
