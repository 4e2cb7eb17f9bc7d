// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

// Package session provides the hot tier of session storage: a Redis-backed
// store for in-progress interview state, keyed "reco:session:{session_id}"
// and refreshed on every read/write so an active conversation never expires
// mid-interview. Unlike internal/kg's warm tier, entries here are evicted by
// TTL and are not expected to survive a process/Redis restart — that is what
// the warm tier is for.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a session has no hot-tier record.
var ErrNotFound = errors.New("session: not found")

const keyPrefix = "reco:session:"

// Stage is the conversational phase a session is in.
type Stage string

const (
	StageInterview       Stage = "INTERVIEW"
	StageRecommendations Stage = "RECOMMENDATIONS"
	StageCheckout        Stage = "CHECKOUT"
)

// Turn is one message exchanged during the conversation, kept for LLM context
// and comparison narration.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// State is the full in-progress interview/recommendation state for one
// session.
type State struct {
	SessionID             string            `json:"session_id"`
	ActiveDomain          string            `json:"active_domain"`
	Stage                 Stage             `json:"stage"`
	ExplicitFilters       map[string]string `json:"explicit_filters"`
	Preferences           map[string]string `json:"preferences"`
	QuestionsAsked        []string          `json:"questions_asked"`
	QuestionCount         int               `json:"question_count"`
	ConversationHistory   []Turn            `json:"conversation_history"`
	FavoriteProductIDs    []string          `json:"favorite_product_ids"`
	ClickedProductIDs     []string          `json:"clicked_product_ids"`
	LastRecommendationIDs []string          `json:"last_recommendation_ids"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
}

// NewState returns a fresh session state for sessionID in the given domain.
func NewState(sessionID, domain string) *State {
	now := time.Now().UTC()
	return &State{
		SessionID:       sessionID,
		ActiveDomain:    domain,
		Stage:           StageInterview,
		ExplicitFilters: make(map[string]string),
		Preferences:     make(map[string]string),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Store is a Redis-backed hot-tier session store.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore wraps an existing Redis client. ttl is the session's sliding
// expiry, refreshed on every Save; pass 0 for the default of one hour.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{client: client, ttl: ttl}
}

// Save writes state, refreshing its TTL.
func (s *Store) Save(ctx context.Context, state *State) error {
	state.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("session: marshal state: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+state.SessionID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("session: save state: %w", err)
	}
	return nil
}

// Get retrieves a session's hot-tier state. Returns ErrNotFound if the
// session has expired or never existed in this tier (the caller should fall
// back to internal/kg's warm tier before creating a fresh session).
func (s *Store) Get(ctx context.Context, sessionID string) (*State, error) {
	data, err := s.client.Get(ctx, keyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session: get state: %w", err)
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("session: unmarshal state: %w", err)
	}
	return &state, nil
}

// Delete removes a session's hot-tier state, used on explicit reset.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, keyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("session: delete state: %w", err)
	}
	return nil
}
