// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

// Package kg provides the warm tier of session storage: a BadgerDB-backed
// "session memory" store that durably persists the interview state (filled
// preference slots, conversation turns, recommendation history) behind the
// hot Redis tier. Unlike Redis, entries here survive a process restart and
// are never evicted by a TTL.
//
// Persistence is throttled to at most once every 30 seconds per session: the
// interview loop calls Persist on every turn, but only the first call in a
// given 30-second window for a session actually writes to BadgerDB. This
// keeps a chatty interview from generating a write per message while still
// recovering the bulk of the session if the hot tier is lost.
package kg

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// ErrMemoryNotFound is returned when a session has no warm-tier record.
var ErrMemoryNotFound = errors.New("kg: session memory not found")

const sessionKeyPrefix = "session-memory:"

// SessionMemory is the durable projection of a session's interview state.
type SessionMemory struct {
	SessionID      string            `json:"session_id"`
	Domain         string            `json:"domain"`
	ExplicitFilters map[string]string `json:"explicit_filters"`
	Preferences    map[string]string `json:"preferences"`
	AskedSlots     []string          `json:"asked_slots"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Store is a BadgerDB-backed warm session-memory store with a per-session
// persist throttle.
type Store struct {
	db        *badger.DB
	throttle  time.Duration
	mu        sync.Mutex
	lastWrite map[string]time.Time
}

// NewStore opens (or creates) a BadgerDB store at path. throttle is the
// minimum interval between persisted writes for a single session; pass 0 for
// the default of 30 seconds.
func NewStore(path string, throttle time.Duration) (*Store, error) {
	if throttle <= 0 {
		throttle = 30 * time.Second
	}
	opts := badger.DefaultOptions(path)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("kg: open badger store: %w", err)
	}
	return &Store{db: db, throttle: throttle, lastWrite: make(map[string]time.Time)}, nil
}

// Close closes the underlying BadgerDB handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Persist writes mem to the warm tier unless a write for mem.SessionID
// happened within the throttle window, in which case it is silently skipped.
// Returns whether a write actually occurred.
func (s *Store) Persist(ctx context.Context, mem *SessionMemory) (bool, error) {
	s.mu.Lock()
	now := time.Now()
	last, ok := s.lastWrite[mem.SessionID]
	if ok && now.Sub(last) < s.throttle {
		s.mu.Unlock()
		return false, nil
	}
	s.lastWrite[mem.SessionID] = now
	s.mu.Unlock()

	mem.UpdatedAt = now
	data, err := json.Marshal(mem)
	if err != nil {
		return false, fmt.Errorf("kg: marshal session memory: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(sessionKeyPrefix+mem.SessionID), data)
	})
	if err != nil {
		return false, fmt.Errorf("kg: persist session memory: %w", err)
	}
	return true, nil
}

// Get retrieves a session's warm-tier memory, used to recover interview
// state when the hot Redis tier has evicted or never held the session.
func (s *Store) Get(ctx context.Context, sessionID string) (*SessionMemory, error) {
	var mem SessionMemory
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(sessionKeyPrefix + sessionID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrMemoryNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &mem)
		})
	})
	if err != nil {
		return nil, err
	}
	return &mem, nil
}

// Delete removes a session's warm-tier memory, used when a session ends
// (checkout completes or the domain switches and the prior session is torn
// down).
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.lastWrite, sessionID)
	s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(sessionKeyPrefix + sessionID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}
