// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

// Package eventprocessor publishes and consumes product/inventory mutation
// events over NATS core pub/sub, and guards calls to the LLM, vector index,
// and knowledge-graph dependencies behind gobreaker circuit breakers.
//
// On a product write (price change, stock update, new listing), the writer
// publishes a MutationEvent to the "reco.product.mutation" subject. The
// search layer's cache-invalidation subscriber drops the affected Redis
// cache-aside keys so the next hybrid-search request re-queries the store
// instead of serving a stale result (spec: cache entries are invalidated on
// writes, not just expired on a TTL).
package eventprocessor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// MutationSubject is the NATS subject product/inventory mutations publish to.
const MutationSubject = "reco.product.mutation"

// MutationKind distinguishes the write that triggered the event.
type MutationKind string

const (
	MutationCreated MutationKind = "created"
	MutationUpdated MutationKind = "updated"
	MutationDeleted MutationKind = "deleted"
)

// MutationEvent describes a single product/inventory write.
type MutationEvent struct {
	Kind      MutationKind `json:"kind"`
	ProductID string       `json:"product_id"`
	Domain    string       `json:"domain"`
	At        time.Time    `json:"at"`
}

// Publisher publishes mutation events to NATS.
type Publisher struct {
	nc *nats.Conn
}

// NewPublisher connects to the given NATS URL with reconnect-on-failure
// enabled, matching how a transient broker restart should not be fatal to
// the writing request.
func NewPublisher(natsURL string) (*Publisher, error) {
	nc, err := nats.Connect(natsURL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &Publisher{nc: nc}, nil
}

// Publish sends a MutationEvent. Publish failures are non-fatal to the
// caller's write path: the cache entry will simply expire on its TTL instead
// of being invalidated immediately.
func (p *Publisher) Publish(event MutationEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal mutation event: %w", err)
	}
	return p.nc.Publish(MutationSubject, data)
}

// Close drains and closes the underlying connection.
func (p *Publisher) Close() error {
	return p.nc.Drain()
}

// CacheInvalidator deletes cache-aside keys affected by a mutation.
type CacheInvalidator interface {
	InvalidateProduct(ctx context.Context, domain, productID string) error
}

// CacheInvalidationService subscribes to MutationSubject and invalidates the
// affected Redis cache-aside keys. It is wired into the search layer of the
// supervisor tree.
type CacheInvalidationService struct {
	nc   *nats.Conn
	sub  *nats.Subscription
	inv  CacheInvalidator
	name string
}

// NewCacheInvalidationService creates a service that subscribes lazily in
// Serve and unsubscribes on shutdown.
func NewCacheInvalidationService(natsURL string, inv CacheInvalidator) (*CacheInvalidationService, error) {
	nc, err := nats.Connect(natsURL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &CacheInvalidationService{nc: nc, inv: inv, name: "cache-invalidation"}, nil
}

// Serve implements suture.Service: it subscribes, processes messages until
// ctx is canceled, then unsubscribes and closes the connection.
func (s *CacheInvalidationService) Serve(ctx context.Context) error {
	msgCh := make(chan *nats.Msg, 64)
	sub, err := s.nc.ChanSubscribe(MutationSubject, msgCh)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", MutationSubject, err)
	}
	s.sub = sub
	defer func() {
		_ = sub.Unsubscribe()
		s.nc.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-msgCh:
			var event MutationEvent
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				continue
			}
			_ = s.inv.InvalidateProduct(ctx, event.Domain, event.ProductID)
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (s *CacheInvalidationService) String() string {
	return s.name
}
