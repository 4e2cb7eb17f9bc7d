// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

// Package services provides Suture service wrappers for various application components.
package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Refreshable is implemented by the stores that need a periodic reload from
// disk: the phrase store (tag embeddings) and the dense embedding store
// (product vectors). Both are append-mostly and cheap to rebuild wholesale.
type Refreshable interface {
	// Refresh reloads the store's data, replacing it atomically.
	Refresh(ctx context.Context) error
}

// RefreshServiceConfig holds configuration for a periodic store-refresh service.
type RefreshServiceConfig struct {
	// RefreshOnStartup triggers an initial load when the service starts.
	RefreshOnStartup bool

	// RefreshInterval is how often to reload the store.
	RefreshInterval time.Duration
}

// RefreshService wraps a Refreshable store for Suture supervision. It manages
// the initial-load and periodic-reload lifecycle for the phrase store or the
// embedding store so the storage layer can recover from a stale or partially
// written index without restarting the whole process.
type RefreshService struct {
	store  Refreshable
	config RefreshServiceConfig
	logger zerolog.Logger
	name   string
}

// NewRefreshService creates a new store-refresh service. name identifies the
// store for logging (e.g. "phrase-store", "embed-store").
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRefreshService(name string, store Refreshable, cfg RefreshServiceConfig, logger zerolog.Logger) *RefreshService {
	return &RefreshService{
		store:  store,
		config: cfg,
		logger: logger.With().Str("service", name).Logger(),
		name:   name + "-refresh",
	}
}

// Serve implements the suture.Service interface. It manages the reload loop
// for the wrapped store.
func (s *RefreshService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("refresh_on_startup", s.config.RefreshOnStartup).
		Dur("refresh_interval", s.config.RefreshInterval).
		Msg("store refresh service starting")

	if s.config.RefreshOnStartup {
		if err := s.refresh(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("initial refresh failed (will retry on schedule)")
		}
	}

	if s.config.RefreshInterval <= 0 {
		s.config.RefreshInterval = 1 * time.Hour
	}

	ticker := time.NewTicker(s.config.RefreshInterval)
	defer ticker.Stop()

	s.logger.Info().Msg("store refresh service running")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("store refresh service shutting down")
			return ctx.Err()

		case <-ticker.C:
			s.logger.Debug().Msg("scheduled refresh triggered")
			if err := s.refresh(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("scheduled refresh failed")
			}
		}
	}
}

// refresh performs a reload cycle with a bounded timeout so a stuck disk read
// can't wedge the supervisor's shutdown.
func (s *RefreshService) refresh(ctx context.Context) error {
	refreshCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	start := time.Now()
	if err := s.store.Refresh(refreshCtx); err != nil {
		return err
	}

	s.logger.Info().Dur("duration", time.Since(start)).Msg("store refresh complete")
	return nil
}

// String returns the service name for logging.
func (s *RefreshService) String() string {
	return s.name
}
