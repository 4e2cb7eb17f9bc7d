// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

// Package main is the entry point for the conversational product
// recommendation service.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered defaults, YAML file, environment (Koanf v2)
//  2. Logging: zerolog, bridged to slog for the supervisor tree
//  3. Storage: Redis hot-tier session store, BadgerDB warm-tier session
//     memory, SQLite product store, phrase/dense embedding stores
//  4. Ranking engines: coverage-risk and embedding-similarity, each built
//     over the product and embedding stores
//  5. Orchestrator: the chat state machine tying storage and ranking
//     together, with an optional LLM client (internal/llm) layered in for
//     comparison narration (internal/narrator) when LLM.Enabled
//  6. Supervisor tree: a 3-layer suture/v4 tree (storage/search/api) that
//     isolates failures in one layer from the others
//  7. HTTP server: chi router behind the api layer of the supervisor tree
//  8. NATS (optional): mutation-event cache invalidation, wired into the
//     search layer when NATS.Enabled
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM: it cancels the
// root context, the supervisor tree stops each layer in reverse order, and
// the HTTP server drains in-flight requests up to its shutdown timeout.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/productreco/backend/internal/api"
	"github.com/productreco/backend/internal/cache"
	"github.com/productreco/backend/internal/config"
	"github.com/productreco/backend/internal/db"
	"github.com/productreco/backend/internal/embedstore"
	"github.com/productreco/backend/internal/eventprocessor"
	"github.com/productreco/backend/internal/kg"
	"github.com/productreco/backend/internal/llm"
	"github.com/productreco/backend/internal/logging"
	"github.com/productreco/backend/internal/orchestrator"
	"github.com/productreco/backend/internal/phrasestore"
	"github.com/productreco/backend/internal/rank/coverage"
	"github.com/productreco/backend/internal/rank/embedding"
	"github.com/productreco/backend/internal/search"
	"github.com/productreco/backend/internal/session"
	"github.com/productreco/backend/internal/supervisor"
	"github.com/productreco/backend/internal/supervisor/services"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Init(logging.DefaultConfig())
		logging.Logger().Fatal().Err(err).Msg("failed to load configuration")
	}

	logFormat := "json"
	if cfg.Logging.Pretty {
		logFormat = "console"
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: logFormat,
	})
	logger := logging.Logger()

	logger.Info().
		Str("server_addr", cfg.Server.Addr).
		Str("method", cfg.Method).
		Int("k", cfg.K).
		Msg("starting recommendation service")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	redisClient := redis.NewClient(&redis.Options{
		Addr:        cfg.Redis.Addr,
		DialTimeout: cfg.Redis.DialTimeout,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing redis client")
		}
	}()
	hotStore := session.NewStore(redisClient, cfg.Redis.DefaultTTL)

	warmStore, err := kg.NewStore(cfg.Graph.Path, cfg.Graph.PersistThrottle)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open session-memory store")
	}
	defer func() {
		if err := warmStore.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing session-memory store")
		}
	}()

	productStore, err := db.Open(cfg.Database.Path, cfg.Database.QueryTimeout)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open product store")
	}
	defer func() {
		if err := productStore.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing product store")
		}
	}()

	phraseStore, err := phrasestore.Open(cfg.Data.PhraseEmbeddingsDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open phrase embedding store")
	}
	defer func() {
		if err := phraseStore.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing phrase embedding store")
		}
	}()

	embedStore, err := embedstore.Open(cfg.Data.FaissIndexDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open dense embedding store")
	}
	defer func() {
		if err := embedStore.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing dense embedding store")
		}
	}()

	searchIdx := search.New(productStore, cache.New(cfg.Redis.DefaultTTL))

	coverageCfg := coverage.DefaultConfig()
	coverageCfg.Mode = coverage.Mode(cfg.CoverageRisk.Mode)
	coverageCfg.LambdaRisk = cfg.CoverageRisk.LambdaRisk
	coverageCfg.Tau = cfg.CoverageRisk.Tau
	coverageCfg.Alpha = cfg.CoverageRisk.Alpha
	coverageCfg.Rho = cfg.CoverageRisk.Rho

	embeddingCfg := embedding.DefaultConfig()
	embeddingCfg.Lambda = cfg.EmbeddingSimilarity.LambdaParam

	rankers := map[string]orchestrator.Ranker{
		"coverage_risk":        coverage.New(searchIdx, phraseStore, coverageCfg),
		"embedding_similarity": embedding.New(searchIdx, embedStore, embeddingCfg),
	}

	orch := orchestrator.New(hotStore, warmStore, rankers, orchestrator.Config{
		K:       cfg.K,
		Method:  cfg.Method,
		NRows:   cfg.NRows,
		NPerRow: cfg.NPerRow,
	}, logger)
	orch.WithProductLookup(productStore)
	if cfg.LLM.Enabled {
		orch.WithLLMClient(llm.NewOpenAIClient(llm.OpenAIConfig{
			BaseURL:            cfg.LLM.BaseURL,
			APIKey:             cfg.LLM.APIKey,
			Model:              cfg.LLM.NarratorModel,
			Temperature:        cfg.LLM.Temperature,
			Timeout:            cfg.LLM.Timeout,
			RateLimitPerSecond: cfg.LLM.RateLimitPerSecond,
		}))
	}

	handler := api.NewHandler(orch, logger)
	router := api.NewRouter(handler, api.RouterConfig{
		CORSAllowedOrigins: []string{"*"},
		RateLimitRPS:       cfg.Server.RateLimitRPS,
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	slogLogger := slog.New(logging.NewSlogHandlerWithLogger(logger))
	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.DefaultTreeConfig())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create supervisor tree")
	}

	tree.AddAPIService(services.NewHTTPServerService(httpServer, cfg.Server.ShutdownTimeout))

	if cfg.NATS.Enabled {
		invalidator := &redisCacheInvalidator{client: redisClient}
		cacheSvc, err := eventprocessor.NewCacheInvalidationService(cfg.NATS.URL, invalidator)
		if err != nil {
			logger.Warn().Err(err).Msg("NATS unavailable, cache invalidation disabled")
		} else {
			tree.AddSearchService(cacheSvc)
		}
	}

	errCh := tree.ServeBackground(ctx)

	logger.Info().Str("addr", cfg.Server.Addr).Msg("server ready")

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("supervisor tree exited with error")
		}
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
		<-errCh
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, svc := range report {
			logger.Warn().Str("service", fmt.Sprintf("%v", svc.Service)).Msg("service did not stop cleanly")
		}
	}

	logger.Info().Msg("server stopped")
}

// redisCacheInvalidator deletes the cache-aside keys a hybrid-search result
// for a product was stored under, so the next read re-queries the store
// instead of serving stale data after a write (§4.3).
type redisCacheInvalidator struct {
	client *redis.Client
}

func (r *redisCacheInvalidator) InvalidateProduct(ctx context.Context, domain, productID string) error {
	pattern := "reco:search:" + domain + ":*" + productID + "*"
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}
