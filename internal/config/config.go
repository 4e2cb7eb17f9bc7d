// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

// Package config loads the layered configuration for the recommendation
// service: built-in defaults, an optional YAML file, then environment
// variables, in that order of increasing precedence.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration object. Fields map 1:1 onto the
// configuration enumeration of the recommendation pipeline: interview
// depth, ranking method and its parameters, ablation flags, model names,
// data paths, and the ambient server/storage layers.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`
	Graph    GraphConfig    `koanf:"graph"`
	LLM      LLMConfig      `koanf:"llm"`
	Data     DataConfig     `koanf:"data"`
	NATS     NATSConfig     `koanf:"nats"`

	// K is the maximum number of interview questions asked before
	// recommendations are forced.
	K int `koanf:"k"`

	// Method selects the default ranking engine.
	Method string `koanf:"method"`

	NRows    int `koanf:"n_rows"`
	NPerRow  int `koanf:"n_per_row"`

	EmbeddingSimilarity EmbeddingSimilarityConfig `koanf:"embedding_similarity"`
	CoverageRisk        CoverageRiskConfig        `koanf:"coverage_risk"`
	Ablation            AblationConfig            `koanf:"ablation"`

	LatencyTargetMS int64 `koanf:"latency_target_ms"`
}

// ServerConfig configures the inbound HTTP listener.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	RateLimitRPS    int           `koanf:"rate_limit_rps"`
}

// LoggingConfig configures zerolog output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Pretty bool   `koanf:"pretty"`
}

// DatabaseConfig points at the relational product/vehicle store.
type DatabaseConfig struct {
	Path           string        `koanf:"path"`
	QueryTimeout   time.Duration `koanf:"query_timeout"`
}

// RedisConfig configures the hot session and cache-aside store.
type RedisConfig struct {
	Addr       string        `koanf:"addr"`
	DefaultTTL time.Duration `koanf:"default_ttl"`
	DialTimeout time.Duration `koanf:"dial_timeout"`
}

// GraphConfig configures the optional warm session-memory / KG store.
type GraphConfig struct {
	Enabled           bool          `koanf:"enabled"`
	Path              string        `koanf:"path"`
	PersistThrottle   time.Duration `koanf:"persist_throttle"`
}

// NATSConfig configures the mutation-event bus that invalidates cache-aside
// entries on product writes (§4.3).
type NATSConfig struct {
	Enabled bool   `koanf:"enabled"`
	URL     string `koanf:"url"`
}

// LLMConfig configures the structured-output chat provider. Enabled is
// false by default: the LLM client is an optional pre-parse/narration step
// in front of rule-based internal/agent and internal/narrator, never a
// required dependency.
type LLMConfig struct {
	Enabled                bool          `koanf:"enabled"`
	BaseURL                string        `koanf:"base_url"`
	APIKey                 string        `koanf:"api_key"`
	SemanticParserModel    string        `koanf:"semantic_parser_model"`
	QuestionGeneratorModel string        `koanf:"question_generator_model"`
	NarratorModel          string        `koanf:"narrator_model"`
	Temperature            float64       `koanf:"temperature"`
	Timeout                time.Duration `koanf:"timeout"`
	RateLimitPerSecond     float64       `koanf:"rate_limit_per_second"`
}

// DataConfig enumerates on-disk data sources.
type DataConfig struct {
	VehicleDB          string `koanf:"vehicle_db"`
	FaissIndexDir      string `koanf:"faiss_index_dir"`
	PhraseEmbeddingsDir string `koanf:"phrase_embeddings_dir"`
	ReviewsDB          string `koanf:"reviews_db"`
}

// EmbeddingSimilarityConfig parameterises the embedding-similarity + MMR
// ranker (§4.6).
type EmbeddingSimilarityConfig struct {
	LambdaParam   float64 `koanf:"lambda_param"`
	ClusterSize   int     `koanf:"cluster_size"`
	MinSimilarity float64 `koanf:"min_similarity"`
}

// CoverageRiskConfig parameterises the coverage-risk ranker (§4.5).
type CoverageRiskConfig struct {
	LambdaRisk float64 `koanf:"lambda_risk"`
	Mode       string  `koanf:"mode"` // "max" or "sum"
	Tau        float64 `koanf:"tau"`
	Alpha      float64 `koanf:"alpha"`
	Rho        float64 `koanf:"rho"` // mu-calibration scale, default 1.0
}

// AblationConfig toggles optional pipeline stages for experimentation.
type AblationConfig struct {
	UseMMRDiversification    bool `koanf:"use_mmr_diversification"`
	UseEntropyBucketing      bool `koanf:"use_entropy_bucketing"`
	UseProgressiveRelaxation bool `koanf:"use_progressive_relaxation"`
	UseEntropyQuestions      bool `koanf:"use_entropy_questions"`
}

// Validate checks invariants that the rest of the pipeline relies on
// holding (§3 Invariants, §6 configuration enumeration).
func (c *Config) Validate() error {
	if c.K <= 0 {
		return fmt.Errorf("config: k must be positive, got %d", c.K)
	}
	if c.Method != "embedding_similarity" && c.Method != "coverage_risk" {
		return fmt.Errorf("config: method must be embedding_similarity or coverage_risk, got %q", c.Method)
	}
	if c.NRows <= 0 || c.NPerRow <= 0 {
		return fmt.Errorf("config: n_rows and n_per_row must be positive")
	}
	if c.CoverageRisk.Mode != "max" && c.CoverageRisk.Mode != "sum" {
		return fmt.Errorf("config: coverage_risk.mode must be max or sum, got %q", c.CoverageRisk.Mode)
	}
	if c.EmbeddingSimilarity.LambdaParam < 0 || c.EmbeddingSimilarity.LambdaParam > 1 {
		return fmt.Errorf("config: embedding_similarity.lambda_param must be in [0,1]")
	}
	return nil
}

// Clone returns a deep copy safe for independent mutation (config is
// immutable after startup per §5; Clone exists for tests that mutate a
// scratch copy).
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
