// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where a config file is searched for,
// in order of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/reco/config.yaml",
	"/etc/reco/config.yml",
}

// ConfigPathEnvVar overrides the config file search with an explicit path.
const ConfigPathEnvVar = "RECO_CONFIG"

// defaultConfig returns a Config populated with sensible defaults matching
// the configuration enumeration.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
			RateLimitRPS:    20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: false,
		},
		Database: DatabaseConfig{
			Path:         "./data/products.db",
			QueryTimeout: 2 * time.Second,
		},
		Redis: RedisConfig{
			Addr:        "127.0.0.1:6379",
			DefaultTTL:  1 * time.Hour,
			DialTimeout: 1 * time.Second,
		},
		Graph: GraphConfig{
			Enabled:         false,
			Path:            "./data/session-memory.badger",
			PersistThrottle: 30 * time.Second,
		},
		LLM: LLMConfig{
			Enabled:                false,
			BaseURL:                "https://api.openai.com/v1",
			SemanticParserModel:    "default-parser",
			QuestionGeneratorModel: "default-question-gen",
			NarratorModel:          "gpt-4o-mini",
			Temperature:            0.2,
			Timeout:                5 * time.Second,
			RateLimitPerSecond:     5,
		},
		NATS: NATSConfig{
			Enabled: false,
			URL:     "nats://127.0.0.1:4222",
		},
		Data: DataConfig{
			VehicleDB:           "./data/vehicles.db",
			FaissIndexDir:       "./data/vector-index",
			PhraseEmbeddingsDir: "./data/phrase-embeddings",
			ReviewsDB:           "./data/reviews.db",
		},
		K:       3,
		Method:  "coverage_risk",
		NRows:   3,
		NPerRow: 3,
		EmbeddingSimilarity: EmbeddingSimilarityConfig{
			LambdaParam:   0.85,
			ClusterSize:   3,
			MinSimilarity: 0.4,
		},
		CoverageRisk: CoverageRiskConfig{
			LambdaRisk: 0.5,
			Mode:       "sum",
			Tau:        0.5,
			Alpha:      1.0,
			Rho:        1.0,
		},
		Ablation: AblationConfig{
			UseMMRDiversification:    true,
			UseEntropyBucketing:      true,
			UseProgressiveRelaxation: true,
			UseEntropyQuestions:      true,
		},
		LatencyTargetMS: 400,
	}
}

// LoadWithKoanf loads configuration in three layers, in order of increasing
// precedence: built-in defaults, an optional YAML file, then environment
// variables (RECO_ prefixed, double-underscore nested, e.g.
// RECO_COVERAGE_RISK__TAU).
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider("RECO_", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file, checking the env override
// first and then DefaultConfigPaths.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransformFunc maps RECO_COVERAGE_RISK__TAU to coverage_risk.tau: the
// double underscore marks a nesting boundary, single underscore stays part
// of the field name.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, "RECO_"))
	key = strings.ReplaceAll(key, "__", ".")
	return key
}
