// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

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

	"github.com/tomtom215/senergy/internal/ratings"
	"github.com/tomtom215/senergy/internal/recommend/blend"
	"github.com/tomtom215/senergy/internal/recommend/embedding"
	"github.com/tomtom215/senergy/internal/recommend/retrain"
	"github.com/tomtom215/senergy/internal/recommend/storage"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/senergy/config.yaml",
	"/etc/senergy/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            5000,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			Environment:     "development",
		},
		Security: SecurityConfig{
			RateLimitReqs:     600,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
			MaxBodyBytes:      4 << 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Storage: storage.Config{
			Backend:         storage.BackendBadger,
			Path:            "./data/models",
			KeepGenerations: 2,
		},
		Ratings: ratings.DefaultConfig(),
		Recommend: RecommendConfig{
			Architecture:      embedding.DefaultArchitecture(),
			Training:          embedding.DefaultTrainOptions(),
			Weights:           blend.DefaultWeights(),
			Retrain:           retrain.DefaultPolicy(),
			CheckInterval:     time.Hour,
			TrainOnStartup:    true,
			TrainingTimeout:   30 * time.Minute,
			MaxBatchSize:      1000,
			MaxSimilarRatings: 1000,
			CacheEnabled:      true,
			CacheTTL:          5 * time.Minute,
			CacheMaxEntries:   10000,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// Precedence is ENV > File > Defaults.
func LoadWithKoanf() (*Config, error) {
	return LoadFrom(findConfigFile())
}

// LoadFrom is LoadWithKoanf with an explicit config file. An empty path
// skips the file layer.
func LoadFrom(configPath string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(DefaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
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

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
	"recommend.architecture.hidden_layers",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// This is necessary because env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
var envMappings = map[string]string{
	// Server
	"ml_api_port":            "server.port",
	"http_host":              "server.host",
	"http_timeout":           "server.timeout",
	"http_shutdown_timeout":  "server.shutdown_timeout",
	"environment":            "server.environment",
	"rate_limit_requests":    "security.rate_limit_requests",
	"rate_limit_window":      "security.rate_limit_window",
	"disable_rate_limit":     "security.rate_limit_disabled",
	"cors_origins":           "security.cors_origins",
	"max_request_body_bytes": "security.max_body_bytes",
	"log_level":              "logging.level",
	"log_format":             "logging.format",
	"log_caller":             "logging.caller",

	// Model storage
	"model_store_backend":    "storage.backend",
	"model_store_path":       "storage.path",
	"model_keep_generations": "storage.keep_generations",

	// Rating source
	"ratings_source":               "ratings.kind",
	"ratings_fetch_timeout":        "ratings.fetch_timeout",
	"mongo_uri":                    "ratings.mongo.uri",
	"mongo_database":               "ratings.mongo.database",
	"mongo_collection":             "ratings.mongo.collection",
	"mongo_connect_timeout":        "ratings.mongo.connect_timeout",
	"ratings_duckdb_path":          "ratings.duckdb.path",
	"ratings_duckdb_table":         "ratings.duckdb.table",
	"ratings_file":                 "ratings.file.path",
	"ratings_breaker_enabled":      "ratings.breaker.enabled",
	"ratings_breaker_failures":     "ratings.breaker.consecutive_failures",
	"ratings_breaker_open_timeout": "ratings.breaker.open_timeout",

	// Prediction engine
	"heuristic_weight":         "recommend.weights.heuristic",
	"ml_weight":                "recommend.weights.model",
	"retrain_min_new_samples":  "recommend.retrain.min_new_samples",
	"retrain_max_age":          "recommend.retrain.max_age",
	"retrain_check_interval":   "recommend.check_interval",
	"train_on_startup":         "recommend.train_on_startup",
	"training_timeout":         "recommend.training_timeout",
	"training_epochs":          "recommend.training.epochs",
	"training_batch_size":      "recommend.training.batch_size",
	"training_min_ratings":     "recommend.training.min_ratings",
	"training_seed":            "recommend.training.seed",
	"embedding_dim":            "recommend.architecture.embedding_dim",
	"hidden_layers":            "recommend.architecture.hidden_layers",
	"learning_rate":            "recommend.architecture.learning_rate",
	"max_batch_size":           "recommend.max_batch_size",
	"max_similar_ratings":      "recommend.max_similar_ratings",
	"prediction_cache_enabled": "recommend.cache_enabled",
	"prediction_cache_ttl":     "recommend.cache_ttl",
	"prediction_cache_size":    "recommend.cache_max_entries",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - ML_API_PORT -> server.port
//   - MONGO_URI -> ratings.mongo.uri
//   - HEURISTIC_WEIGHT -> recommend.weights.heuristic
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them
	// This prevents random environment variables from polluting config
	return ""
}
