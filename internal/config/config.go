// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package config

import (
	"net"
	"strconv"
	"time"

	"github.com/tomtom215/senergy/internal/ratings"
	"github.com/tomtom215/senergy/internal/recommend/blend"
	"github.com/tomtom215/senergy/internal/recommend/embedding"
	"github.com/tomtom215/senergy/internal/recommend/retrain"
	"github.com/tomtom215/senergy/internal/recommend/storage"
)

// Config holds all application configuration loaded from defaults, an
// optional YAML file and environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: Override any setting via environment variables
//
// Configuration Categories:
//
//  1. Prediction:
//     - Recommend: network architecture, training schedule, blend weights,
//     retrain thresholds, request limits and prediction cache
//     - Storage: where trained model generations are persisted
//     - Ratings: where training passes read the rating history
//
//  2. Serving:
//     - Server: HTTP listener
//     - Security: CORS and rate limiting
//
//  3. Observability:
//     - Logging: Log levels and output formats
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal("Failed to load config:", err)
//	}
//	store, err := storage.Open(cfg.Storage, logger)
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
	Storage   storage.Config  `koanf:"storage"`
	Ratings   ratings.Config  `koanf:"ratings"`
	Recommend RecommendConfig `koanf:"recommend"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // Environment mode: "development", "staging", "production" (default: "development")
}

// SecurityConfig holds request admission settings. The service has no
// authentication; it is an internal scoring backend.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`

	// MaxBodyBytes bounds request bodies.
	// Default: 4 MiB
	MaxBodyBytes int64 `koanf:"max_body_bytes"`
}

// LoggingConfig holds logging configuration.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false - include caller file:line (default: false)
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// JSON is recommended for production (structured, machine-parseable).
	// Console is human-readable for development.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	// Adds slight performance overhead.
	// Default: false
	Caller bool `koanf:"caller"`
}

// RecommendConfig holds prediction engine and training scheduler settings.
//
// Environment Variables:
//   - HEURISTIC_WEIGHT, ML_WEIGHT: default blend weights (default: 0.7, 0.3)
//   - RETRAIN_MIN_NEW_SAMPLES: new ratings that trigger a pass (default: 50)
//   - RETRAIN_MAX_AGE: model age that triggers a pass (default: 168h)
//   - RETRAIN_CHECK_INTERVAL: how often the policy is consulted (default: 1h)
//   - TRAIN_ON_STARTUP: consult the policy once at startup (default: true)
//   - TRAINING_EPOCHS, TRAINING_BATCH_SIZE, TRAINING_MIN_RATINGS
type RecommendConfig struct {
	Architecture embedding.Architecture `koanf:"architecture"`
	Training     embedding.TrainOptions `koanf:"training"`
	Weights      blend.Weights          `koanf:"weights"`
	Retrain      retrain.Policy         `koanf:"retrain"`

	// CheckInterval is how often the retrain service consults the policy.
	// Default: 1h
	CheckInterval time.Duration `koanf:"check_interval"`

	// TrainOnStartup consults the policy once as soon as the service starts.
	// Default: true
	TrainOnStartup bool `koanf:"train_on_startup"`

	// TrainingTimeout bounds one pass including the save.
	// Default: 30m
	TrainingTimeout time.Duration `koanf:"training_timeout"`

	// MaxBatchSize is the largest batch-predict request.
	// Default: 1000
	MaxBatchSize int `koanf:"max_batch_size"`

	// MaxSimilarRatings bounds similarUsersRatings per prediction.
	// Default: 1000
	MaxSimilarRatings int `koanf:"max_similar_ratings"`

	// CacheEnabled caches blended predictions per model version.
	// Default: true
	CacheEnabled bool `koanf:"cache_enabled"`

	// CacheTTL is the prediction cache entry lifetime.
	// Default: 5m
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// CacheMaxEntries bounds the prediction cache.
	// Default: 10000
	CacheMaxEntries int `koanf:"cache_max_entries"`
}

// Load loads configuration using Koanf v2.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// Addr returns the listen address.
func (s *ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
