// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package recommend

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tomtom215/senergy/internal/recommend/blend"
	"github.com/tomtom215/senergy/internal/recommend/embedding"
	"github.com/tomtom215/senergy/internal/recommend/retrain"
)

// Config contains all configuration for the prediction engine.
type Config struct {
	// Architecture is the two-tower network layout.
	Architecture embedding.Architecture `json:"architecture"`

	// Training is the per-pass training schedule.
	Training embedding.TrainOptions `json:"training"`

	// Weights are the default blend weights. Requests may override them.
	Weights blend.Weights `json:"weights"`

	// Retrain holds the volume and staleness thresholds.
	Retrain retrain.Policy `json:"retrain"`

	// Limits contains operational limits.
	Limits LimitsConfig `json:"limits"`

	// Cache contains prediction cache parameters.
	Cache CacheConfig `json:"cache"`
}

// LimitsConfig bounds request sizes and training duration.
type LimitsConfig struct {
	// MaxBatchSize is the largest accepted batch-predict request.
	// Default: 1000.
	MaxBatchSize int `json:"max_batch_size"`

	// MaxSimilarRatings is the largest similar-rating list per prediction.
	// Default: 1000.
	MaxSimilarRatings int `json:"max_similar_ratings"`

	// TrainingTimeout bounds one training pass including the save.
	// Default: 30m.
	TrainingTimeout time.Duration `json:"training_timeout"`
}

// CacheConfig contains parameters for the prediction cache.
type CacheConfig struct {
	// Enabled controls whether blended predictions are cached.
	// Default: true.
	Enabled bool `json:"enabled"`

	// TTL is the cache entry time-to-live.
	// Default: 5m.
	TTL time.Duration `json:"ttl"`

	// MaxEntries is the maximum number of cached predictions.
	// Default: 10000.
	MaxEntries int `json:"max_entries"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		Architecture: embedding.DefaultArchitecture(),
		Training:     embedding.DefaultTrainOptions(),
		Weights:      blend.DefaultWeights(),
		Retrain:      retrain.DefaultPolicy(),
		Limits: LimitsConfig{
			MaxBatchSize:      1000,
			MaxSimilarRatings: 1000,
			TrainingTimeout:   30 * time.Minute,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        5 * time.Minute,
			MaxEntries: 10000,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := c.Architecture.Validate(); err != nil {
		return fmt.Errorf("architecture: %w", err)
	}
	if err := c.Training.Validate(); err != nil {
		return fmt.Errorf("training: %w", err)
	}
	if err := c.Weights.Validate(); err != nil {
		return fmt.Errorf("weights: %w", err)
	}
	if err := c.Retrain.Validate(); err != nil {
		return fmt.Errorf("retrain: %w", err)
	}

	if c.Limits.MaxBatchSize < 1 {
		return fmt.Errorf("limits.max_batch_size must be positive, got %d", c.Limits.MaxBatchSize)
	}
	if c.Limits.MaxSimilarRatings < 1 {
		return fmt.Errorf("limits.max_similar_ratings must be positive, got %d", c.Limits.MaxSimilarRatings)
	}
	if c.Limits.TrainingTimeout <= 0 {
		return fmt.Errorf("limits.training_timeout must be positive, got %v", c.Limits.TrainingTimeout)
	}

	if c.Cache.Enabled {
		if c.Cache.TTL <= 0 {
			return fmt.Errorf("cache.ttl must be positive, got %v", c.Cache.TTL)
		}
		if c.Cache.MaxEntries < 1 {
			return fmt.Errorf("cache.max_entries must be positive, got %d", c.Cache.MaxEntries)
		}
	}

	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	return &Config{
		Architecture: c.Architecture.Clone(),
		Training:     c.Training,
		Weights:      c.Weights,
		Retrain:      c.Retrain,
		Limits:       c.Limits,
		Cache:        c.Cache,
	}
}

// MarshalJSON renders durations as strings.
func (c *Config) MarshalJSON() ([]byte, error) {
	type Alias Config
	type limits struct {
		MaxBatchSize      int    `json:"max_batch_size"`
		MaxSimilarRatings int    `json:"max_similar_ratings"`
		TrainingTimeout   string `json:"training_timeout"`
	}
	type cacheCfg struct {
		Enabled    bool   `json:"enabled"`
		TTL        string `json:"ttl"`
		MaxEntries int    `json:"max_entries"`
	}
	type policy struct {
		MinNewSamples int    `json:"min_new_samples"`
		MaxAge        string `json:"max_age"`
	}
	return json.Marshal(&struct {
		*Alias
		Retrain policy   `json:"retrain"`
		Limits  limits   `json:"limits"`
		Cache   cacheCfg `json:"cache"`
	}{
		Alias: (*Alias)(c),
		Retrain: policy{
			MinNewSamples: c.Retrain.MinNewSamples,
			MaxAge:        c.Retrain.MaxAge.String(),
		},
		Limits: limits{
			MaxBatchSize:      c.Limits.MaxBatchSize,
			MaxSimilarRatings: c.Limits.MaxSimilarRatings,
			TrainingTimeout:   c.Limits.TrainingTimeout.String(),
		},
		Cache: cacheCfg{
			Enabled:    c.Cache.Enabled,
			TTL:        c.Cache.TTL.String(),
			MaxEntries: c.Cache.MaxEntries,
		},
	})
}
