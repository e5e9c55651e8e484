// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package config

import (
	"fmt"
	"strings"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	if err := c.validateLogging(); err != nil {
		return err
	}

	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	if err := c.Ratings.Validate(); err != nil {
		return fmt.Errorf("ratings: %w", err)
	}

	return c.validateRecommend()
}

// validateServer validates HTTP server configuration
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("ML_API_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %v", c.Server.Timeout)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("HTTP_SHUTDOWN_TIMEOUT must be positive, got %v", c.Server.ShutdownTimeout)
	}
	switch c.Server.Environment {
	case "development", "staging", "production":
		return nil
	default:
		return fmt.Errorf("ENVIRONMENT must be development, staging or production, got %q", c.Server.Environment)
	}
}

// validateSecurity validates rate limiting and body limits
func (c *Config) validateSecurity() error {
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got %d", c.Security.RateLimitReqs)
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %v", c.Security.RateLimitWindow)
		}
	}
	if c.Security.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_REQUEST_BODY_BYTES must be at least 1024, got %d", c.Security.MaxBodyBytes)
	}
	if c.Server.Environment == "production" {
		for _, origin := range c.Security.CORSOrigins {
			if origin == "*" {
				return fmt.Errorf("CORS_ORIGINS must not contain '*' in production")
			}
		}
	}
	return nil
}

// validateLogging validates the logging configuration
func (c *Config) validateLogging() error {
	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, got %q", c.Logging.Level)
	}

	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// validateRecommend validates the engine settings. The engine re-validates
// the converted config; this catches scheduler settings it never sees.
func (c *Config) validateRecommend() error {
	r := &c.Recommend
	if r.CheckInterval <= 0 {
		return fmt.Errorf("RETRAIN_CHECK_INTERVAL must be positive, got %v", r.CheckInterval)
	}
	if err := r.Architecture.Validate(); err != nil {
		return fmt.Errorf("recommend.architecture: %w", err)
	}
	if err := r.Training.Validate(); err != nil {
		return fmt.Errorf("recommend.training: %w", err)
	}
	if err := r.Weights.Validate(); err != nil {
		return fmt.Errorf("recommend.weights: %w", err)
	}
	if err := r.Retrain.Validate(); err != nil {
		return fmt.Errorf("recommend.retrain: %w", err)
	}
	if r.TrainingTimeout <= 0 {
		return fmt.Errorf("TRAINING_TIMEOUT must be positive, got %v", r.TrainingTimeout)
	}
	if r.MaxBatchSize < 1 || r.MaxSimilarRatings < 1 {
		return fmt.Errorf("MAX_BATCH_SIZE and MAX_SIMILAR_RATINGS must be positive")
	}
	if r.CacheEnabled && (r.CacheTTL <= 0 || r.CacheMaxEntries < 1) {
		return fmt.Errorf("PREDICTION_CACHE_TTL and PREDICTION_CACHE_SIZE must be positive when the cache is enabled")
	}
	return nil
}
