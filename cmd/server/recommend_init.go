// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/senergy/internal/api"
	"github.com/tomtom215/senergy/internal/config"
	"github.com/tomtom215/senergy/internal/metrics"
	"github.com/tomtom215/senergy/internal/ratings"
	"github.com/tomtom215/senergy/internal/recommend"
	"github.com/tomtom215/senergy/internal/recommend/storage"
	"github.com/tomtom215/senergy/internal/supervisor/services"
)

// RecommendComponents holds the prediction engine and its collaborators.
type RecommendComponents struct {
	Engine  *recommend.Engine
	Store   storage.ModelStore
	Source  ratings.Source
	Service *services.RetrainService
}

// Close releases the model store and rating source.
func (c *RecommendComponents) Close() error {
	var firstErr error
	if c.Source != nil {
		if err := c.Source.Close(); err != nil {
			firstErr = fmt.Errorf("close rating source: %w", err)
		}
	}
	if err := c.Store.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close model store: %w", err)
	}
	return firstErr
}

// Trainer returns the training trigger for the HTTP API, or nil when no
// rating source is available.
func (c *RecommendComponents) Trainer() api.TrainingTrigger {
	if c.Service == nil {
		return nil
	}
	return c.Service
}

// initRecommend opens the model store, builds the engine and loads the last
// published model. A missing or unreadable model is not fatal: the engine
// serves heuristic-only predictions until the first pass completes. An
// unreachable rating source is not fatal either; the retrain service is
// simply not created.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func initRecommend(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*RecommendComponents, error) {
	store, err := storage.Open(cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("open model store: %w", err)
	}

	engine, err := recommend.NewEngine(cfg.EngineConfig(), store, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("create engine: %w", err)
	}
	engine.SetObserver(metrics.EngineObserver{})

	if err := engine.LoadFromStore(ctx); err != nil {
		logger.Warn().Err(err).Msg("no usable model in store; serving heuristic-only predictions")
	}

	comps := &RecommendComponents{Engine: engine, Store: store}

	src, err := ratings.Open(ctx, cfg.Ratings, logger)
	if err != nil {
		logger.Error().Err(err).
			Str("kind", string(cfg.Ratings.Kind)).
			Msg("rating source unavailable; scheduled retraining disabled")
		return comps, nil
	}
	comps.Source = src
	comps.Service = services.NewRetrainService(engine, src, services.RetrainServiceConfig{
		TrainOnStartup: cfg.Recommend.TrainOnStartup,
		CheckInterval:  cfg.Recommend.CheckInterval,
		SourceName:     string(cfg.Ratings.Kind),
	}, logger)

	logger.Info().
		Str("store", string(cfg.Storage.Backend)).
		Str("ratings", string(cfg.Ratings.Kind)).
		Bool("model_loaded", engine.ModelLoaded()).
		Dur("check_interval", cfg.Recommend.CheckInterval).
		Msg("prediction engine initialized")
	return comps, nil
}

// buildMiddlewareConfig maps the security settings onto the HTTP middleware.
func buildMiddlewareConfig(cfg *config.Config) *api.ChiMiddlewareConfig {
	mc := api.DefaultChiMiddlewareConfig()
	if len(cfg.Security.CORSOrigins) > 0 {
		mc.CORSAllowedOrigins = cfg.Security.CORSOrigins
	}
	if cfg.Security.RateLimitReqs > 0 {
		mc.RateLimitRequests = cfg.Security.RateLimitReqs
	}
	if cfg.Security.RateLimitWindow > 0 {
		mc.RateLimitWindow = cfg.Security.RateLimitWindow
	}
	mc.RateLimitDisabled = cfg.Security.RateLimitDisabled
	if cfg.Security.MaxBodyBytes > 0 {
		mc.MaxBodyBytes = cfg.Security.MaxBodyBytes
	}
	return mc
}
