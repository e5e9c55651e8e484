// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/senergy/internal/metrics"
	"github.com/tomtom215/senergy/internal/ratings"
	"github.com/tomtom215/senergy/internal/recommend"
	"github.com/tomtom215/senergy/internal/recommend/embedding"
	"github.com/tomtom215/senergy/internal/recommend/features"
	"github.com/tomtom215/senergy/internal/recommend/retrain"
)

// RetrainEngine is the part of *recommend.Engine the retrain service drives.
type RetrainEngine interface {
	// MaybeTrain consults the retrain policy before training.
	MaybeTrain(ctx context.Context, ratings []features.Rating) (retrain.Decision, *recommend.TrainResult, error)

	// Train runs a pass unconditionally.
	Train(ctx context.Context, ratings []features.Rating) (*recommend.TrainResult, error)

	IsTraining() bool
}

// RetrainServiceConfig holds configuration for the retrain service.
type RetrainServiceConfig struct {
	// TrainOnStartup consults the policy as soon as the service starts.
	TrainOnStartup bool

	// CheckInterval is how often the policy is consulted.
	// Default: 1h
	CheckInterval time.Duration

	// SourceName labels rating fetch metrics.
	SourceName string
}

// RetrainService runs the training pipeline under supervision: fetch every
// rating from the source, drop unusable rows, then train when the policy or
// an explicit trigger asks for it.
type RetrainService struct {
	engine  RetrainEngine
	source  ratings.Source
	config  RetrainServiceConfig
	logger  zerolog.Logger
	name    string
	trigger chan struct{}
	running atomic.Bool
}

// NewRetrainService creates a new retrain service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRetrainService(engine RetrainEngine, source ratings.Source, cfg RetrainServiceConfig, logger zerolog.Logger) *RetrainService {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = time.Hour
	}
	if cfg.SourceName == "" {
		cfg.SourceName = "ratings"
	}
	return &RetrainService{
		engine:  engine,
		source:  source,
		config:  cfg,
		logger:  logger.With().Str("service", "retrain").Logger(),
		name:    "retrain-service",
		trigger: make(chan struct{}, 1),
	}
}

// Serve implements suture.Service.
func (s *RetrainService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("train_on_startup", s.config.TrainOnStartup).
		Dur("check_interval", s.config.CheckInterval).
		Msg("retrain service starting")

	if s.config.TrainOnStartup {
		s.runCycle(ctx, false)
	}

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("retrain service shutting down")
			return ctx.Err()

		case <-ticker.C:
			s.runCycle(ctx, false)

		case <-s.trigger:
			s.runCycle(ctx, true)
		}
	}
}

// TriggerTraining queues a forced pass that skips the retrain policy. It
// returns recommend.ErrTrainingInProgress when a pass is running or already
// queued.
func (s *RetrainService) TriggerTraining() error {
	if s.running.Load() || s.engine.IsTraining() {
		return recommend.ErrTrainingInProgress
	}
	select {
	case s.trigger <- struct{}{}:
		s.logger.Info().Msg("training pass queued")
		return nil
	default:
		return recommend.ErrTrainingInProgress
	}
}

// RunOnce executes one pipeline cycle synchronously. force skips the policy.
func (s *RetrainService) RunOnce(ctx context.Context, force bool) (*recommend.TrainResult, error) {
	s.running.Store(true)
	defer s.running.Store(false)

	rs, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	if force {
		return s.engine.Train(ctx, rs)
	}
	_, res, err := s.engine.MaybeTrain(ctx, rs)
	return res, err
}

func (s *RetrainService) runCycle(ctx context.Context, force bool) {
	res, err := s.RunOnce(ctx, force)
	switch {
	case err == nil && res == nil:
		// Policy declined; the engine already logged the decision.
	case err == nil:
		s.logger.Info().Str("version", res.Version).Bool("forced", force).Msg("training cycle complete")
	case errors.Is(err, embedding.ErrInsufficientData):
		s.logger.Warn().Err(err).Msg("not enough ratings to train yet")
	case errors.Is(err, recommend.ErrTrainingInProgress):
		s.logger.Debug().Msg("training already running; cycle skipped")
	case ctx.Err() != nil:
		s.logger.Debug().Err(err).Msg("training cycle interrupted by shutdown")
	default:
		s.logger.Error().Err(err).Bool("forced", force).Msg("training cycle failed")
	}
}

func (s *RetrainService) fetch(ctx context.Context) ([]features.Rating, error) {
	start := time.Now()
	raw, err := s.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch ratings: %w", err)
	}

	clean, dropped := ratings.Clean(raw)
	metrics.RecordRatingFetch(s.config.SourceName, len(clean), dropped, time.Since(start))
	if dropped > 0 {
		s.logger.Warn().Int("dropped", dropped).Msg("dropped unusable ratings")
	}
	s.logger.Debug().Int("ratings", len(clean)).Msg("ratings fetched")
	return clean, nil
}

// String returns the service name for logging.
func (s *RetrainService) String() string {
	return s.name
}
