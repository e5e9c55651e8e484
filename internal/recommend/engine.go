// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package recommend

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/senergy/internal/cache"
	"github.com/tomtom215/senergy/internal/recommend/blend"
	"github.com/tomtom215/senergy/internal/recommend/embedding"
	"github.com/tomtom215/senergy/internal/recommend/features"
	"github.com/tomtom215/senergy/internal/recommend/retrain"
	"github.com/tomtom215/senergy/internal/recommend/storage"
)

// Engine owns the published model snapshot and serves blended predictions.
// It is safe for concurrent use.
//
// Predictions load the snapshot pointer once per call and never lock.
// Training builds the next snapshot off to the side, saves it, and only then
// publishes it with a single atomic store.
type Engine struct {
	config *Config
	logger zerolog.Logger

	trainer *embedding.Trainer
	blender *blend.Blender
	policy  retrain.Policy
	store   storage.ModelStore

	snapshot atomic.Pointer[embedding.Snapshot]

	// trainMu serializes training passes; statusMu guards status.
	trainMu  sync.Mutex
	statusMu sync.RWMutex
	status   TrainingStatus

	cache    *cache.LRU[blend.Result]
	observer Observer
	now      func() time.Time
}

// NewEngine creates a prediction engine persisting snapshots to store.
// No model is loaded; call LoadFromStore or Train.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, store storage.ModelStore, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if store == nil {
		return nil, errors.New("model store is required")
	}

	logger = logger.With().Str("component", "recommend").Logger()

	trainer, err := embedding.NewTrainer(cfg.Architecture, cfg.Training, logger)
	if err != nil {
		return nil, fmt.Errorf("create trainer: %w", err)
	}

	e := &Engine{
		config:   cfg.Clone(),
		logger:   logger,
		trainer:  trainer,
		blender:  blend.NewBlender(cfg.Weights),
		policy:   cfg.Retrain,
		store:    store,
		observer: nopObserver{},
		now:      time.Now,
	}
	if cfg.Cache.Enabled {
		e.cache = cache.NewLRU[blend.Result](cfg.Cache.MaxEntries, cfg.Cache.TTL)
	}
	return e, nil
}

// SetObserver registers an observer for engine events. Call before serving.
func (e *Engine) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	e.observer = o
}

// LoadFromStore publishes the stored snapshot. Failure is recoverable: the
// engine keeps serving heuristic-only predictions and the error is returned
// for the caller to report.
func (e *Engine) LoadFromStore(ctx context.Context) error {
	snap, err := e.store.Load(ctx)
	if err != nil {
		var pe *storage.PersistenceError
		switch {
		case errors.As(err, &pe):
			e.logger.Warn().Err(err).Msg("stored model is damaged; starting without a model")
		case errors.Is(err, storage.ErrModelNotFound):
			e.logger.Info().Msg("no saved model found; starting without a model")
		default:
			e.logger.Warn().Err(err).Msg("failed to load saved model; starting without a model")
		}
		return err
	}

	e.publish(snap)
	return nil
}

// Snapshot returns the published snapshot, or nil.
func (e *Engine) Snapshot() *embedding.Snapshot {
	return e.snapshot.Load()
}

// ModelLoaded reports whether a snapshot is published.
func (e *Engine) ModelLoaded() bool {
	return e.snapshot.Load() != nil
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.config.Clone()
}

// DefaultWeights returns the weights applied when a request carries none.
func (e *Engine) DefaultWeights() blend.Weights {
	return e.blender.Defaults()
}

// Predict blends the heuristic and model scores for one request.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Predict(req blend.Request) (blend.Result, error) {
	if err := e.validate(req, ""); err != nil {
		return blend.Result{}, err
	}
	return e.predictWith(e.snapshot.Load(), req), nil
}

// PredictBatch blends every request against one snapshot. weights applies to
// every item; nil means the configured defaults. Only an empty or oversized
// batch, or an invalid item, is rejected.
func (e *Engine) PredictBatch(reqs []blend.Request, weights *blend.Weights) ([]BatchItem, error) {
	if len(reqs) == 0 {
		return nil, &ValidationError{Fields: []string{"predictions must not be empty"}}
	}
	if len(reqs) > e.config.Limits.MaxBatchSize {
		return nil, &ValidationError{Fields: []string{
			fmt.Sprintf("predictions has %d items, limit is %d", len(reqs), e.config.Limits.MaxBatchSize),
		}}
	}

	verr := &ValidationError{}
	if weights != nil {
		if err := weights.Validate(); err != nil {
			verr.add("%v", err)
		}
	}
	for i := range reqs {
		var item *ValidationError
		if errors.As(e.validate(reqs[i], fmt.Sprintf("predictions[%d].", i)), &item) {
			verr.Fields = append(verr.Fields, item.Fields...)
		}
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	snap := e.snapshot.Load()
	out := make([]BatchItem, len(reqs))
	for i := range reqs {
		req := reqs[i]
		req.Weights = weights
		out[i] = BatchItem{
			UserID:  req.UserID,
			PlaceID: req.PlaceID,
			Result:  e.predictWith(snap, req),
		}
	}
	return out, nil
}

//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) validate(req blend.Request, prefix string) error {
	verr := &ValidationError{}
	if req.UserID == "" {
		verr.add("%suserId is required", prefix)
	}
	if req.PlaceID == "" {
		verr.add("%splaceId is required", prefix)
	}
	if req.Weights != nil {
		if err := req.Weights.Validate(); err != nil {
			verr.add("%s%v", prefix, err)
		}
	}
	if n := len(req.SimilarRatings); n > e.config.Limits.MaxSimilarRatings {
		verr.add("%ssimilarUsersRatings has %d items, limit is %d", prefix, n, e.config.Limits.MaxSimilarRatings)
	}
	u, p := &req.User, &req.Place
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"userFeatures.adjustmentFactor", u.AdjustmentFactor},
		{"userFeatures.avgRating", u.AvgRating},
		{"placeFeatures.avgScore", p.AvgScore},
		{"placeFeatures.avgCrowdSize", p.AvgCrowdSize},
		{"placeFeatures.avgNoiseLevel", p.AvgNoiseLevel},
		{"placeFeatures.avgSocialEnergy", p.AvgSocialEnergy},
		{"placeFeatures.avgService", p.AvgService},
		{"placeFeatures.avgAtmosphere", p.AvgAtmosphere},
	} {
		if !finite(f.value) {
			verr.add("%s%s must be a finite number", prefix, f.name)
		}
	}
	if u.TotalRatings < 0 {
		verr.add("%suserFeatures.totalRatings must not be negative", prefix)
	}
	if p.TotalRatings < 0 {
		verr.add("%splaceFeatures.totalRatings must not be negative", prefix)
	}
	return verr.orNil()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) predictWith(snap *embedding.Snapshot, req blend.Request) blend.Result {
	start := e.now()

	var key string
	if e.cache != nil {
		key = cacheKey(snap, req)
	}
	if key != "" {
		if res, ok := e.cache.Get(key); ok {
			e.observer.ObservePrediction(res.Method, true, e.now().Sub(start))
			return res
		}
	}

	var model blend.Model
	if snap != nil {
		model = snap
	}
	res := e.blender.Blend(model, req)

	if res.ModelErr != nil && snap != nil {
		e.observer.ObserveModelFallback(res.ModelErr)
		e.logger.Debug().
			Err(res.ModelErr).
			Str("user_id", req.UserID).
			Str("place_id", req.PlaceID).
			Msg("model unavailable for prediction; using heuristic only")
	}

	if key != "" {
		e.cache.Add(key, res)
	}
	e.observer.ObservePrediction(res.Method, false, e.now().Sub(start))
	return res
}

// cacheKey binds a request to the snapshot that would answer it. An empty
// key disables caching for the request.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func cacheKey(snap *embedding.Snapshot, req blend.Request) string {
	version := ""
	if snap != nil {
		version = snap.Version()
	}
	data, err := json.Marshal(req)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return version + "|" + hex.EncodeToString(sum[:])
}

// Train runs a training pass on ratings, saves the result and publishes it.
// Nothing is published when any stage fails. Returns ErrTrainingInProgress
// immediately if another pass is running.
func (e *Engine) Train(ctx context.Context, ratings []features.Rating) (*TrainResult, error) {
	if !e.trainMu.TryLock() {
		return nil, ErrTrainingInProgress
	}
	defer e.trainMu.Unlock()

	start := e.now()
	e.statusMu.Lock()
	e.status.IsTraining = true
	e.status.LastStartedAt = start
	e.statusMu.Unlock()

	e.logger.Info().Int("ratings", len(ratings)).Msg("starting model training")

	ctx, cancel := context.WithTimeout(ctx, e.config.Limits.TrainingTimeout)
	defer cancel()

	res, err := e.train(ctx, ratings, start)
	elapsed := e.now().Sub(start)

	e.statusMu.Lock()
	e.status.IsTraining = false
	e.status.LastDurationMS = elapsed.Milliseconds()
	if err != nil {
		e.status.LastError = err.Error()
	} else {
		e.status.LastError = ""
		e.status.LastCompletedAt = e.now()
		e.status.Runs++
	}
	e.statusMu.Unlock()

	e.observer.ObserveTraining(res, err, elapsed)
	if err != nil {
		e.logger.Error().Err(err).Dur("elapsed", elapsed).Msg("model training failed")
		return nil, err
	}

	e.logger.Info().
		Str("version", res.Version).
		Int("epochs", res.Epochs).
		Float64("final_loss", res.FinalLoss).
		Float64("final_val_loss", res.FinalValLoss).
		Int64("duration_ms", res.DurationMS).
		Msg("model training complete")
	return res, nil
}

func (e *Engine) train(ctx context.Context, ratings []features.Rating, start time.Time) (*TrainResult, error) {
	prev := e.snapshot.Load()

	snap, history, err := e.trainer.Train(ctx, prev, ratings)
	if err != nil {
		return nil, err
	}

	if err := e.store.Save(ctx, snap); err != nil {
		return nil, &embedding.TrainingError{Stage: embedding.StageSave, Err: err}
	}

	e.publish(snap)

	res := &TrainResult{
		Version:      snap.Version(),
		Ratings:      len(ratings),
		Epochs:       len(history.Epochs),
		BestEpoch:    history.BestEpoch,
		StoppedEarly: history.StoppedEarly,
		DurationMS:   e.now().Sub(start).Milliseconds(),
	}
	// Epochs are numbered from 1.
	if i := history.BestEpoch - 1; i >= 0 && i < len(history.Epochs) {
		best := history.Epochs[i]
		res.FinalLoss = best.Loss
		res.FinalValLoss = best.ValLoss
	}
	return res, nil
}

// MaybeTrain consults the retrain policy and trains only when it says so.
// A rating set below the configured minimum is rejected before the policy is
// consulted.
func (e *Engine) MaybeTrain(ctx context.Context, ratings []features.Rating) (retrain.Decision, *TrainResult, error) {
	if minRatings := e.config.Training.MinRatings; len(ratings) < minRatings {
		return retrain.Decision{}, nil, &embedding.TrainingError{
			Stage: embedding.StageValidate,
			Err:   fmt.Errorf("%w: have %d, need %d", embedding.ErrInsufficientData, len(ratings), minRatings),
		}
	}

	snap := e.snapshot.Load()
	var meta *embedding.Metadata
	if snap != nil {
		m := snap.Metadata()
		meta = &m
	}

	d := e.policy.ShouldRetrain(meta, snap != nil, len(ratings), e.now())
	e.statusMu.Lock()
	e.status.LastDecision = &d
	e.statusMu.Unlock()
	e.observer.ObserveRetrainDecision(d)

	if !d.Retrain {
		e.logger.Info().Stringer("decision", d).Msg("model is up to date; skipping training")
		return d, nil, nil
	}

	e.logger.Info().Stringer("decision", d).Msg("retraining model")
	res, err := e.Train(ctx, ratings)
	return d, res, err
}

// IsTraining reports whether a pass is running.
func (e *Engine) IsTraining() bool {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	return e.status.IsTraining
}

// Status returns a consistent view of the published model and training state.
func (e *Engine) Status() Status {
	e.statusMu.RLock()
	training := e.status
	e.statusMu.RUnlock()

	st := Status{
		Architecture: e.config.Architecture.Clone(),
		Training:     training,
	}
	if e.cache != nil {
		cs := e.cache.Stats()
		st.Cache = &cs
	}

	snap := e.snapshot.Load()
	if snap == nil {
		return st
	}

	meta := snap.Metadata()
	st.ModelLoaded = true
	st.Version = snap.Version()
	st.TotalSamplesSeen = meta.TotalSamplesSeen
	st.EpochsCompleted = meta.EpochsCompleted
	st.KnownUsers = snap.KnownUsers()
	st.KnownPlaces = snap.KnownPlaces()
	st.ParameterCount = snap.ParameterCount()
	st.Architecture = snap.Architecture()
	if meta.HasTrained() {
		lt := meta.LastTrained
		st.LastTrained = &lt
	}
	return st
}

// publish makes snap visible to new predictions.
func (e *Engine) publish(snap *embedding.Snapshot) {
	e.snapshot.Store(snap)
	if e.cache != nil {
		e.cache.Clear()
	}
	e.observer.ObserveSnapshot(snap)

	meta := snap.Metadata()
	e.logger.Info().
		Str("version", snap.Version()).
		Int("users", snap.KnownUsers()).
		Int("places", snap.KnownPlaces()).
		Int("total_samples", meta.TotalSamplesSeen).
		Time("last_trained", meta.LastTrained).
		Msg("published model snapshot")
}
