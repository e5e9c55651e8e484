// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package api

import (
	"time"

	"github.com/tomtom215/senergy/internal/recommend"
	"github.com/tomtom215/senergy/internal/recommend/blend"
)

// PredictionEngine is the part of recommend.Engine the handlers use.
type PredictionEngine interface {
	Predict(req blend.Request) (blend.Result, error)
	PredictBatch(reqs []blend.Request, weights *blend.Weights) ([]recommend.BatchItem, error)
	DefaultWeights() blend.Weights
	Status() recommend.Status
}

// TrainingTrigger starts a background training pass. It returns
// recommend.ErrTrainingInProgress when a pass is already running.
type TrainingTrigger interface {
	TriggerTraining() error
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers_health.go: GET /health
//   - handlers_predict.go: POST /predict, POST /batch-predict
//   - handlers_model.go: GET /model/info, POST /model/train
type Handler struct {
	engine    PredictionEngine
	trainer   TrainingTrigger
	startTime time.Time
	now       func() time.Time
}

// NewHandler creates the API handler. trainer may be nil, in which case
// POST /model/train answers 503.
func NewHandler(engine PredictionEngine, trainer TrainingTrigger) *Handler {
	return &Handler{
		engine:    engine,
		trainer:   trainer,
		startTime: time.Now(),
		now:       time.Now,
	}
}
