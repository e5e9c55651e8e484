// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package metrics

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/senergy/internal/recommend"
	"github.com/tomtom215/senergy/internal/recommend/blend"
	"github.com/tomtom215/senergy/internal/recommend/embedding"
	"github.com/tomtom215/senergy/internal/recommend/retrain"
)

// EngineObserver exports engine events as Prometheus metrics.
type EngineObserver struct{}

var _ recommend.Observer = EngineObserver{}

// ObservePrediction counts one prediction.
func (EngineObserver) ObservePrediction(method blend.Method, cached bool, d time.Duration) {
	PredictionsTotal.WithLabelValues(string(method), strconv.FormatBool(cached)).Inc()
	PredictionDuration.Observe(d.Seconds())
}

// ObserveModelFallback counts a model failure that the heuristic absorbed.
func (EngineObserver) ObserveModelFallback(err error) {
	ModelFallbacks.WithLabelValues(fallbackReason(err)).Inc()
}

// ObserveTraining records the outcome of a training pass.
func (EngineObserver) ObserveTraining(res *recommend.TrainResult, err error, d time.Duration) {
	TrainingDuration.Observe(d.Seconds())
	if err != nil {
		TrainingRuns.WithLabelValues("failure").Inc()
		TrainingFailures.WithLabelValues(trainingStage(err)).Inc()
		return
	}
	TrainingRuns.WithLabelValues("success").Inc()
	if res != nil {
		TrainingLoss.WithLabelValues("train").Set(res.FinalLoss)
		TrainingLoss.WithLabelValues("validation").Set(res.FinalValLoss)
	}
}

// ObserveRetrainDecision counts a policy outcome.
func (EngineObserver) ObserveRetrainDecision(d retrain.Decision) {
	RetrainDecisions.WithLabelValues(string(d.Reason)).Inc()
}

// ObserveSnapshot updates the published-model gauges.
func (EngineObserver) ObserveSnapshot(snap *embedding.Snapshot) {
	if snap == nil {
		ModelLoaded.Set(0)
		return
	}
	meta := snap.Metadata()
	ModelLoaded.Set(1)
	ModelTotalSamples.Set(float64(meta.TotalSamplesSeen))
	ModelKnownIdentities.WithLabelValues("user").Set(float64(snap.KnownUsers()))
	ModelKnownIdentities.WithLabelValues("place").Set(float64(snap.KnownPlaces()))
	if meta.HasTrained() {
		ModelLastTrained.Set(float64(meta.LastTrained.Unix()))
	}
}

func fallbackReason(err error) string {
	var ie *embedding.InferenceError
	switch {
	case errors.As(err, &ie):
		return "inference"
	case err != nil && strings.Contains(err.Error(), "panic"):
		return "panic"
	default:
		return "other"
	}
}

func trainingStage(err error) string {
	var te *embedding.TrainingError
	if errors.As(err, &te) {
		return te.Stage
	}
	if errors.Is(err, recommend.ErrTrainingInProgress) {
		return "in_progress"
	}
	return "unknown"
}
