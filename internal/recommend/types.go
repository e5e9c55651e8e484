// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package recommend

import (
	"time"

	"github.com/tomtom215/senergy/internal/cache"
	"github.com/tomtom215/senergy/internal/recommend/blend"
	"github.com/tomtom215/senergy/internal/recommend/embedding"
	"github.com/tomtom215/senergy/internal/recommend/retrain"
)

// BatchItem is one blended prediction in a batch response.
type BatchItem struct {
	UserID  string `json:"userId"`
	PlaceID string `json:"placeId"`
	blend.Result
}

// TrainResult describes a successful training pass.
type TrainResult struct {
	// Version is the identifier of the published snapshot.
	Version string `json:"version"`

	// Ratings is the size of the rating set trained on.
	Ratings int `json:"ratings"`

	// Epochs is the number of epochs run in this pass.
	Epochs int `json:"epochs"`

	// BestEpoch is the epoch whose weights were kept.
	BestEpoch int `json:"best_epoch"`

	// StoppedEarly reports whether early stopping ended the pass.
	StoppedEarly bool `json:"stopped_early"`

	// FinalLoss and FinalValLoss are the metrics of the best epoch.
	FinalLoss    float64 `json:"final_loss"`
	FinalValLoss float64 `json:"final_val_loss"`

	// DurationMS is the wall time including the save.
	DurationMS int64 `json:"duration_ms"`
}

// TrainingStatus represents the current training state.
type TrainingStatus struct {
	// IsTraining indicates whether a pass is in progress.
	IsTraining bool `json:"is_training"`

	// LastStartedAt is when the most recent pass started.
	LastStartedAt time.Time `json:"last_started_at,omitempty"`

	// LastCompletedAt is when the most recent pass finished successfully.
	LastCompletedAt time.Time `json:"last_completed_at,omitempty"`

	// LastDurationMS is how long the most recent pass took.
	LastDurationMS int64 `json:"last_duration_ms"`

	// LastError contains the error of the most recent pass, if any.
	LastError string `json:"last_error,omitempty"`

	// LastDecision is the most recent retrain policy outcome.
	LastDecision *retrain.Decision `json:"last_decision,omitempty"`

	// Runs is the number of successful passes since start.
	Runs int64 `json:"runs"`
}

// Status is a read-only view of the engine.
type Status struct {
	ModelLoaded      bool                   `json:"model_loaded"`
	Version          string                 `json:"version,omitempty"`
	TotalSamplesSeen int                    `json:"total_samples"`
	LastTrained      *time.Time             `json:"last_trained"`
	EpochsCompleted  int                    `json:"epochs_completed"`
	KnownUsers       int                    `json:"users_in_training"`
	KnownPlaces      int                    `json:"places_in_training"`
	ParameterCount   int                    `json:"parameter_count"`
	Architecture     embedding.Architecture `json:"architecture"`
	Training         TrainingStatus         `json:"training"`
	Cache            *cache.Stats           `json:"cache,omitempty"`
}

// Observer receives engine events. internal/metrics implements it.
type Observer interface {
	ObservePrediction(method blend.Method, cached bool, d time.Duration)
	ObserveModelFallback(err error)
	ObserveTraining(res *TrainResult, err error, d time.Duration)
	ObserveRetrainDecision(d retrain.Decision)
	ObserveSnapshot(snap *embedding.Snapshot)
}

type nopObserver struct{}

func (nopObserver) ObservePrediction(blend.Method, bool, time.Duration) {}
func (nopObserver) ObserveModelFallback(error) {}
func (nopObserver) ObserveTraining(*TrainResult, error, time.Duration) {}
func (nopObserver) ObserveRetrainDecision(retrain.Decision) {}
func (nopObserver) ObserveSnapshot(*embedding.Snapshot) {}
