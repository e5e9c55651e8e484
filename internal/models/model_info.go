// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package models

import (
	"time"

	"github.com/tomtom215/senergy/internal/recommend"
	"github.com/tomtom215/senergy/internal/recommend/embedding"
)

// ModelStats summarizes the training history.
type ModelStats struct {
	TotalSamples int        `json:"total_samples"`
	LastTrained  *time.Time `json:"last_trained"`
	Epochs       int        `json:"epochs"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status      string     `json:"status"`
	ModelLoaded bool       `json:"model_loaded"`
	Training    bool       `json:"training_in_progress"`
	ModelStats  ModelStats `json:"model_stats"`
	Timestamp   time.Time  `json:"timestamp"`
}

// ModelInfo describes the loaded snapshot.
type ModelInfo struct {
	Trained          bool                   `json:"trained"`
	Version          string                 `json:"version"`
	TotalSamples     int                    `json:"total_samples"`
	LastTrained      *time.Time             `json:"last_trained"`
	EpochsCompleted  int                    `json:"epochs_completed"`
	UsersInTraining  int                    `json:"users_in_training"`
	PlacesInTraining int                    `json:"places_in_training"`
	ParameterCount   int                    `json:"parameter_count"`
	Architecture     embedding.Architecture `json:"architecture"`
}

// ModelInfoResponse is the body of GET /model/info when a model is loaded.
type ModelInfoResponse struct {
	Success  bool                     `json:"success"`
	Model    ModelInfo                `json:"model"`
	Training recommend.TrainingStatus `json:"training"`
}

// NewModelInfoResponse converts an engine status.
//
//nolint:gocritic // hugeParam: status is a read-only snapshot
func NewModelInfoResponse(st recommend.Status) *ModelInfoResponse {
	return &ModelInfoResponse{
		Success: true,
		Model: ModelInfo{
			Trained:          st.ModelLoaded,
			Version:          st.Version,
			TotalSamples:     st.TotalSamplesSeen,
			LastTrained:      st.LastTrained,
			EpochsCompleted:  st.EpochsCompleted,
			UsersInTraining:  st.KnownUsers,
			PlacesInTraining: st.KnownPlaces,
			ParameterCount:   st.ParameterCount,
			Architecture:     st.Architecture,
		},
		Training: st.Training,
	}
}

// TrainResponse is the body of an accepted POST /model/train.
type TrainResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
