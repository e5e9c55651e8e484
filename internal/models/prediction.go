// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package models

import (
	"github.com/tomtom215/senergy/internal/recommend/blend"
	"github.com/tomtom215/senergy/internal/recommend/features"
	"github.com/tomtom215/senergy/internal/recommend/heuristic"
)

// UserFeaturesInput is the user aggregate as sent by callers. Every field is
// required; a pointer distinguishes an absent field from a zero value.
type UserFeaturesInput struct {
	AdjustmentFactor *float64 `json:"adjustmentFactor" validate:"required"`
	PersonalityType  *string  `json:"personalityType" validate:"required"`
	TotalRatings     *int     `json:"totalRatings" validate:"required"`
	AvgRating        *float64 `json:"avgRating" validate:"required"`
}

// Aggregate returns the validated features as a user aggregate.
func (f *UserFeaturesInput) Aggregate() features.UserAggregate {
	return features.UserAggregate{
		AdjustmentFactor: deref(f.AdjustmentFactor),
		PersonalityType:  deref(f.PersonalityType),
		TotalRatings:     deref(f.TotalRatings),
		AvgRating:        deref(f.AvgRating),
	}
}

// PlaceFeaturesInput is the place aggregate as sent by callers. Every field
// is required.
type PlaceFeaturesInput struct {
	AvgScore        *float64 `json:"avgScore" validate:"required"`
	AvgCrowdSize    *float64 `json:"avgCrowdSize" validate:"required"`
	AvgNoiseLevel   *float64 `json:"avgNoiseLevel" validate:"required"`
	AvgSocialEnergy *float64 `json:"avgSocialEnergy" validate:"required"`
	AvgService      *float64 `json:"avgService" validate:"required"`
	AvgAtmosphere   *float64 `json:"avgAtmosphere" validate:"required"`
	TotalRatings    *int     `json:"totalRatings" validate:"required"`
}

// Aggregate returns the validated features as a place aggregate.
func (f *PlaceFeaturesInput) Aggregate() features.PlaceAggregate {
	return features.PlaceAggregate{
		AvgScore:        deref(f.AvgScore),
		AvgCrowdSize:    deref(f.AvgCrowdSize),
		AvgNoiseLevel:   deref(f.AvgNoiseLevel),
		AvgSocialEnergy: deref(f.AvgSocialEnergy),
		AvgService:      deref(f.AvgService),
		AvgAtmosphere:   deref(f.AvgAtmosphere),
		TotalRatings:    deref(f.TotalRatings),
	}
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// PredictionInput identifies one user-place pair and the features the
// caller computed for it.
type PredictionInput struct {
	UserID              string                    `json:"userId" validate:"required,identifier"`
	PlaceID             string                    `json:"placeId" validate:"required,identifier"`
	UserFeatures        *UserFeaturesInput        `json:"userFeatures" validate:"required"`
	PlaceFeatures       *PlaceFeaturesInput       `json:"placeFeatures" validate:"required"`
	SimilarUsersRatings []heuristic.SimilarRating `json:"similarUsersRatings,omitempty"`
}

// PredictRequest is the body of POST /predict.
type PredictRequest struct {
	UserID              string                    `json:"userId" validate:"required,identifier"`
	PlaceID             string                    `json:"placeId" validate:"required,identifier"`
	UserFeatures        *UserFeaturesInput        `json:"userFeatures" validate:"required"`
	PlaceFeatures       *PlaceFeaturesInput       `json:"placeFeatures" validate:"required"`
	SimilarUsersRatings []heuristic.SimilarRating `json:"similarUsersRatings,omitempty"`
	HeuristicWeight     *float64                  `json:"heuristicWeight,omitempty"`
	MLWeight            *float64                  `json:"mlWeight,omitempty"`
}

// BatchPredictRequest is the body of POST /batch-predict. The weights apply
// to every item.
type BatchPredictRequest struct {
	Predictions     []PredictionInput `json:"predictions" validate:"required,min=1,dive"`
	HeuristicWeight *float64          `json:"heuristicWeight,omitempty"`
	MLWeight        *float64          `json:"mlWeight,omitempty"`
}

// overrideWeights returns nil when neither weight was supplied, so the
// engine applies its configured defaults. A single supplied weight is
// completed from defaults.
func overrideWeights(h, m *float64, defaults blend.Weights) *blend.Weights {
	if h == nil && m == nil {
		return nil
	}
	w := defaults
	if h != nil {
		w.Heuristic = *h
	}
	if m != nil {
		w.Model = *m
	}
	return &w
}

// ToBlendRequest converts a validated input.
func (in *PredictionInput) ToBlendRequest() blend.Request {
	req := blend.Request{
		UserID:         in.UserID,
		PlaceID:        in.PlaceID,
		SimilarRatings: in.SimilarUsersRatings,
	}
	if in.UserFeatures != nil {
		req.User = in.UserFeatures.Aggregate()
	}
	if in.PlaceFeatures != nil {
		req.Place = in.PlaceFeatures.Aggregate()
	}
	return req
}

// ToBlendRequest converts a validated request, applying weight overrides.
func (r *PredictRequest) ToBlendRequest(defaults blend.Weights) blend.Request {
	in := PredictionInput{
		UserID:              r.UserID,
		PlaceID:             r.PlaceID,
		UserFeatures:        r.UserFeatures,
		PlaceFeatures:       r.PlaceFeatures,
		SimilarUsersRatings: r.SimilarUsersRatings,
	}
	req := in.ToBlendRequest()
	req.Weights = overrideWeights(r.HeuristicWeight, r.MLWeight, defaults)
	return req
}

// ToBlendRequests converts every item and returns the batch-wide weights.
func (r *BatchPredictRequest) ToBlendRequests(defaults blend.Weights) ([]blend.Request, *blend.Weights) {
	reqs := make([]blend.Request, len(r.Predictions))
	for i := range r.Predictions {
		reqs[i] = r.Predictions[i].ToBlendRequest()
	}
	return reqs, overrideWeights(r.HeuristicWeight, r.MLWeight, defaults)
}

// PredictResponse is the body of a successful POST /predict.
type PredictResponse struct {
	Success    bool          `json:"success"`
	Prediction *blend.Result `json:"prediction"`
}

// BatchPrediction is one item of a batch response.
type BatchPrediction struct {
	UserID     string        `json:"userId"`
	PlaceID    string        `json:"placeId"`
	Prediction *blend.Result `json:"prediction"`
}

// BatchPredictResponse is the body of a successful POST /batch-predict.
type BatchPredictResponse struct {
	Success     bool              `json:"success"`
	Predictions []BatchPrediction `json:"predictions"`
	Count       int               `json:"count"`
}
