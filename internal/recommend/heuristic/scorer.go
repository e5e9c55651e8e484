// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

// Package heuristic estimates a rating from the ratings of users with a
// similar personality adjustment factor. It never fails: an empty pool falls
// back to the place average, an empty similarity band falls back to the whole
// pool, and the result is always clamped to the rating scale.
package heuristic

import (
	"math"
)

const (
	// SimilarityBand is the maximum adjustment-factor distance for a rater to
	// count as similar.
	SimilarityBand = 0.3

	// FloorSimilarity is assigned to raters outside the band. It only applies
	// when no rater is inside the band and the whole pool is used.
	FloorSimilarity = 0.5

	MinScore = 1.0
	MaxScore = 10.0
)

// SimilarRating is a rating by another user of the target place.
type SimilarRating struct {
	UserID           string  `json:"userId,omitempty"`
	AdjustmentFactor float64 `json:"userAdjustmentFactor"`
	OverallScore     float64 `json:"overallScore"`
}

// Score returns the similarity-weighted mean of the pool's scores for a user
// with adjustment factor userAF, clamped to [MinScore, MaxScore].
func Score(userAF, placeAvg float64, similar []SimilarRating) float64 {
	if len(similar) == 0 {
		return Clamp(placeAvg)
	}

	candidates := make([]SimilarRating, 0, len(similar))
	for _, r := range similar {
		if math.Abs(r.AdjustmentFactor-userAF) <= SimilarityBand {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		candidates = similar
	}

	var weighted, total float64
	for _, r := range candidates {
		w := similarity(userAF, r.AdjustmentFactor)
		w *= w
		weighted += w * r.OverallScore
		total += w
	}
	if total == 0 {
		return Clamp(placeAvg)
	}
	return Clamp(weighted / total)
}

func similarity(a, b float64) float64 {
	d := math.Abs(a - b)
	if d <= SimilarityBand {
		return 1 - d/SimilarityBand
	}
	return FloorSimilarity
}

// Clamp bounds a score to the rating scale. NaN clamps to MinScore.
func Clamp(v float64) float64 {
	if math.IsNaN(v) || v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}
