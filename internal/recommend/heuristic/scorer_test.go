// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package heuristic

import (
	"math"
	"math/rand"
	"testing"
)

func TestScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		userAF   float64
		placeAvg float64
		similar  []SimilarRating
		expected float64
	}{
		{
			name:     "empty pool returns place average",
			userAF:   0.5,
			placeAvg: 8.0,
			expected: 8.0,
		},
		{
			name:     "empty pool clamps place average",
			userAF:   0.5,
			placeAvg: 14.0,
			expected: 10.0,
		},
		{
			name:     "only in-band rater counts",
			userAF:   0.5,
			placeAvg: 5.0,
			similar: []SimilarRating{
				{AdjustmentFactor: 0.4, OverallScore: 9},
				{AdjustmentFactor: 1.0, OverallScore: 2},
			},
			expected: 9.0,
		},
		{
			name:     "closer raters weigh more",
			userAF:   0,
			placeAvg: 5.0,
			similar: []SimilarRating{
				{AdjustmentFactor: 0, OverallScore: 10},  // weight 1
				{AdjustmentFactor: 0.15, OverallScore: 2}, // weight 0.25
			},
			expected: (10*1 + 2*0.25) / 1.25,
		},
		{
			name:     "no rater in band uses floor similarity on whole pool",
			userAF:   -1,
			placeAvg: 5.0,
			similar: []SimilarRating{
				{AdjustmentFactor: 0.5, OverallScore: 4},
				{AdjustmentFactor: 1.0, OverallScore: 8},
			},
			expected: 6.0,
		},
		{
			name:     "symmetric in-band raters",
			userAF:   0,
			placeAvg: 6.5,
			similar: []SimilarRating{
				{AdjustmentFactor: 0.25, OverallScore: 9},
				{AdjustmentFactor: -0.25, OverallScore: 9},
			},
			expected: 9.0,
		},
		{
			name:     "out of range scores are clamped",
			userAF:   0.1,
			placeAvg: 5.0,
			similar: []SimilarRating{
				{AdjustmentFactor: 0.1, OverallScore: -3},
			},
			expected: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.userAF, tt.placeAvg, tt.similar)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Score() = %f, want %f", got, tt.expected)
			}
		})
	}
}

func TestScore_BoundaryWeightFallsBackToPlaceAverage(t *testing.T) {
	t.Parallel()

	// Exactly on the band edge: similarity is zero, so every weight is zero.
	similar := []SimilarRating{{AdjustmentFactor: 0.3, OverallScore: 9}}
	if got := Score(0, 4.0, similar); got != 4.0 {
		t.Errorf("Score() = %f, want 4.0", got)
	}
}

func TestScore_AlwaysWithinScale(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		n := rng.Intn(6)
		similar := make([]SimilarRating, n)
		for j := range similar {
			similar[j] = SimilarRating{
				AdjustmentFactor: rng.Float64()*4 - 2,
				OverallScore:     rng.Float64()*40 - 15,
			}
		}
		userAF := rng.Float64()*4 - 2
		placeAvg := rng.Float64()*40 - 15

		got := Score(userAF, placeAvg, similar)
		if got < MinScore || got > MaxScore {
			t.Fatalf("Score(%f, %f, %v) = %f out of [%f, %f]", userAF, placeAvg, similar, got, MinScore, MaxScore)
		}
	}
}

func TestClamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want float64
	}{
		{0, 1},
		{1, 1},
		{5.5, 5.5},
		{10, 10},
		{11, 10},
		{math.NaN(), 1},
		{math.Inf(1), 10},
	}
	for _, tt := range tests {
		if got := Clamp(tt.in); got != tt.want {
			t.Errorf("Clamp(%f) = %f, want %f", tt.in, got, tt.want)
		}
	}
}
