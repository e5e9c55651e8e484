// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package blend

import (
	"errors"
	"math"
	"testing"

	"github.com/tomtom215/senergy/internal/recommend/features"
	"github.com/tomtom215/senergy/internal/recommend/heuristic"
)

type fakeModel struct {
	score     float64
	err       error
	panicWith any
	users     map[string]bool
	places    map[string]bool
}

func (f *fakeModel) Predict(_, _ string, _ features.UserAggregate, _ features.PlaceAggregate) (float64, error) {
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	return f.score, f.err
}

func (f *fakeModel) KnowsUser(id string) bool  { return f.users[id] }
func (f *fakeModel) KnowsPlace(id string) bool { return f.places[id] }

func similarAt(af, score float64, n int) []heuristic.SimilarRating {
	out := make([]heuristic.SimilarRating, n)
	for i := range out {
		out[i] = heuristic.SimilarRating{UserID: "s", AdjustmentFactor: af, OverallScore: score}
	}
	return out
}

func TestBlend_WeightedArithmetic(t *testing.T) {
	t.Parallel()

	m := &fakeModel{
		score:  9.0,
		users:  map[string]bool{"u1": true},
		places: map[string]bool{"p1": true},
	}
	req := Request{
		UserID:         "u1",
		PlaceID:        "p1",
		User:           features.UserAggregate{AdjustmentFactor: 0.2},
		Place:          features.PlaceAggregate{AvgScore: 7.0},
		SimilarRatings: similarAt(0.2, 7.0, 5),
	}

	res := NewBlender(DefaultWeights()).Blend(m, req)

	if res.Method != MethodHybrid {
		t.Fatalf("Method = %s, want hybrid", res.Method)
	}
	if res.PredictedScore != 7.6 {
		t.Errorf("PredictedScore = %v, want 7.6", res.PredictedScore)
	}
	if res.Confidence != 0.62 {
		t.Errorf("Confidence = %v, want 0.62", res.Confidence)
	}
	if res.Breakdown.Heuristic.Confidence != 0.5 || res.Breakdown.Heuristic.NSimilarUsers != 5 {
		t.Errorf("heuristic breakdown = %+v", res.Breakdown.Heuristic)
	}
	if !res.Breakdown.Model.Available || *res.Breakdown.Model.Score != 9.0 || *res.Breakdown.Model.Confidence != 0.9 {
		t.Errorf("model breakdown = %+v", res.Breakdown.Model)
	}
}

func TestBlend_UnnormalizedWeights(t *testing.T) {
	t.Parallel()

	m := &fakeModel{score: 4.0}
	w := Weights{Heuristic: 1.0, Model: 1.0}
	req := Request{
		UserID:  "u",
		PlaceID: "p",
		Place:   features.PlaceAggregate{AvgScore: 6.0},
		Weights: &w,
	}

	res := NewBlender(DefaultWeights()).Blend(m, req)
	if res.PredictedScore != 10.0 {
		t.Errorf("PredictedScore = %v, want literal sum 10", res.PredictedScore)
	}
	if res.Breakdown.Heuristic.Weight != 1.0 || res.Breakdown.Model.Weight != 1.0 {
		t.Errorf("weights not reported as supplied: %+v", res.Breakdown)
	}
}

func TestBlend_ColdStartConfidence(t *testing.T) {
	t.Parallel()

	m := &fakeModel{score: 5.0}
	res := NewBlender(DefaultWeights()).Blend(m, Request{
		UserID:  "stranger",
		PlaceID: "nowhere",
		Place:   features.PlaceAggregate{AvgScore: 5.0},
	})

	if !res.Breakdown.Model.Available {
		t.Fatal("model should be available for cold start")
	}
	if got := *res.Breakdown.Model.Confidence; got != LowConfidence {
		t.Errorf("model confidence = %v, want %v", got, LowConfidence)
	}
}

func TestBlend_FallsBackToHeuristic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		model Model
	}{
		{name: "no model", model: nil},
		{name: "model error", model: &fakeModel{err: errors.New("boom")}},
		{name: "model panic", model: &fakeModel{panicWith: "index out of range"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := NewBlender(DefaultWeights()).Blend(tt.model, Request{
				UserID:  "u",
				PlaceID: "p",
				User:    features.UserAggregate{AdjustmentFactor: 0.5},
				Place:   features.PlaceAggregate{AvgScore: 8.0},
			})

			if res.Method != MethodHeuristicOnly {
				t.Errorf("Method = %s, want heuristic_only", res.Method)
			}
			if res.Breakdown.Model.Available || res.Breakdown.Model.Score != nil || res.Breakdown.Model.Confidence != nil {
				t.Errorf("model breakdown should be empty: %+v", res.Breakdown.Model)
			}
			if res.PredictedScore != 8.0 || res.Confidence != LowConfidence {
				t.Errorf("got %v/%v, want 8/%v", res.PredictedScore, res.Confidence, LowConfidence)
			}
			if res.ModelErr == nil {
				t.Error("ModelErr should carry the cause")
			}
		})
	}
}

func TestTryModel_Familiarity(t *testing.T) {
	t.Parallel()

	m := &fakeModel{
		score:  6.0,
		users:  map[string]bool{"u": true},
		places: map[string]bool{"p": true},
	}

	tests := []struct {
		user, place string
		want        float64
	}{
		{"u", "p", FullFamiliarityConfidence},
		{"u", "x", PartialFamiliarityConfidence},
		{"x", "p", PartialFamiliarityConfidence},
		{"x", "y", LowConfidence},
	}
	for _, tt := range tests {
		out := TryModel(m, Request{UserID: tt.user, PlaceID: tt.place})
		if !out.Available || out.Confidence != tt.want {
			t.Errorf("TryModel(%s, %s) = %+v, want confidence %v", tt.user, tt.place, out, tt.want)
		}
	}
}

func TestTryModel_NilModel(t *testing.T) {
	t.Parallel()

	out := TryModel(nil, Request{})
	if out.Available || !errors.Is(out.Err, ErrModelUnavailable) {
		t.Errorf("TryModel(nil) = %+v", out)
	}
}

func TestHeuristicConfidence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n    int
		want float64
	}{
		{0, LowConfidence},
		{1, 0.1},
		{5, 0.5},
		{10, 1.0},
		{25, 1.0},
	}
	for _, tt := range tests {
		if got := HeuristicConfidence(tt.n); got != tt.want {
			t.Errorf("HeuristicConfidence(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestWeights_Validate(t *testing.T) {
	t.Parallel()

	if err := (Weights{Heuristic: 2, Model: -1}).Validate(); err != nil {
		t.Errorf("finite weights rejected: %v", err)
	}
	if err := (Weights{Heuristic: 0.7, Model: math.NaN()}).Validate(); err == nil {
		t.Error("NaN weight accepted")
	}
}
