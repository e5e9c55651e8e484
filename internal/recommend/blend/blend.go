// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

// Package blend combines the heuristic scorer with the learned model.
//
// The heuristic is always computed and never fails. The model is consulted
// through TryModel, which turns every failure (no model, inference error,
// panic) into an unavailable outcome, so a prediction never fails because the
// model is missing. When the model is available the final score and
// confidence are a literal weighted sum of the two sources; the weights are
// not normalized and callers may pass any pair.
package blend

import (
	"errors"
	"fmt"
	"math"

	"github.com/tomtom215/senergy/internal/recommend/features"
	"github.com/tomtom215/senergy/internal/recommend/heuristic"
)

// Method names which sources contributed to a prediction.
type Method string

const (
	MethodHeuristicOnly Method = "heuristic_only"
	MethodHybrid        Method = "hybrid"
)

// Confidence levels.
const (
	// LowConfidence is used by the heuristic with no similar ratings and by
	// the model when neither identity is known.
	LowConfidence = 0.3

	// PartialFamiliarityConfidence applies when exactly one identity is known.
	PartialFamiliarityConfidence = 0.6

	// FullFamiliarityConfidence applies when both identities are known.
	FullFamiliarityConfidence = 0.9

	// SaturationCount is the number of similar ratings at which heuristic
	// confidence reaches 1.
	SaturationCount = 10
)

// ErrModelUnavailable is reported in a ModelOutcome when no model was supplied.
var ErrModelUnavailable = errors.New("no model loaded")

// Model is the learned scorer consulted by the blender.
// *embedding.Snapshot satisfies it.
type Model interface {
	Predict(userID, placeID string, user features.UserAggregate, place features.PlaceAggregate) (float64, error)
	KnowsUser(userID string) bool
	KnowsPlace(placeID string) bool
}

// Weights are the blend coefficients.
type Weights struct {
	// Heuristic multiplies the heuristic score and confidence.
	// Default: 0.7.
	Heuristic float64 `json:"heuristicWeight" koanf:"heuristic"`

	// Model multiplies the model score and confidence.
	// Default: 0.3.
	Model float64 `json:"mlWeight" koanf:"model"`
}

// DefaultWeights returns 0.7/0.3.
func DefaultWeights() Weights {
	return Weights{Heuristic: 0.7, Model: 0.3}
}

// Validate rejects non-finite weights. Weights need not sum to 1.
func (w Weights) Validate() error {
	if math.IsNaN(w.Heuristic) || math.IsInf(w.Heuristic, 0) {
		return fmt.Errorf("heuristic weight must be finite, got %v", w.Heuristic)
	}
	if math.IsNaN(w.Model) || math.IsInf(w.Model, 0) {
		return fmt.Errorf("model weight must be finite, got %v", w.Model)
	}
	return nil
}

// Request is one prediction to blend.
type Request struct {
	UserID         string
	PlaceID        string
	User           features.UserAggregate
	Place          features.PlaceAggregate
	SimilarRatings []heuristic.SimilarRating

	// Weights overrides the blender defaults when non-nil.
	Weights *Weights
}

// HeuristicBreakdown reports the heuristic contribution.
type HeuristicBreakdown struct {
	Score         float64 `json:"score"`
	Confidence    float64 `json:"confidence"`
	Weight        float64 `json:"weight"`
	NSimilarUsers int     `json:"n_similar_users"`
}

// ModelBreakdown reports the model contribution. Score and Confidence are
// nil when the model was unavailable.
type ModelBreakdown struct {
	Score      *float64 `json:"score"`
	Confidence *float64 `json:"confidence"`
	Weight     float64  `json:"weight"`
	Available  bool     `json:"available"`
}

// Breakdown holds both contributions.
type Breakdown struct {
	Heuristic HeuristicBreakdown `json:"heuristic"`
	Model     ModelBreakdown     `json:"ml"`
}

// Result is a blended prediction. Reported numbers are rounded to two
// decimals; weights are reported as supplied.
type Result struct {
	PredictedScore float64   `json:"predictedScore"`
	Confidence     float64   `json:"confidence"`
	Method         Method    `json:"method"`
	Breakdown      Breakdown `json:"breakdown"`

	// ModelErr is the reason the model was unavailable, if it was.
	ModelErr error `json:"-"`
}

// ModelOutcome is the tagged result of TryModel.
type ModelOutcome struct {
	Available  bool
	Score      float64
	Confidence float64
	Err        error
}

// TryModel asks m for a score. Any error, and any panic raised while
// predicting, yields an unavailable outcome carrying the cause.
//
//nolint:gocritic // hugeParam: Request passed by value so callers cannot observe mutation
func TryModel(m Model, req Request) (out ModelOutcome) {
	if m == nil {
		return ModelOutcome{Err: ErrModelUnavailable}
	}

	defer func() {
		if r := recover(); r != nil {
			out = ModelOutcome{Err: fmt.Errorf("model panicked: %v", r)}
		}
	}()

	score, err := m.Predict(req.UserID, req.PlaceID, req.User, req.Place)
	if err != nil {
		return ModelOutcome{Err: err}
	}
	return ModelOutcome{
		Available:  true,
		Score:      score,
		Confidence: familiarity(m.KnowsUser(req.UserID), m.KnowsPlace(req.PlaceID)),
	}
}

func familiarity(userKnown, placeKnown bool) float64 {
	switch {
	case userKnown && placeKnown:
		return FullFamiliarityConfidence
	case userKnown || placeKnown:
		return PartialFamiliarityConfidence
	default:
		return LowConfidence
	}
}

// HeuristicConfidence is min(n/10, 1), or LowConfidence with no evidence.
func HeuristicConfidence(nSimilar int) float64 {
	if nSimilar <= 0 {
		return LowConfidence
	}
	return math.Min(float64(nSimilar)/SaturationCount, 1.0)
}

// Blender is stateless apart from its default weights and is safe for
// concurrent use.
type Blender struct {
	defaults Weights
}

// NewBlender returns a blender using w when a request carries no weights.
func NewBlender(w Weights) *Blender {
	return &Blender{defaults: w}
}

// Defaults returns the default weights.
func (b *Blender) Defaults() Weights { return b.defaults }

// Blend produces a prediction. m may be nil.
//
//nolint:gocritic // hugeParam: Request passed by value so callers cannot observe mutation
func (b *Blender) Blend(m Model, req Request) Result {
	w := b.defaults
	if req.Weights != nil {
		w = *req.Weights
	}

	hScore := heuristic.Score(req.User.AdjustmentFactor, req.Place.AvgScore, req.SimilarRatings)
	hConf := HeuristicConfidence(len(req.SimilarRatings))

	res := Result{
		Breakdown: Breakdown{
			Heuristic: HeuristicBreakdown{
				Score:         round2(hScore),
				Confidence:    round2(hConf),
				Weight:        w.Heuristic,
				NSimilarUsers: len(req.SimilarRatings),
			},
			Model: ModelBreakdown{Weight: w.Model},
		},
	}

	mo := TryModel(m, req)
	if !mo.Available {
		res.PredictedScore = round2(hScore)
		res.Confidence = round2(hConf)
		res.Method = MethodHeuristicOnly
		res.ModelErr = mo.Err
		return res
	}

	ms, mc := round2(mo.Score), round2(mo.Confidence)
	res.Breakdown.Model.Score = &ms
	res.Breakdown.Model.Confidence = &mc
	res.Breakdown.Model.Available = true

	res.PredictedScore = round2(hScore*w.Heuristic + mo.Score*w.Model)
	res.Confidence = round2(hConf*w.Heuristic + mo.Confidence*w.Model)
	res.Method = MethodHybrid
	return res
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
