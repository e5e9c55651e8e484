// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

// Package embeddingtest provides rating fixtures and small trained snapshots
// for tests in packages that consume embedding models.
package embeddingtest

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/senergy/internal/recommend/embedding"
	"github.com/tomtom215/senergy/internal/recommend/features"
)

var personalities = []string{
	features.PersonalityStrongIntrovert,
	features.PersonalityModerateIntrovert,
	features.PersonalityAmbivert,
	features.PersonalityModerateExtrovert,
	features.PersonalityStrongExtrovert,
}

// Ratings returns a deterministic rating set in which extroverts prefer
// places with high social energy. Every user rates at least one place.
func Ratings(users, places int, seed int64) []features.Rating {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // G404: deterministic fixtures

	var out []features.Rating
	for u := 0; u < users; u++ {
		p := rng.Intn(len(personalities))
		af := float64(p)/2 - 1
		for pl := 0; pl < places; pl++ {
			if pl != u%places && rng.Float64() < 0.4 {
				continue
			}
			social := 1 + float64(pl%10)
			score := 5.5 + af*(social-5.5)*0.6 + rng.NormFloat64()*0.3
			out = append(out, features.Rating{
				UserID:               fmt.Sprintf("user-%02d", u),
				PlaceID:              fmt.Sprintf("place-%02d", pl),
				OverallScore:         math.Max(1, math.Min(10, score)),
				UserAdjustmentFactor: af,
				UserPersonalityType:  personalities[p],
				Categories:           &features.Categories{SocialEnergy: &social},
			})
		}
	}
	return out
}

// Architecture returns a narrow network that trains in milliseconds.
func Architecture() embedding.Architecture {
	arch := embedding.DefaultArchitecture()
	arch.EmbeddingDim = 8
	arch.TowerHidden = 16
	arch.TowerOutput = 8
	arch.HiddenLayers = []int{16, 8}
	arch.LearningRate = 0.01
	return arch
}

// TrainOptions returns a short training schedule.
func TrainOptions(epochs int) embedding.TrainOptions {
	opts := embedding.DefaultTrainOptions()
	opts.Epochs = epochs
	opts.BatchSize = 16
	return opts
}

// Trainer builds a trainer with Architecture and TrainOptions.
func Trainer(tb testing.TB, epochs int) *embedding.Trainer {
	tb.Helper()

	tr, err := embedding.NewTrainer(Architecture(), TrainOptions(epochs), zerolog.Nop())
	if err != nil {
		tb.Fatalf("NewTrainer() error = %v", err)
	}
	return tr
}

// Snapshot trains a small model on ratings.
func Snapshot(tb testing.TB, ratings []features.Rating) *embedding.Snapshot {
	tb.Helper()

	snap, _, err := Trainer(tb, 3).Train(context.Background(), nil, ratings)
	if err != nil {
		tb.Fatalf("Train() error = %v", err)
	}
	return snap
}
