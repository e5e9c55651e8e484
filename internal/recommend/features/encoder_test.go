// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package features

import (
	"math"
	"testing"
)

func ptr(v float64) *float64 { return &v }

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestPersonalityEncoding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		personality string
		expected    float64
	}{
		{PersonalityStrongIntrovert, -1.0},
		{PersonalityModerateIntrovert, -0.5},
		{PersonalityAmbivert, 0.0},
		{PersonalityModerateExtrovert, 0.5},
		{PersonalityStrongExtrovert, 1.0},
		{PersonalityUnknown, 0.0},
		{"Night Owl", 0.0},
		{"", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.personality, func(t *testing.T) {
			if got := PersonalityEncoding(tt.personality); got != tt.expected {
				t.Errorf("PersonalityEncoding(%q) = %f, want %f", tt.personality, got, tt.expected)
			}
		})
	}
}

func TestAggregate_MissingCategoriesDefaultToMidpoint(t *testing.T) {
	t.Parallel()

	_, places := Aggregate([]Rating{
		{UserID: "u1", PlaceID: "p1", OverallScore: 8},
	})

	p, ok := places["p1"]
	if !ok {
		t.Fatal("place p1 missing from aggregates")
	}
	for name, v := range map[string]float64{
		"crowd":      p.AvgCrowdSize,
		"noise":      p.AvgNoiseLevel,
		"social":     p.AvgSocialEnergy,
		"service":    p.AvgService,
		"atmosphere": p.AvgAtmosphere,
	} {
		if v != DefaultCategoryScore {
			t.Errorf("avg %s = %f, want %f", name, v, DefaultCategoryScore)
		}
	}
}

func TestAggregate_PartialCategories(t *testing.T) {
	t.Parallel()

	_, places := Aggregate([]Rating{
		{UserID: "u1", PlaceID: "p1", OverallScore: 6, Categories: &Categories{CrowdSize: ptr(9)}},
		{UserID: "u2", PlaceID: "p1", OverallScore: 8, Categories: &Categories{CrowdSize: ptr(3), Service: ptr(10)}},
	})

	p := places["p1"]
	if p.AvgScore != 7 {
		t.Errorf("AvgScore = %f, want 7", p.AvgScore)
	}
	if p.AvgCrowdSize != 6 {
		t.Errorf("AvgCrowdSize = %f, want 6", p.AvgCrowdSize)
	}
	if p.AvgService != 7.5 {
		t.Errorf("AvgService = %f, want 7.5", p.AvgService)
	}
	if p.AvgNoiseLevel != 5 {
		t.Errorf("AvgNoiseLevel = %f, want 5", p.AvgNoiseLevel)
	}
	if p.TotalRatings != 2 {
		t.Errorf("TotalRatings = %d, want 2", p.TotalRatings)
	}
}

func TestAggregate_OrderIndependent(t *testing.T) {
	t.Parallel()

	ratings := []Rating{
		{UserID: "u1", PlaceID: "p1", OverallScore: 4, UserAdjustmentFactor: 0.2, UserPersonalityType: PersonalityAmbivert},
		{UserID: "u1", PlaceID: "p2", OverallScore: 9, UserAdjustmentFactor: 0.4, UserPersonalityType: PersonalityStrongExtrovert},
		{UserID: "u2", PlaceID: "p1", OverallScore: 7, UserAdjustmentFactor: -0.6, UserPersonalityType: PersonalityModerateIntrovert},
	}
	reversed := []Rating{ratings[2], ratings[1], ratings[0]}

	usersA, placesA := Aggregate(ratings)
	usersB, placesB := Aggregate(reversed)

	for id, a := range usersA {
		if b := usersB[id]; a != b {
			t.Errorf("user %s: %+v != %+v", id, a, b)
		}
	}
	for id, a := range placesA {
		if b := placesB[id]; a != b {
			t.Errorf("place %s: %+v != %+v", id, a, b)
		}
	}

	u1 := usersA["u1"]
	if !almostEqual(u1.AdjustmentFactor, 0.3, 1e-12) {
		t.Errorf("u1 AdjustmentFactor = %f, want 0.3", u1.AdjustmentFactor)
	}
	if u1.AvgRating != 6.5 || u1.TotalRatings != 2 {
		t.Errorf("u1 = %+v, want avg 6.5 over 2", u1)
	}
	// Tie between Ambivert and Strong Extrovert resolves to the smaller string.
	if u1.PersonalityType != PersonalityAmbivert {
		t.Errorf("u1 PersonalityType = %q, want %q", u1.PersonalityType, PersonalityAmbivert)
	}
}

func TestAggregate_EmptyPersonalityIsUnknown(t *testing.T) {
	t.Parallel()

	users, _ := Aggregate([]Rating{{UserID: "u1", PlaceID: "p1", OverallScore: 5}})
	if users["u1"].PersonalityType != PersonalityUnknown {
		t.Errorf("PersonalityType = %q, want %q", users["u1"].PersonalityType, PersonalityUnknown)
	}
}

func TestEncodeUser(t *testing.T) {
	t.Parallel()

	v := EncodeUser(UserAggregate{
		AdjustmentFactor: 0.5,
		PersonalityType:  PersonalityModerateExtrovert,
		TotalRatings:     3,
		AvgRating:        8,
	})

	want := []float64{0.5, 0.5, math.Log1p(3), 0.8}
	if len(v) != UserFeatureDim {
		t.Fatalf("len = %d, want %d", len(v), UserFeatureDim)
	}
	for i := range want {
		if !almostEqual(v[i], want[i], 1e-12) {
			t.Errorf("v[%d] = %f, want %f", i, v[i], want[i])
		}
	}
}

func TestEncodePlace(t *testing.T) {
	t.Parallel()

	v := EncodePlace(PlaceAggregate{
		AvgScore:        7,
		AvgCrowdSize:    2,
		AvgNoiseLevel:   12, // out of scale, not clamped here
		AvgSocialEnergy: 5,
		AvgService:      9,
		AvgAtmosphere:   6,
		TotalRatings:    0,
	})

	want := []float64{0.7, 0.2, 1.2, 0.5, 0.9, 0.6, 0}
	if len(v) != PlaceFeatureDim {
		t.Fatalf("len = %d, want %d", len(v), PlaceFeatureDim)
	}
	for i := range want {
		if !almostEqual(v[i], want[i], 1e-12) {
			t.Errorf("v[%d] = %f, want %f", i, v[i], want[i])
		}
	}
}
