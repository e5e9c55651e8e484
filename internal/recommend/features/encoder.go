// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package features

import (
	"math"
)

var personalityEncoding = map[string]float64{
	PersonalityStrongIntrovert:   -1.0,
	PersonalityModerateIntrovert: -0.5,
	PersonalityAmbivert:          0.0,
	PersonalityModerateExtrovert: 0.5,
	PersonalityStrongExtrovert:   1.0,
	PersonalityUnknown:           0.0,
}

// PersonalityEncoding maps a personality type onto [-1, 1].
// Unrecognized values encode as 0.
func PersonalityEncoding(personalityType string) float64 {
	return personalityEncoding[personalityType]
}

type userAccumulator struct {
	afSum          float64
	scoreSum       float64
	count          int
	personalityHit map[string]int
}

type placeAccumulator struct {
	scoreSum    float64
	categorySum [5]float64
	count       int
}

// Aggregate builds per-user and per-place aggregates from ratings in a single
// pass. Only sums and counts are accumulated, so the result does not depend on
// the order of the input.
//
// A user's adjustment factor is the mean over their ratings and the personality
// type is the most frequent one, ties going to the lexicographically smallest.
func Aggregate(ratings []Rating) (map[string]UserAggregate, map[string]PlaceAggregate) {
	users := make(map[string]*userAccumulator)
	places := make(map[string]*placeAccumulator)

	for i := range ratings {
		r := &ratings[i]

		u, ok := users[r.UserID]
		if !ok {
			u = &userAccumulator{personalityHit: make(map[string]int, 1)}
			users[r.UserID] = u
		}
		u.afSum += r.UserAdjustmentFactor
		u.scoreSum += r.OverallScore
		u.count++
		personality := r.UserPersonalityType
		if personality == "" {
			personality = PersonalityUnknown
		}
		u.personalityHit[personality]++

		p, ok := places[r.PlaceID]
		if !ok {
			p = &placeAccumulator{}
			places[r.PlaceID] = p
		}
		p.scoreSum += r.OverallScore
		cats := r.categoryScores()
		for j := range cats {
			p.categorySum[j] += cats[j]
		}
		p.count++
	}

	userAggs := make(map[string]UserAggregate, len(users))
	for id, u := range users {
		n := float64(u.count)
		userAggs[id] = UserAggregate{
			AdjustmentFactor: u.afSum / n,
			PersonalityType:  dominantPersonality(u.personalityHit),
			TotalRatings:     u.count,
			AvgRating:        u.scoreSum / n,
		}
	}

	placeAggs := make(map[string]PlaceAggregate, len(places))
	for id, p := range places {
		n := float64(p.count)
		placeAggs[id] = PlaceAggregate{
			AvgScore:        p.scoreSum / n,
			AvgCrowdSize:    p.categorySum[0] / n,
			AvgNoiseLevel:   p.categorySum[1] / n,
			AvgSocialEnergy: p.categorySum[2] / n,
			AvgService:      p.categorySum[3] / n,
			AvgAtmosphere:   p.categorySum[4] / n,
			TotalRatings:    p.count,
		}
	}

	return userAggs, placeAggs
}

func dominantPersonality(hits map[string]int) string {
	best, bestCount := PersonalityUnknown, 0
	for p, c := range hits {
		if c > bestCount || (c == bestCount && p < best) {
			best, bestCount = p, c
		}
	}
	return best
}

// EncodeUser returns [adjustmentFactor, personality, log1p(total), avgRating/10].
//
//nolint:gocritic // hugeParam: value semantics keep aggregates immutable
func EncodeUser(u UserAggregate) []float64 {
	return []float64{
		u.AdjustmentFactor,
		PersonalityEncoding(u.PersonalityType),
		math.Log1p(float64(u.TotalRatings)),
		u.AvgRating / 10.0,
	}
}

// EncodePlace returns the six averages divided by 10 followed by log1p(total).
// Values outside the 1-10 scale are passed through unclamped.
//
//nolint:gocritic // hugeParam: value semantics keep aggregates immutable
func EncodePlace(p PlaceAggregate) []float64 {
	return []float64{
		p.AvgScore / 10.0,
		p.AvgCrowdSize / 10.0,
		p.AvgNoiseLevel / 10.0,
		p.AvgSocialEnergy / 10.0,
		p.AvgService / 10.0,
		p.AvgAtmosphere / 10.0,
		math.Log1p(float64(p.TotalRatings)),
	}
}
