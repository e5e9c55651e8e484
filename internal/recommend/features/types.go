// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package features

// DefaultCategoryScore is substituted for any category a rating does not carry.
// It is the midpoint of the 1-10 scale, so missing data biases toward neutral.
const DefaultCategoryScore = 5.0

// Personality types recognized by the encoder.
const (
	PersonalityStrongIntrovert   = "Strong Introvert"
	PersonalityModerateIntrovert = "Moderate Introvert"
	PersonalityAmbivert          = "Ambivert"
	PersonalityModerateExtrovert = "Moderate Extrovert"
	PersonalityStrongExtrovert   = "Strong Extrovert"
	PersonalityUnknown           = "Unknown"
)

// Categories holds the optional per-aspect scores of a rating.
// A nil field means the rater did not score that aspect.
type Categories struct {
	CrowdSize    *float64 `json:"crowdSize,omitempty" bson:"crowdSize,omitempty"`
	NoiseLevel   *float64 `json:"noiseLevel,omitempty" bson:"noiseLevel,omitempty"`
	SocialEnergy *float64 `json:"socialEnergy,omitempty" bson:"socialEnergy,omitempty"`
	Service      *float64 `json:"service,omitempty" bson:"service,omitempty"`
	Atmosphere   *float64 `json:"atmosphere,omitempty" bson:"atmosphere,omitempty"`
}

// Rating is one observed user rating of a place. Ratings are immutable once
// observed and are the only unit of training data.
type Rating struct {
	ID                   string      `json:"id,omitempty" bson:"_id,omitempty"`
	UserID               string      `json:"userId" bson:"userId"`
	PlaceID              string      `json:"placeId" bson:"placeId"`
	OverallScore         float64     `json:"overallScore" bson:"overallScore"`
	UserAdjustmentFactor float64     `json:"userAdjustmentFactor" bson:"userAdjustmentFactor"`
	UserPersonalityType  string      `json:"userPersonalityType" bson:"userPersonalityType"`
	Categories           *Categories `json:"categories,omitempty" bson:"categories,omitempty"`
}

// categoryScores returns the five category scores with defaults applied,
// in encoder order: crowd, noise, social, service, atmosphere.
func (r *Rating) categoryScores() [5]float64 {
	out := [5]float64{DefaultCategoryScore, DefaultCategoryScore, DefaultCategoryScore, DefaultCategoryScore, DefaultCategoryScore}
	c := r.Categories
	if c == nil {
		return out
	}
	for i, v := range []*float64{c.CrowdSize, c.NoiseLevel, c.SocialEnergy, c.Service, c.Atmosphere} {
		if v != nil {
			out[i] = *v
		}
	}
	return out
}

// UserAggregate summarizes every rating by one user in the current pass.
type UserAggregate struct {
	AdjustmentFactor float64 `json:"adjustmentFactor"`
	PersonalityType  string  `json:"personalityType"`
	TotalRatings     int     `json:"totalRatings"`
	AvgRating        float64 `json:"avgRating"`
}

// PlaceAggregate summarizes every rating of one place in the current pass.
type PlaceAggregate struct {
	AvgScore        float64 `json:"avgScore"`
	AvgCrowdSize    float64 `json:"avgCrowdSize"`
	AvgNoiseLevel   float64 `json:"avgNoiseLevel"`
	AvgSocialEnergy float64 `json:"avgSocialEnergy"`
	AvgService      float64 `json:"avgService"`
	AvgAtmosphere   float64 `json:"avgAtmosphere"`
	TotalRatings    int     `json:"totalRatings"`
}

// Vector dimensions produced by EncodeUser and EncodePlace.
const (
	UserFeatureDim  = 4
	PlaceFeatureDim = 7
)
