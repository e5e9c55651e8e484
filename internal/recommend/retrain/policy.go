// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

// Package retrain decides when the embedding model needs another training
// pass. The two triggers are independent: enough new ratings since the last
// pass, or enough elapsed time since it.
package retrain

import (
	"fmt"
	"time"

	"github.com/tomtom215/senergy/internal/recommend/embedding"
)

// Reason explains a retrain decision. Values are stable and used as metric
// labels.
type Reason string

const (
	ReasonNoModel      Reason = "no_model"
	ReasonNeverTrained Reason = "never_trained"
	ReasonVolume       Reason = "volume"
	ReasonStaleness    Reason = "staleness"
	ReasonUpToDate     Reason = "up_to_date"
)

const day = 24 * time.Hour

// Policy holds the retrain thresholds.
type Policy struct {
	// MinNewSamples is the number of ratings added since the last pass that
	// triggers retraining. The comparison is inclusive.
	// Default: 50.
	MinNewSamples int `koanf:"min_new_samples"`

	// MaxAge triggers retraining once this many whole days have elapsed
	// since the last pass.
	// Default: 168h (7 days).
	MaxAge time.Duration `koanf:"max_age"`
}

// DefaultPolicy returns the production thresholds.
func DefaultPolicy() Policy {
	return Policy{
		MinNewSamples: 50,
		MaxAge:        7 * day,
	}
}

// Validate checks the thresholds.
func (p Policy) Validate() error {
	if p.MinNewSamples < 1 {
		return fmt.Errorf("min_new_samples must be positive, got %d", p.MinNewSamples)
	}
	if p.MaxAge < day {
		return fmt.Errorf("max_age must be at least one day, got %s", p.MaxAge)
	}
	return nil
}

// Decision is the outcome of ShouldRetrain.
type Decision struct {
	Retrain    bool   `json:"retrain"`
	Reason     Reason `json:"reason"`
	NewSamples int    `json:"new_samples"`
	AgeDays    int    `json:"age_days"`
}

// String implements fmt.Stringer for log output.
func (d Decision) String() string {
	return fmt.Sprintf("retrain=%t reason=%s new_samples=%d age_days=%d", d.Retrain, d.Reason, d.NewSamples, d.AgeDays)
}

// ShouldRetrain applies the policy. meta is the metadata of the loaded
// snapshot and is ignored when modelLoaded is false. newTotal is the size of
// the full rating set that would be trained on.
//
// Elapsed time is counted in whole days, so a model trained 6 days and 23
// hours ago is not yet stale.
func (p Policy) ShouldRetrain(meta *embedding.Metadata, modelLoaded bool, newTotal int, now time.Time) Decision {
	if !modelLoaded || meta == nil {
		return Decision{Retrain: true, Reason: ReasonNoModel, NewSamples: newTotal}
	}
	if !meta.HasTrained() {
		return Decision{Retrain: true, Reason: ReasonNeverTrained, NewSamples: newTotal}
	}

	d := Decision{
		NewSamples: newTotal - meta.TotalSamplesSeen,
		AgeDays:    int(now.Sub(meta.LastTrained) / day),
	}

	switch {
	case d.NewSamples >= p.MinNewSamples:
		d.Retrain, d.Reason = true, ReasonVolume
	case d.AgeDays >= int(p.MaxAge/day):
		d.Retrain, d.Reason = true, ReasonStaleness
	default:
		d.Reason = ReasonUpToDate
	}
	return d
}
