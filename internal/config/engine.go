// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package config

import (
	"github.com/tomtom215/senergy/internal/recommend"
)

// EngineConfig maps the recommend settings onto the engine configuration.
// Zero limits and cache sizes keep the engine defaults.
func (c *Config) EngineConfig() *recommend.Config {
	rc := recommend.DefaultConfig()
	r := &c.Recommend

	rc.Architecture = r.Architecture.Clone()
	rc.Training = r.Training
	rc.Weights = r.Weights
	rc.Retrain = r.Retrain

	if r.TrainingTimeout > 0 {
		rc.Limits.TrainingTimeout = r.TrainingTimeout
	}
	if r.MaxBatchSize > 0 {
		rc.Limits.MaxBatchSize = r.MaxBatchSize
	}
	if r.MaxSimilarRatings > 0 {
		rc.Limits.MaxSimilarRatings = r.MaxSimilarRatings
	}

	rc.Cache.Enabled = r.CacheEnabled
	if r.CacheTTL > 0 {
		rc.Cache.TTL = r.CacheTTL
	}
	if r.CacheMaxEntries > 0 {
		rc.Cache.MaxEntries = r.CacheMaxEntries
	}
	return rc
}
