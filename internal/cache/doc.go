// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

// Package cache provides a generic LRU cache with per-entry TTL.
//
// The prediction engine keys blended results by model version and request
// hash. Publishing a new model clears the cache, so an entry never outlives
// the snapshot that produced it.
package cache
