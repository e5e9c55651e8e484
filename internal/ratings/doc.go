// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

// Package ratings reads the rating history that training passes consume.
//
// A Source returns the complete rating set on every Fetch; training always
// runs on the full history, never on a delta. Implementations:
//
//   - MongoSource: a MongoDB collection of rating documents
//   - DuckDBSource: a DuckDB table, e.g. an analytics export
//   - FileSource: a JSON array on disk, used by senergyctl and tests
//
// BreakerSource wraps any Source in a circuit breaker so a failing backend
// fails fast instead of stalling the retrain loop.
//
// Clean drops rows that cannot be trained on (missing identifiers,
// non-finite or out-of-range scores) before they reach the trainer.
package ratings
