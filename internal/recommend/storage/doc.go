// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

// Package storage persists embedding model snapshots.
//
// A snapshot is saved as six artifacts: network weights, user scaling
// statistics, place scaling statistics, user identity map, place identity
// map, and training metadata. All six belong to one generation, named by the
// snapshot version, and a save publishes a generation only once every
// artifact is durable.
//
// # Artifact Format
//
// Each artifact is an envelope:
//
//	envelope (gob):
//	  - Checksum (SHA-256 of the uncompressed payload, hex)
//	  - CompressedData (gzip of the gob-encoded payload)
//
// # Backends
//
//   - BadgerStore (default): every artifact and the current-generation pointer
//     are written in one BadgerDB transaction.
//   - FileStore: artifacts are written to a temporary directory that is
//     renamed into place, then the CURRENT file is atomically replaced.
//
// # Failure Semantics
//
// Load returns ErrModelNotFound when nothing has been saved. A generation
// with a missing artifact, a checksum mismatch, or weights that do not match
// the identity maps is reported as a *PersistenceError and never partially
// hydrated.
package storage
