// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

// Package recommend predicts how much a user will enjoy a place.
//
// # Architecture
//
// Every prediction combines two scorers:
//
//   - Heuristic: a similarity-weighted mean over ratings from users with a
//     comparable social-energy adjustment factor (package heuristic)
//   - Model: a two-tower embedding network trained on the full rating
//     history (package embedding)
//
// The blend package combines both with configurable weights and falls back
// to the heuristic alone whenever the model is missing or fails.
//
// # Snapshots
//
// A trained model is an immutable embedding.Snapshot. Training builds the
// next snapshot off to the side, saves it through a storage.ModelStore, and
// only then publishes it. A failed pass leaves the previous snapshot in
// place, and predictions never observe a half-built model.
//
// # Retraining
//
// MaybeTrain consults a retrain.Policy: a pass runs when no model is loaded,
// when enough new ratings have arrived, or when the model is too old.
//
// # Usage
//
//	store, _ := storage.Open(storage.Config{Backend: storage.BackendBadger, Path: dir}, logger)
//	engine, err := recommend.NewEngine(recommend.DefaultConfig(), store, logger)
//	if err != nil {
//	    return err
//	}
//	_ = engine.LoadFromStore(ctx) // heuristic-only until a model exists
//
//	res, err := engine.Predict(blend.Request{
//	    UserID:  userID,
//	    PlaceID: placeID,
//	    User:    user,
//	    Place:   place,
//	})
//
// # Thread Safety
//
// The engine is safe for concurrent use. Predictions load the snapshot
// pointer once and never block on training; training passes are serialized
// and a second concurrent request fails with ErrTrainingInProgress.
package recommend
