// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package api

import "errors"

var (
	// ErrEmptyBody indicates a request without a JSON body.
	ErrEmptyBody = errors.New("request body is empty")

	// ErrTrainingUnavailable indicates the server runs without a rating
	// source, so training cannot be triggered over HTTP.
	ErrTrainingUnavailable = errors.New("training is not available on this server")
)
