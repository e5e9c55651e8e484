// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

/*
Package models defines the HTTP request and response bodies of the
prediction API.

Field names follow the camelCase contract the web backend already speaks
(userId, placeFeatures, similarUsersRatings, heuristicWeight, mlWeight);
model statistics use the snake_case keys of the training history
(total_samples, last_trained, epochs_completed).

Request types carry validator tags checked by internal/validation and
convert to engine requests with ToBlendRequest. Every response carries a
success flag; failures use ErrorResponse.
*/
package models
