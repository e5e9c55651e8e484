// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

/*
Package middleware provides HTTP instrumentation shared by the API router.

PrometheusMetrics records request counts, latency and in-flight requests.
The endpoint label is the matched Chi route pattern, so path parameters and
unmatched paths never inflate label cardinality:

	r.With(middleware.PrometheusMetrics).Post("/predict", h.Predict)
*/
package middleware
