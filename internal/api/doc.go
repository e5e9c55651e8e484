// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

/*
Package api provides the HTTP interface of the prediction service using the
Chi router.

# Endpoints

	GET  /health          liveness plus model statistics
	POST /predict         one blended prediction
	POST /batch-predict   many predictions against one model snapshot
	GET  /model/info      loaded model statistics (404 without a model)
	POST /model/train     start a background training pass (202, 409 if busy)
	GET  /metrics         Prometheus metrics

# Middleware

Every route runs behind request IDs (X-Request-ID, propagated into the
logging context), RealIP, panic recovery and CORS. Prediction and model
routes add per-IP rate limiting with go-chi/httprate, a request body limit
and Prometheus request metrics. Health has its own permissive limit so
monitoring never competes with prediction traffic.

# Responses

Successful bodies carry "success": true next to the payload. Failures use
models.ErrorResponse; validation failures name every missing field at once:

	{"success": false, "error": "Missing required fields: userId, placeFeatures", "code": "VALIDATION_ERROR"}
*/
package api
