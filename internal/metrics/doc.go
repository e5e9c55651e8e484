// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

/*
Package metrics provides Prometheus metrics collection and export for observability.

Metrics are registered with the default registry through promauto at package
initialization and exposed at /metrics in Prometheus text format:

	curl http://localhost:5000/metrics

# Available Metrics

API Metrics:
  - api_requests_total: Total API requests (counter)
    Labels: method, endpoint, status_code
  - api_request_duration_seconds: Request latency (histogram)
    Labels: method, endpoint
  - api_active_requests: Requests in flight (gauge)
  - api_rate_limit_hits_total: Rate limit rejections (counter)

Prediction Metrics:
  - senergy_predictions_total: Blended predictions (counter)
    Labels: method, cached
  - senergy_prediction_duration_seconds: Time per prediction (histogram)
  - senergy_model_fallbacks_total: Model failures absorbed by the heuristic (counter)
    Labels: reason

Training Metrics:
  - senergy_training_runs_total: Training passes (counter)
    Labels: result
  - senergy_training_duration_seconds: Pass duration including the save (histogram)
  - senergy_training_failures_total: Failed passes (counter)
    Labels: stage
  - senergy_training_loss: Loss of the kept epoch (gauge)
    Labels: split
  - senergy_retrain_decisions_total: Retrain policy outcomes (counter)
    Labels: reason

Model Metrics:
  - senergy_model_loaded, senergy_model_total_samples,
    senergy_model_known_identities{kind}, senergy_model_last_trained_timestamp_seconds

Rating Source Metrics:
  - senergy_rating_fetch_duration_seconds{source}, senergy_ratings_fetched{source},
    senergy_ratings_dropped_total

Circuit Breaker Metrics:
  - circuit_breaker_state: 0=closed, 1=half-open, 2=open (gauge)
    Labels: name
  - circuit_breaker_requests_total: Requests through the breaker (counter)
    Labels: name, result
  - circuit_breaker_consecutive_failures (gauge)
  - circuit_breaker_state_transitions_total (counter)
    Labels: name, from_state, to_state

# Engine Integration

EngineObserver implements recommend.Observer:

	engine.SetObserver(metrics.EngineObserver{})

# Thread Safety

All metric types are safe for concurrent use.
*/
package metrics
