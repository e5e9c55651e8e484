// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Prediction Metrics
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "senergy_predictions_total",
			Help: "Total number of blended predictions",
		},
		[]string{"method", "cached"}, // method: heuristic_only, hybrid
	)

	PredictionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "senergy_prediction_duration_seconds",
			Help:    "Time to produce one blended prediction",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		},
	)

	ModelFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "senergy_model_fallbacks_total",
			Help: "Predictions that fell back to the heuristic while a model was loaded",
		},
		[]string{"reason"}, // inference, panic, other
	)

	// Training Metrics
	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "senergy_training_runs_total",
			Help: "Total number of training passes",
		},
		[]string{"result"}, // success, failure
	)

	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "senergy_training_duration_seconds",
			Help:    "Duration of training passes including the save",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
	)

	TrainingFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "senergy_training_failures_total",
			Help: "Failed training passes by stage",
		},
		[]string{"stage"},
	)

	TrainingLoss = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "senergy_training_loss",
			Help: "Loss of the kept epoch of the last successful pass",
		},
		[]string{"split"}, // train, validation
	)

	RetrainDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "senergy_retrain_decisions_total",
			Help: "Retrain policy outcomes",
		},
		[]string{"reason"},
	)

	// Model Snapshot Metrics
	ModelLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "senergy_model_loaded",
			Help: "1 when a model snapshot is published",
		},
	)

	ModelTotalSamples = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "senergy_model_total_samples",
			Help: "Cumulative ratings the published model has trained on",
		},
	)

	ModelKnownIdentities = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "senergy_model_known_identities",
			Help: "Identities with a learned embedding",
		},
		[]string{"kind"}, // user, place
	)

	ModelLastTrained = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "senergy_model_last_trained_timestamp_seconds",
			Help: "Unix time the published model was last trained",
		},
	)

	// Rating Source Metrics
	RatingFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "senergy_rating_fetch_duration_seconds",
			Help:    "Duration of rating source fetches",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	RatingsFetched = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "senergy_ratings_fetched",
			Help: "Ratings returned by the last fetch",
		},
		[]string{"source"},
	)

	RatingsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "senergy_ratings_dropped_total",
			Help: "Fetched ratings dropped as unusable for training",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRatingFetch records one rating source fetch.
func RecordRatingFetch(source string, fetched, dropped int, duration time.Duration) {
	RatingFetchDuration.WithLabelValues(source).Observe(duration.Seconds())
	RatingsFetched.WithLabelValues(source).Set(float64(fetched))
	RatingsDropped.Add(float64(dropped))
}
