// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package ratings

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/senergy/internal/metrics"
	"github.com/tomtom215/senergy/internal/recommend/features"
)

// ErrSourceUnavailable is returned while the breaker is open.
var ErrSourceUnavailable = errors.New("rating source unavailable: circuit open")

// BreakerSource wraps a Source with a circuit breaker. After
// ConsecutiveFailures failed fetches the breaker opens and every Fetch fails
// immediately until OpenTimeout has passed; then a single trial fetch
// decides whether it closes again.
//
// The breaker uses real time for its timeout; tests exercise the wrapped
// source directly or wait out a short timeout.
type BreakerSource struct {
	src    Source
	cb     *gobreaker.CircuitBreaker[[]features.Rating]
	name   string
	logger zerolog.Logger
}

// NewBreakerSource wraps src. name labels metrics and log lines.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBreakerSource(src Source, cfg BreakerConfig, name string, logger zerolog.Logger) *BreakerSource {
	cbName := "ratings-" + name
	logger = logger.With().Str("component", "ratings").Str("breaker", cbName).Logger()

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbName).Set(0)

	threshold := cfg.ConsecutiveFailures
	cb := gobreaker.NewCircuitBreaker[[]features.Rating](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			// A cancelled fetch says nothing about the backend.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("from", stateToString(from)).Str("to", stateToString(to)).Msg("circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, stateToString(from), stateToString(to)).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &BreakerSource{src: src, cb: cb, name: cbName, logger: logger}
}

// Fetch runs the wrapped fetch through the breaker.
func (b *BreakerSource) Fetch(ctx context.Context) ([]features.Rating, error) {
	out, err := b.cb.Execute(func() ([]features.Rating, error) {
		return b.src.Fetch(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			return nil, ErrSourceUnavailable
		}
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(float64(b.cb.Counts().ConsecutiveFailures))
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(0)
	return out, nil
}

// State returns the breaker state: closed, half-open or open.
func (b *BreakerSource) State() string {
	return stateToString(b.cb.State())
}

// Close closes the wrapped source.
func (b *BreakerSource) Close() error {
	return b.src.Close()
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
