// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package features

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// ErrNoVectors is returned when scaling statistics are fit on an empty matrix.
var ErrNoVectors = errors.New("no vectors to fit scaling statistics")

// ScalingStatistics holds the per-column population mean and variance of one
// feature matrix. Statistics are fit once per training pass and then only
// applied; they are versioned together with the model trained against them.
type ScalingStatistics struct {
	Mean     []float64
	Variance []float64
}

// FitScaling computes column means and population variances over vectors.
// All vectors must have the same length.
func FitScaling(vectors [][]float64) (*ScalingStatistics, error) {
	if len(vectors) == 0 {
		return nil, ErrNoVectors
	}
	dim := len(vectors[0])
	column := make([]float64, len(vectors))
	stats := &ScalingStatistics{
		Mean:     make([]float64, dim),
		Variance: make([]float64, dim),
	}

	for j := 0; j < dim; j++ {
		for i, v := range vectors {
			if len(v) != dim {
				return nil, fmt.Errorf("vector %d has dimension %d, expected %d", i, len(v), dim)
			}
			column[i] = v[j]
		}
		stats.Mean[j], stats.Variance[j] = stat.PopMeanVariance(column, nil)
	}
	return stats, nil
}

// Dim returns the vector dimension the statistics were fit on.
func (s *ScalingStatistics) Dim() int {
	return len(s.Mean)
}

// Apply standardizes v as (x-mean)/stddev. Columns with zero variance are
// passed through unchanged. Apply never modifies the statistics or v.
func (s *ScalingStatistics) Apply(v []float64) ([]float64, error) {
	if len(v) != len(s.Mean) {
		return nil, fmt.Errorf("vector has dimension %d, scaling expects %d", len(v), len(s.Mean))
	}
	out := make([]float64, len(v))
	for j, x := range v {
		if s.Variance[j] == 0 {
			out[j] = x
			continue
		}
		out[j] = (x - s.Mean[j]) / math.Sqrt(s.Variance[j])
	}
	return out, nil
}

// Clone returns a deep copy.
func (s *ScalingStatistics) Clone() *ScalingStatistics {
	return &ScalingStatistics{
		Mean:     append([]float64(nil), s.Mean...),
		Variance: append([]float64(nil), s.Variance...),
	}
}
