// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package features

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/stat"
)

func TestFitScaling_RoundTripUnitStatistics(t *testing.T) {
	t.Parallel()

	vectors := [][]float64{
		{1, 10, 0.3},
		{2, 20, -0.1},
		{3, 35, 0.9},
		{4, 15, 0.0},
		{10, 5, 0.5},
	}

	stats, err := FitScaling(vectors)
	if err != nil {
		t.Fatalf("FitScaling() error = %v", err)
	}

	scaled := make([][]float64, len(vectors))
	for i, v := range vectors {
		scaled[i], err = stats.Apply(v)
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
	}

	col := make([]float64, len(scaled))
	for j := 0; j < stats.Dim(); j++ {
		for i := range scaled {
			col[i] = scaled[i][j]
		}
		mean, variance := stat.PopMeanVariance(col, nil)
		if !almostEqual(mean, 0, 1e-9) {
			t.Errorf("column %d mean = %g, want 0", j, mean)
		}
		if !almostEqual(variance, 1, 1e-9) {
			t.Errorf("column %d variance = %g, want 1", j, variance)
		}
	}
}

func TestFitScaling_ConstantColumnIsIdentity(t *testing.T) {
	t.Parallel()

	stats, err := FitScaling([][]float64{{7, 1}, {7, 3}})
	if err != nil {
		t.Fatalf("FitScaling() error = %v", err)
	}

	out, err := stats.Apply([]float64{42, 2})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if out[0] != 42 {
		t.Errorf("constant column = %f, want passthrough 42", out[0])
	}
	if out[1] != 0 {
		t.Errorf("second column = %f, want 0", out[1])
	}
}

func TestFitScaling_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		vectors [][]float64
		wantErr error
	}{
		{"empty", nil, ErrNoVectors},
		{"ragged", [][]float64{{1, 2}, {3}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FitScaling(tt.vectors)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestScalingStatistics_ApplyDoesNotRefit(t *testing.T) {
	t.Parallel()

	stats, err := FitScaling([][]float64{{0}, {2}})
	if err != nil {
		t.Fatalf("FitScaling() error = %v", err)
	}
	before := stats.Clone()

	if _, err := stats.Apply([]float64{100}); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if stats.Mean[0] != before.Mean[0] || stats.Variance[0] != before.Variance[0] {
		t.Errorf("statistics changed after Apply: %+v -> %+v", before, stats)
	}

	if _, err := stats.Apply([]float64{1, 2}); err == nil {
		t.Error("Apply() with wrong dimension should fail")
	}
}
