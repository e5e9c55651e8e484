// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package nn

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// RegressionMetrics summarizes predictions against targets.
type RegressionMetrics struct {
	MSE  float64
	MAE  float64
	RMSE float64
}

// Evaluate computes MSE, MAE and RMSE of a single-column prediction matrix.
func Evaluate(pred *mat.Dense, targets []float64) RegressionMetrics {
	p := rawData(pred)
	var se, ae float64
	for i, y := range targets {
		d := p[i] - y
		se += d * d
		ae += math.Abs(d)
	}
	n := float64(len(targets))
	mse := se / n
	return RegressionMetrics{MSE: mse, MAE: ae / n, RMSE: math.Sqrt(mse)}
}

// MSEGrad returns d(MSE)/d(pred) for a single-column prediction matrix.
func MSEGrad(pred *mat.Dense, targets []float64) *mat.Dense {
	p := rawData(pred)
	n := float64(len(targets))
	g := make([]float64, len(targets))
	for i, y := range targets {
		g[i] = 2 * (p[i] - y) / n
	}
	return mat.NewDense(len(targets), 1, g)
}
