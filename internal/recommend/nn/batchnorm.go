// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package nn

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// BatchNorm defaults, matching the usual Keras values.
const (
	DefaultBatchNormMomentum = 0.99
	DefaultBatchNormEpsilon  = 1e-3
)

// BatchNorm normalizes each column with batch statistics while training and
// with exponentially averaged running statistics at inference.
type BatchNorm struct {
	name     string
	dim      int
	momentum float64
	epsilon  float64

	gamma, beta         []float64
	gradGamma, gradBeta []float64
	runningMean         []float64
	runningVar          []float64

	xhat   []float64
	invStd []float64
	rows   int
}

// NewBatchNorm creates a batch normalization layer over dim columns.
func NewBatchNorm(name string, dim int) *BatchNorm {
	bn := &BatchNorm{
		name:        name,
		dim:         dim,
		momentum:    DefaultBatchNormMomentum,
		epsilon:     DefaultBatchNormEpsilon,
		gamma:       make([]float64, dim),
		beta:        make([]float64, dim),
		gradGamma:   make([]float64, dim),
		gradBeta:    make([]float64, dim),
		runningMean: make([]float64, dim),
		runningVar:  make([]float64, dim),
		invStd:      make([]float64, dim),
	}
	for j := 0; j < dim; j++ {
		bn.gamma[j] = 1
		bn.runningVar[j] = 1
	}
	return bn
}

// Forward implements Layer.
func (bn *BatchNorm) Forward(x *mat.Dense) *mat.Dense {
	n, _ := x.Dims()
	in := rawData(x)
	out := mat.NewDense(n, bn.dim, nil)
	od := rawData(out)

	if cap(bn.xhat) < len(in) {
		bn.xhat = make([]float64, len(in))
	}
	bn.xhat = bn.xhat[:len(in)]
	bn.rows = n

	for j := 0; j < bn.dim; j++ {
		var mean float64
		for i := 0; i < n; i++ {
			mean += in[i*bn.dim+j]
		}
		mean /= float64(n)

		var variance float64
		for i := 0; i < n; i++ {
			d := in[i*bn.dim+j] - mean
			variance += d * d
		}
		variance /= float64(n)

		inv := 1 / math.Sqrt(variance+bn.epsilon)
		bn.invStd[j] = inv
		for i := 0; i < n; i++ {
			k := i*bn.dim + j
			bn.xhat[k] = (in[k] - mean) * inv
			od[k] = bn.gamma[j]*bn.xhat[k] + bn.beta[j]
		}

		bn.runningMean[j] = bn.momentum*bn.runningMean[j] + (1-bn.momentum)*mean
		bn.runningVar[j] = bn.momentum*bn.runningVar[j] + (1-bn.momentum)*variance
	}
	return out
}

// Infer implements Layer.
func (bn *BatchNorm) Infer(x *mat.Dense) *mat.Dense {
	n, _ := x.Dims()
	in := rawData(x)
	out := mat.NewDense(n, bn.dim, nil)
	od := rawData(out)
	for j := 0; j < bn.dim; j++ {
		inv := 1 / math.Sqrt(bn.runningVar[j]+bn.epsilon)
		for i := 0; i < n; i++ {
			k := i*bn.dim + j
			od[k] = bn.gamma[j]*(in[k]-bn.runningMean[j])*inv + bn.beta[j]
		}
	}
	return out
}

// Backward implements Layer.
func (bn *BatchNorm) Backward(dy *mat.Dense) *mat.Dense {
	n := bn.rows
	g := rawData(dy)
	dx := mat.NewDense(n, bn.dim, nil)
	dd := rawData(dx)
	fn := float64(n)

	for j := 0; j < bn.dim; j++ {
		var sumDy, sumDyXhat float64
		for i := 0; i < n; i++ {
			k := i*bn.dim + j
			sumDy += g[k]
			sumDyXhat += g[k] * bn.xhat[k]
		}
		bn.gradBeta[j] = sumDy
		bn.gradGamma[j] = sumDyXhat

		scale := bn.gamma[j] * bn.invStd[j] / fn
		for i := 0; i < n; i++ {
			k := i*bn.dim + j
			dd[k] = scale * (fn*g[k] - sumDy - bn.xhat[k]*sumDyXhat)
		}
	}
	return dx
}

// Params implements Layer.
func (bn *BatchNorm) Params() []Param {
	return []Param{
		{Value: bn.gamma, Grad: bn.gradGamma},
		{Value: bn.beta, Grad: bn.gradBeta},
	}
}

// Tensors implements Layer.
func (bn *BatchNorm) Tensors() []Tensor {
	return []Tensor{
		{Name: bn.name + "/gamma", Data: bn.gamma},
		{Name: bn.name + "/beta", Data: bn.beta},
		{Name: bn.name + "/moving_mean", Data: bn.runningMean},
		{Name: bn.name + "/moving_variance", Data: bn.runningVar},
	}
}
