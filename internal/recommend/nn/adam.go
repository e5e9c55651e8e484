// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package nn

import (
	"math"
)

// Adam defaults.
const (
	DefaultAdamBeta1   = 0.9
	DefaultAdamBeta2   = 0.999
	DefaultAdamEpsilon = 1e-7
)

// Adam implements the Adam optimizer over a fixed parameter list.
type Adam struct {
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64

	params []Param
	m, v   [][]float64
	step   int
}

// NewAdam creates an optimizer for params with default moment decay rates.
func NewAdam(params []Param, learningRate float64) *Adam {
	a := &Adam{
		LearningRate: learningRate,
		Beta1:        DefaultAdamBeta1,
		Beta2:        DefaultAdamBeta2,
		Epsilon:      DefaultAdamEpsilon,
		params:       params,
		m:            make([][]float64, len(params)),
		v:            make([][]float64, len(params)),
	}
	for i, p := range params {
		a.m[i] = make([]float64, len(p.Value))
		a.v[i] = make([]float64, len(p.Value))
	}
	return a
}

// Step applies one update using the gradients currently stored in params.
func (a *Adam) Step() {
	a.step++
	t := float64(a.step)
	lr := a.LearningRate * math.Sqrt(1-math.Pow(a.Beta2, t)) / (1 - math.Pow(a.Beta1, t))

	for i, p := range a.params {
		m, v := a.m[i], a.v[i]
		for k, g := range p.Grad {
			m[k] = a.Beta1*m[k] + (1-a.Beta1)*g
			v[k] = a.Beta2*v[k] + (1-a.Beta2)*g*g
			p.Value[k] -= lr * m[k] / (math.Sqrt(v[k]) + a.Epsilon)
		}
	}
}
