// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package nn

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// ReLU applies max(0, x) elementwise.
type ReLU struct {
	mask []bool
}

// NewReLU creates a ReLU activation.
func NewReLU() *ReLU { return &ReLU{} }

func relu(x *mat.Dense) *mat.Dense {
	out := mat.DenseCopyOf(x)
	data := rawData(out)
	for i, v := range data {
		if v < 0 {
			data[i] = 0
		}
	}
	return out
}

// Forward implements Layer.
func (r *ReLU) Forward(x *mat.Dense) *mat.Dense {
	out := relu(x)
	data := rawData(out)
	if cap(r.mask) < len(data) {
		r.mask = make([]bool, len(data))
	}
	r.mask = r.mask[:len(data)]
	for i, v := range data {
		r.mask[i] = v > 0
	}
	return out
}

// Infer implements Layer.
func (r *ReLU) Infer(x *mat.Dense) *mat.Dense { return relu(x) }

// Backward implements Layer.
func (r *ReLU) Backward(dy *mat.Dense) *mat.Dense {
	dx := mat.DenseCopyOf(dy)
	data := rawData(dx)
	for i := range data {
		if !r.mask[i] {
			data[i] = 0
		}
	}
	return dx
}

// Params implements Layer.
func (r *ReLU) Params() []Param { return nil }

// Tensors implements Layer.
func (r *ReLU) Tensors() []Tensor { return nil }

// Dropout zeroes a fraction of activations while training and scales the
// survivors by 1/(1-rate). It is the identity at inference.
type Dropout struct {
	rate  float64
	rng   *rand.Rand
	scale []float64
}

// NewDropout creates a dropout layer. rng is only used during Forward.
func NewDropout(rate float64, rng *rand.Rand) *Dropout {
	return &Dropout{rate: rate, rng: rng}
}

// Forward implements Layer.
func (d *Dropout) Forward(x *mat.Dense) *mat.Dense {
	out := mat.DenseCopyOf(x)
	data := rawData(out)
	if cap(d.scale) < len(data) {
		d.scale = make([]float64, len(data))
	}
	d.scale = d.scale[:len(data)]

	keep := 1 - d.rate
	for i := range data {
		if d.rate > 0 && d.rng.Float64() < d.rate {
			d.scale[i] = 0
		} else if d.rate > 0 {
			d.scale[i] = 1 / keep
		} else {
			d.scale[i] = 1
		}
		data[i] *= d.scale[i]
	}
	return out
}

// Infer implements Layer.
func (d *Dropout) Infer(x *mat.Dense) *mat.Dense { return x }

// Backward implements Layer.
func (d *Dropout) Backward(dy *mat.Dense) *mat.Dense {
	dx := mat.DenseCopyOf(dy)
	data := rawData(dx)
	for i := range data {
		data[i] *= d.scale[i]
	}
	return dx
}

// Params implements Layer.
func (d *Dropout) Params() []Param { return nil }

// Tensors implements Layer.
func (d *Dropout) Tensors() []Tensor { return nil }
