// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package nn

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Dense is a fully connected layer computing x·W + b.
type Dense struct {
	name    string
	in, out int

	w     *mat.Dense // in x out
	b     []float64
	gradW *mat.Dense
	gradB []float64

	input *mat.Dense
}

// NewDense creates a dense layer with Glorot-uniform weights and zero bias.
func NewDense(name string, in, out int, rng *rand.Rand) *Dense {
	limit := math.Sqrt(6.0 / float64(in+out))
	w := make([]float64, in*out)
	for i := range w {
		w[i] = (rng.Float64()*2 - 1) * limit
	}
	return &Dense{
		name:  name,
		in:    in,
		out:   out,
		w:     mat.NewDense(in, out, w),
		b:     make([]float64, out),
		gradW: mat.NewDense(in, out, nil),
		gradB: make([]float64, out),
	}
}

// In returns the input width.
func (d *Dense) In() int { return d.in }

// Out returns the output width.
func (d *Dense) Out() int { return d.out }

func (d *Dense) affine(x *mat.Dense) *mat.Dense {
	n, _ := x.Dims()
	z := mat.NewDense(n, d.out, nil)
	z.Mul(x, d.w)
	data := rawData(z)
	for i := 0; i < n; i++ {
		row := data[i*d.out : (i+1)*d.out]
		for j := range row {
			row[j] += d.b[j]
		}
	}
	return z
}

// Forward implements Layer.
func (d *Dense) Forward(x *mat.Dense) *mat.Dense {
	d.input = x
	return d.affine(x)
}

// Infer implements Layer.
func (d *Dense) Infer(x *mat.Dense) *mat.Dense {
	return d.affine(x)
}

// Backward implements Layer.
func (d *Dense) Backward(dy *mat.Dense) *mat.Dense {
	n, _ := dy.Dims()
	d.gradW.Mul(d.input.T(), dy)

	for j := range d.gradB {
		d.gradB[j] = 0
	}
	data := rawData(dy)
	for i := 0; i < n; i++ {
		row := data[i*d.out : (i+1)*d.out]
		for j, v := range row {
			d.gradB[j] += v
		}
	}

	dx := mat.NewDense(n, d.in, nil)
	dx.Mul(dy, d.w.T())
	return dx
}

// Params implements Layer.
func (d *Dense) Params() []Param {
	return []Param{
		{Value: rawData(d.w), Grad: rawData(d.gradW)},
		{Value: d.b, Grad: d.gradB},
	}
}

// Tensors implements Layer.
func (d *Dense) Tensors() []Tensor {
	return []Tensor{
		{Name: d.name + "/kernel", Data: rawData(d.w)},
		{Name: d.name + "/bias", Data: d.b},
	}
}
