// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package nn

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// embeddingInitRange matches the Keras uniform(-0.05, 0.05) initializer.
const embeddingInitRange = 0.05

// Embedding maps dense integer indices to learned vectors.
// The table is penalized with an L2 term l2*sum(table^2).
type Embedding struct {
	name string
	rows int
	dim  int
	l2   float64

	table []float64
	grad  []float64

	indices []int
}

// NewEmbedding creates a rows x dim table with small uniform values.
func NewEmbedding(name string, rows, dim int, l2 float64, rng *rand.Rand) *Embedding {
	e := &Embedding{
		name:  name,
		rows:  rows,
		dim:   dim,
		l2:    l2,
		table: make([]float64, rows*dim),
		grad:  make([]float64, rows*dim),
	}
	for i := range e.table {
		e.table[i] = (rng.Float64()*2 - 1) * embeddingInitRange
	}
	return e
}

// Rows returns the number of indices the table holds.
func (e *Embedding) Rows() int { return e.rows }

// Name returns the tensor name of the table.
func (e *Embedding) Name() string { return e.name + "/embeddings" }

func (e *Embedding) lookup(indices []int) (*mat.Dense, error) {
	out := mat.NewDense(len(indices), e.dim, nil)
	od := rawData(out)
	for i, idx := range indices {
		if idx < 0 || idx >= e.rows {
			return nil, fmt.Errorf("embedding %s: index %d out of range [0, %d)", e.name, idx, e.rows)
		}
		copy(od[i*e.dim:(i+1)*e.dim], e.table[idx*e.dim:(idx+1)*e.dim])
	}
	return out, nil
}

// Forward looks up indices in training mode.
func (e *Embedding) Forward(indices []int) (*mat.Dense, error) {
	e.indices = indices
	return e.lookup(indices)
}

// Infer looks up indices without touching layer state.
func (e *Embedding) Infer(indices []int) (*mat.Dense, error) {
	return e.lookup(indices)
}

// Backward scatters dy into the table gradient and adds the L2 gradient.
func (e *Embedding) Backward(dy *mat.Dense) {
	for i := range e.grad {
		e.grad[i] = 2 * e.l2 * e.table[i]
	}
	g := rawData(dy)
	for i, idx := range e.indices {
		floats.Add(e.grad[idx*e.dim:(idx+1)*e.dim], g[i*e.dim:(i+1)*e.dim])
	}
}

// Penalty returns the L2 regularization loss of the table.
func (e *Embedding) Penalty() float64 {
	if e.l2 == 0 {
		return 0
	}
	return e.l2 * floats.Dot(e.table, e.table)
}

// Params returns the table as a trainable parameter.
func (e *Embedding) Params() []Param {
	return []Param{{Value: e.table, Grad: e.grad}}
}

// Tensors returns the table for persistence.
func (e *Embedding) Tensors() []Tensor {
	return []Tensor{{Name: e.Name(), Data: e.table}}
}
