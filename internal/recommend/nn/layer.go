// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

// Package nn provides the small set of neural network building blocks the
// rating model needs: dense, batch normalization, dropout, ReLU and embedding
// layers, an Adam optimizer and regression losses.
//
// Matrices are row-major gonum Dense values with one example per row.
//
// # Training and inference
//
// Forward caches whatever Backward needs and must only be used by a single
// training goroutine. Infer is read-only with respect to layer state and is
// safe for concurrent use on a published model.
package nn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Param pairs a trainable value slice with its gradient buffer.
// Both slices alias layer storage.
type Param struct {
	Value []float64
	Grad  []float64
}

// Tensor is a named view over layer storage used for persistence and for
// checkpointing weights during training.
type Tensor struct {
	Name string
	Data []float64
}

// Layer is a differentiable transform over a batch.
type Layer interface {
	// Forward runs the layer in training mode and caches activations.
	Forward(x *mat.Dense) *mat.Dense
	// Backward consumes the upstream gradient from the most recent Forward,
	// fills parameter gradients and returns the gradient w.r.t. the input.
	Backward(dy *mat.Dense) *mat.Dense
	// Infer runs the layer in inference mode without touching any state.
	Infer(x *mat.Dense) *mat.Dense
	// Params returns trainable parameters.
	Params() []Param
	// Tensors returns every persisted buffer, trainable or not.
	Tensors() []Tensor
}

// Sequential chains layers.
type Sequential []Layer

// Forward runs every layer in training mode.
func (s Sequential) Forward(x *mat.Dense) *mat.Dense {
	for _, l := range s {
		x = l.Forward(x)
	}
	return x
}

// Backward propagates dy through the layers in reverse.
func (s Sequential) Backward(dy *mat.Dense) *mat.Dense {
	for i := len(s) - 1; i >= 0; i-- {
		dy = s[i].Backward(dy)
	}
	return dy
}

// Infer runs every layer in inference mode.
func (s Sequential) Infer(x *mat.Dense) *mat.Dense {
	for _, l := range s {
		x = l.Infer(x)
	}
	return x
}

// Params collects the parameters of every layer.
func (s Sequential) Params() []Param {
	var out []Param
	for _, l := range s {
		out = append(out, l.Params()...)
	}
	return out
}

// Tensors collects the tensors of every layer.
func (s Sequential) Tensors() []Tensor {
	var out []Tensor
	for _, l := range s {
		out = append(out, l.Tensors()...)
	}
	return out
}

// Concat places a and b side by side. Both must have the same row count.
func Concat(a, b mat.Matrix) *mat.Dense {
	var out mat.Dense
	out.Augment(a, b)
	return &out
}

// Split divides m column-wise into the first k columns and the rest.
func Split(m *mat.Dense, k int) (left, right *mat.Dense) {
	r, c := m.Dims()
	left = mat.DenseCopyOf(m.Slice(0, r, 0, k))
	right = mat.DenseCopyOf(m.Slice(0, r, k, c))
	return left, right
}

// CopyTensors snapshots tensor contents, e.g. to restore the best weights.
func CopyTensors(ts []Tensor) map[string][]float64 {
	out := make(map[string][]float64, len(ts))
	for _, t := range ts {
		out[t.Name] = append([]float64(nil), t.Data...)
	}
	return out
}

// LoadTensors copies saved values into ts. Tensors whose name is listed in
// growable may be loaded from a shorter source, in which case only the
// prefix is overwritten; every other tensor must match in length.
func LoadTensors(ts []Tensor, saved map[string][]float64, growable map[string]bool) error {
	for _, t := range ts {
		src, ok := saved[t.Name]
		if !ok {
			return fmt.Errorf("tensor %q missing from saved state", t.Name)
		}
		switch {
		case len(src) == len(t.Data):
		case growable[t.Name] && len(src) < len(t.Data):
		default:
			return fmt.Errorf("tensor %q has %d values, expected %d", t.Name, len(src), len(t.Data))
		}
		copy(t.Data, src)
	}
	return nil
}

func rawData(m *mat.Dense) []float64 {
	return m.RawMatrix().Data
}
