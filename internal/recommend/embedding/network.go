// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package embedding

import (
	"fmt"
	"math/rand"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/tomtom215/senergy/internal/recommend/features"
	"github.com/tomtom215/senergy/internal/recommend/nn"
)

// Architecture describes the two-tower network. Snapshots trained with
// different architectures cannot share weights.
type Architecture struct {
	// EmbeddingDim is the width of the user and place embedding tables.
	// Default: 32.
	EmbeddingDim int `json:"embedding_dim" koanf:"embedding_dim"`

	// TowerHidden is the width of the hidden block in each tower.
	// Default: 64.
	TowerHidden int `json:"tower_hidden" koanf:"tower_hidden"`

	// TowerOutput is the output width of each tower.
	// Default: 32.
	TowerOutput int `json:"tower_output" koanf:"tower_output"`

	// HiddenLayers are the widths of the interaction stack.
	// Default: [128, 64, 32].
	HiddenLayers []int `json:"hidden_layers" koanf:"hidden_layers"`

	// DropoutRate applies to every dropout block.
	// Default: 0.3.
	DropoutRate float64 `json:"dropout_rate" koanf:"dropout_rate"`

	// EmbeddingL2 is the L2 penalty on the embedding tables.
	// Default: 1e-6.
	EmbeddingL2 float64 `json:"embedding_l2" koanf:"embedding_l2"`

	// LearningRate is the initial Adam learning rate.
	// Default: 0.001.
	LearningRate float64 `json:"learning_rate" koanf:"learning_rate"`
}

// DefaultArchitecture returns the production architecture.
func DefaultArchitecture() Architecture {
	return Architecture{
		EmbeddingDim: 32,
		TowerHidden:  64,
		TowerOutput:  32,
		HiddenLayers: []int{128, 64, 32},
		DropoutRate:  0.3,
		EmbeddingL2:  1e-6,
		LearningRate: 0.001,
	}
}

// Validate checks that every width is positive and rates are in range.
//
//nolint:gocritic // hugeParam: value receiver keeps Architecture immutable
func (a Architecture) Validate() error {
	if a.EmbeddingDim < 1 {
		return fmt.Errorf("embedding_dim must be positive, got %d", a.EmbeddingDim)
	}
	if a.TowerHidden < 1 || a.TowerOutput < 1 {
		return fmt.Errorf("tower widths must be positive, got %d and %d", a.TowerHidden, a.TowerOutput)
	}
	for i, w := range a.HiddenLayers {
		if w < 1 {
			return fmt.Errorf("hidden_layers[%d] must be positive, got %d", i, w)
		}
	}
	if a.DropoutRate < 0 || a.DropoutRate >= 1 {
		return fmt.Errorf("dropout_rate must be in [0, 1), got %f", a.DropoutRate)
	}
	if a.EmbeddingL2 < 0 {
		return fmt.Errorf("embedding_l2 must be non-negative, got %f", a.EmbeddingL2)
	}
	if a.LearningRate <= 0 {
		return fmt.Errorf("learning_rate must be positive, got %f", a.LearningRate)
	}
	return nil
}

// Equal reports whether two architectures produce compatible weights.
// The learning rate is not part of the weight layout.
//
//nolint:gocritic // hugeParam: value receiver keeps Architecture immutable
func (a Architecture) Equal(b Architecture) bool {
	return a.EmbeddingDim == b.EmbeddingDim &&
		a.TowerHidden == b.TowerHidden &&
		a.TowerOutput == b.TowerOutput &&
		slices.Equal(a.HiddenLayers, b.HiddenLayers) &&
		a.DropoutRate == b.DropoutRate &&
		a.EmbeddingL2 == b.EmbeddingL2
}

// Clone returns a deep copy.
//
//nolint:gocritic // hugeParam: value receiver keeps Architecture immutable
func (a Architecture) Clone() Architecture {
	a.HiddenLayers = slices.Clone(a.HiddenLayers)
	return a
}

// batch is a set of examples laid out for one forward pass.
type batch struct {
	userIdx   []int
	userFeat  *mat.Dense
	placeIdx  []int
	placeFeat *mat.Dense
}

// network is the two-tower rating model:
//
//	user:  embedding || features -> dense+relu -> bn -> dropout -> dense+relu
//	place: embedding || features -> dense+relu -> bn -> dropout -> dense+relu
//	towers concatenated -> [dense+relu -> bn -> dropout]* -> dense (linear)
type network struct {
	arch Architecture

	userEmb  *nn.Embedding
	placeEmb *nn.Embedding

	userTower   nn.Sequential
	placeTower  nn.Sequential
	interaction nn.Sequential
}

func tower(prefix string, arch Architecture, featureDim int, rng *rand.Rand) nn.Sequential {
	return nn.Sequential{
		nn.NewDense(prefix+"_dense", arch.EmbeddingDim+featureDim, arch.TowerHidden, rng),
		nn.NewReLU(),
		nn.NewBatchNorm(prefix+"_bn", arch.TowerHidden),
		nn.NewDropout(arch.DropoutRate, rng),
		nn.NewDense(prefix+"_tower", arch.TowerHidden, arch.TowerOutput, rng),
		nn.NewReLU(),
	}
}

//nolint:gocritic // hugeParam: Architecture copied once per build
func newNetwork(arch Architecture, users, places int, rng *rand.Rand) *network {
	n := &network{
		arch:       arch.Clone(),
		userEmb:    nn.NewEmbedding("user_embedding", users, arch.EmbeddingDim, arch.EmbeddingL2, rng),
		placeEmb:   nn.NewEmbedding("place_embedding", places, arch.EmbeddingDim, arch.EmbeddingL2, rng),
		userTower:  tower("user", arch, features.UserFeatureDim, rng),
		placeTower: tower("place", arch, features.PlaceFeatureDim, rng),
	}

	width := 2 * arch.TowerOutput
	for i, w := range arch.HiddenLayers {
		n.interaction = append(n.interaction,
			nn.NewDense(fmt.Sprintf("interaction_%d", i), width, w, rng),
			nn.NewReLU(),
			nn.NewBatchNorm(fmt.Sprintf("interaction_bn_%d", i), w),
			nn.NewDropout(arch.DropoutRate, rng),
		)
		width = w
	}
	n.interaction = append(n.interaction, nn.NewDense("rating_prediction", width, 1, rng))
	return n
}

func (n *network) forward(b *batch) (*mat.Dense, error) {
	ue, err := n.userEmb.Forward(b.userIdx)
	if err != nil {
		return nil, err
	}
	pe, err := n.placeEmb.Forward(b.placeIdx)
	if err != nil {
		return nil, err
	}
	uo := n.userTower.Forward(nn.Concat(ue, b.userFeat))
	po := n.placeTower.Forward(nn.Concat(pe, b.placeFeat))
	return n.interaction.Forward(nn.Concat(uo, po)), nil
}

func (n *network) backward(dy *mat.Dense) {
	merged := n.interaction.Backward(dy)
	du, dp := nn.Split(merged, n.arch.TowerOutput)

	dUserIn := n.userTower.Backward(du)
	dUserEmb, _ := nn.Split(dUserIn, n.arch.EmbeddingDim)
	n.userEmb.Backward(dUserEmb)

	dPlaceIn := n.placeTower.Backward(dp)
	dPlaceEmb, _ := nn.Split(dPlaceIn, n.arch.EmbeddingDim)
	n.placeEmb.Backward(dPlaceEmb)
}

func (n *network) infer(b *batch) (*mat.Dense, error) {
	ue, err := n.userEmb.Infer(b.userIdx)
	if err != nil {
		return nil, err
	}
	pe, err := n.placeEmb.Infer(b.placeIdx)
	if err != nil {
		return nil, err
	}
	uo := n.userTower.Infer(nn.Concat(ue, b.userFeat))
	po := n.placeTower.Infer(nn.Concat(pe, b.placeFeat))
	return n.interaction.Infer(nn.Concat(uo, po)), nil
}

func (n *network) penalty() float64 {
	return n.userEmb.Penalty() + n.placeEmb.Penalty()
}

func (n *network) params() []nn.Param {
	var out []nn.Param
	out = append(out, n.userEmb.Params()...)
	out = append(out, n.placeEmb.Params()...)
	out = append(out, n.userTower.Params()...)
	out = append(out, n.placeTower.Params()...)
	out = append(out, n.interaction.Params()...)
	return out
}

func (n *network) tensors() []nn.Tensor {
	var out []nn.Tensor
	out = append(out, n.userEmb.Tensors()...)
	out = append(out, n.placeEmb.Tensors()...)
	out = append(out, n.userTower.Tensors()...)
	out = append(out, n.placeTower.Tensors()...)
	out = append(out, n.interaction.Tensors()...)
	return out
}

// growable names the tensors whose length follows the identity maps.
func (n *network) growable() map[string]bool {
	return map[string]bool{
		n.userEmb.Name():  true,
		n.placeEmb.Name(): true,
	}
}

func (n *network) parameterCount() int {
	var total int
	for _, p := range n.params() {
		total += len(p.Value)
	}
	return total
}
