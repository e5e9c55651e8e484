// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package embedding

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"slices"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/tomtom215/senergy/internal/recommend/features"
	"github.com/tomtom215/senergy/internal/recommend/nn"
)

// Metadata accumulates across training passes. Histories are append-only.
type Metadata struct {
	TotalSamplesSeen      int       `json:"total_samples"`
	LastTrained           time.Time `json:"last_trained"`
	EpochsCompleted       int       `json:"epochs_completed"`
	LossHistory           []float64 `json:"loss_history"`
	ValidationLossHistory []float64 `json:"val_loss_history"`
}

// HasTrained reports whether a training timestamp has been recorded.
//
//nolint:gocritic // hugeParam: value receiver for read-only accessor
func (m Metadata) HasTrained() bool {
	return !m.LastTrained.IsZero()
}

// Clone returns a deep copy.
//
//nolint:gocritic // hugeParam: value receiver for read-only accessor
func (m Metadata) Clone() Metadata {
	m.LossHistory = slices.Clone(m.LossHistory)
	m.ValidationLossHistory = slices.Clone(m.ValidationLossHistory)
	return m
}

// Snapshot is one consistent model: network weights, the scaling statistics
// and identity maps they were trained against, and cumulative metadata.
// A snapshot is immutable once built; training produces a new one.
type Snapshot struct {
	version      string
	createdAt    time.Time
	net          *network
	userScaling  *features.ScalingStatistics
	placeScaling *features.ScalingStatistics
	userMap      *IdentityMap
	placeMap     *IdentityMap
	metadata     Metadata
}

// Version returns the unique identifier of the training pass.
func (s *Snapshot) Version() string { return s.version }

// CreatedAt returns when the snapshot was built.
func (s *Snapshot) CreatedAt() time.Time { return s.createdAt }

// Architecture returns the network architecture.
func (s *Snapshot) Architecture() Architecture { return s.net.arch.Clone() }

// Metadata returns a copy of the training metadata.
func (s *Snapshot) Metadata() Metadata { return s.metadata.Clone() }

// KnownUsers returns the number of users with an embedding.
func (s *Snapshot) KnownUsers() int { return s.userMap.Len() }

// KnownPlaces returns the number of places with an embedding.
func (s *Snapshot) KnownPlaces() int { return s.placeMap.Len() }

// KnowsUser reports whether userID was seen during training.
func (s *Snapshot) KnowsUser(userID string) bool { return s.userMap.Contains(userID) }

// KnowsPlace reports whether placeID was seen during training.
func (s *Snapshot) KnowsPlace(placeID string) bool { return s.placeMap.Contains(placeID) }

// ParameterCount returns the number of trainable weights.
func (s *Snapshot) ParameterCount() int { return s.net.parameterCount() }

// Predict estimates the rating userID would give placeID. Unknown identifiers
// use the cold-start embedding index; the supplied aggregates are encoded and
// scaled with this snapshot's statistics. The result is clamped to [1, 10].
//
// Predict is safe for concurrent use.
//
//nolint:gocritic // hugeParam: aggregates are passed by value intentionally
func (s *Snapshot) Predict(userID, placeID string, user features.UserAggregate, place features.PlaceAggregate) (float64, error) {
	if s == nil || s.net == nil {
		return 0, ErrNotTrained
	}

	uf, err := s.userScaling.Apply(features.EncodeUser(user))
	if err != nil {
		return 0, &InferenceError{Err: fmt.Errorf("scale user features: %w", err)}
	}
	pf, err := s.placeScaling.Apply(features.EncodePlace(place))
	if err != nil {
		return 0, &InferenceError{Err: fmt.Errorf("scale place features: %w", err)}
	}

	out, err := s.net.infer(&batch{
		userIdx:   []int{s.userMap.Resolve(userID)},
		userFeat:  mat.NewDense(1, len(uf), uf),
		placeIdx:  []int{s.placeMap.Resolve(placeID)},
		placeFeat: mat.NewDense(1, len(pf), pf),
	})
	if err != nil {
		return 0, &InferenceError{Err: err}
	}

	raw := out.At(0, 0)
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0, &InferenceError{Err: fmt.Errorf("non-finite model output %v", raw)}
	}
	return clamp(raw), nil
}

func clamp(v float64) float64 {
	return math.Max(1.0, math.Min(10.0, v))
}

// State is the persisted form of a Snapshot.
type State struct {
	Version      string
	CreatedAt    time.Time
	Architecture Architecture
	Weights      map[string][]float64
	UserScaling  *features.ScalingStatistics
	PlaceScaling *features.ScalingStatistics
	UserIDs      []string
	PlaceIDs     []string
	Metadata     Metadata
}

// Export returns a deep copy of the snapshot's persisted state.
func (s *Snapshot) Export() *State {
	return &State{
		Version:      s.version,
		CreatedAt:    s.createdAt,
		Architecture: s.net.arch.Clone(),
		Weights:      nn.CopyTensors(s.net.tensors()),
		UserScaling:  s.userScaling.Clone(),
		PlaceScaling: s.placeScaling.Clone(),
		UserIDs:      s.userMap.IDs(),
		PlaceIDs:     s.placeMap.IDs(),
		Metadata:     s.metadata.Clone(),
	}
}

// FromState rebuilds a snapshot. Every artifact must be present and the
// weights must match the identity maps exactly; a partial state is rejected.
func FromState(st *State) (*Snapshot, error) {
	if st == nil {
		return nil, errors.New("nil snapshot state")
	}
	if st.UserScaling == nil || st.PlaceScaling == nil {
		return nil, errors.New("snapshot state is missing scaling statistics")
	}
	if st.UserScaling.Dim() != features.UserFeatureDim || st.PlaceScaling.Dim() != features.PlaceFeatureDim {
		return nil, fmt.Errorf("scaling statistics have dimensions %d/%d, expected %d/%d",
			st.UserScaling.Dim(), st.PlaceScaling.Dim(), features.UserFeatureDim, features.PlaceFeatureDim)
	}
	if len(st.UserIDs) == 0 || len(st.PlaceIDs) == 0 {
		return nil, errors.New("snapshot state has empty identity maps")
	}
	if err := st.Architecture.Validate(); err != nil {
		return nil, fmt.Errorf("invalid architecture: %w", err)
	}

	userMap, err := IdentityMapFromIDs(st.UserIDs)
	if err != nil {
		return nil, err
	}
	placeMap, err := IdentityMapFromIDs(st.PlaceIDs)
	if err != nil {
		return nil, err
	}

	net := newNetwork(st.Architecture, userMap.Len(), placeMap.Len(), rand.New(rand.NewSource(0))) //nolint:gosec // weights are overwritten below
	if err := nn.LoadTensors(net.tensors(), st.Weights, nil); err != nil {
		return nil, fmt.Errorf("load weights: %w", err)
	}

	return &Snapshot{
		version:      st.Version,
		createdAt:    st.CreatedAt,
		net:          net,
		userScaling:  st.UserScaling.Clone(),
		placeScaling: st.PlaceScaling.Clone(),
		userMap:      userMap,
		placeMap:     placeMap,
		metadata:     st.Metadata.Clone(),
	}, nil
}
