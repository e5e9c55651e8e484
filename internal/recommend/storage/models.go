// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/tomtom215/senergy/internal/recommend/embedding"
	"github.com/tomtom215/senergy/internal/recommend/features"
)

// ErrModelNotFound is returned by Load when no generation has been saved.
var ErrModelNotFound = errors.New("model not found")

// ErrChecksumMismatch marks an artifact whose payload does not match its
// recorded checksum.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// PersistenceError reports a failed save or load. Artifact is empty when the
// failure is not tied to a single artifact.
type PersistenceError struct {
	Op         string
	Generation string
	Artifact   string
	Err        error
}

func (e *PersistenceError) Error() string {
	if e.Artifact != "" {
		return fmt.Sprintf("%s model %s/%s: %v", e.Op, e.Generation, e.Artifact, e.Err)
	}
	return fmt.Sprintf("%s model %s: %v", e.Op, e.Generation, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ModelStore saves and loads complete snapshots.
type ModelStore interface {
	// Save durably writes snap as a new generation and makes it current.
	Save(ctx context.Context, snap *embedding.Snapshot) error

	// Load returns the current generation, ErrModelNotFound, or a
	// *PersistenceError.
	Load(ctx context.Context) (*embedding.Snapshot, error)

	// Current returns the metadata of the current generation.
	Current(ctx context.Context) (*ModelMetadata, error)

	Close() error
}

// ModelMetadata describes a stored generation.
type ModelMetadata struct {
	// Version is the snapshot version, used as the generation name.
	Version string `json:"version"`

	// CreatedAt is when the snapshot was trained.
	CreatedAt time.Time `json:"created_at"`

	// SavedAt is when the generation was written.
	SavedAt time.Time `json:"saved_at"`

	// TotalSamples is the cumulative number of ratings the model has seen.
	TotalSamples int `json:"total_samples"`

	// UserCount is the number of users with an embedding.
	UserCount int `json:"user_count"`

	// PlaceCount is the number of places with an embedding.
	PlaceCount int `json:"place_count"`

	// Checksum is the SHA-256 over the artifact checksums in artifact order.
	Checksum string `json:"checksum"`

	// SizeBytes is the total compressed size of all artifacts.
	SizeBytes int64 `json:"size_bytes"`
}

// Artifact names. The order is fixed and determines the generation checksum.
const (
	artifactNetwork      = "network"
	artifactUserScaling  = "user_scaling"
	artifactPlaceScaling = "place_scaling"
	artifactUserMap      = "user_map"
	artifactPlaceMap     = "place_map"
	artifactMetadata     = "metadata"
)

var artifactNames = []string{
	artifactNetwork,
	artifactUserScaling,
	artifactPlaceScaling,
	artifactUserMap,
	artifactPlaceMap,
	artifactMetadata,
}

// networkArtifact carries the weights together with the identity of the
// training pass that produced them.
type networkArtifact struct {
	Version      string
	CreatedAt    time.Time
	Architecture embedding.Architecture
	Weights      map[string][]float64
}

// envelope is the stored form of one artifact.
type envelope struct {
	Checksum       string
	CompressedData []byte
}

// generation is a snapshot encoded for storage.
type generation struct {
	meta      ModelMetadata
	artifacts map[string][]byte
}

// encodeSnapshot serializes every artifact of snap.
func encodeSnapshot(snap *embedding.Snapshot, savedAt time.Time) (*generation, error) {
	if snap == nil {
		return nil, errors.New("nil snapshot")
	}
	st := snap.Export()

	payloads := map[string]any{
		artifactNetwork: networkArtifact{
			Version:      st.Version,
			CreatedAt:    st.CreatedAt,
			Architecture: st.Architecture,
			Weights:      st.Weights,
		},
		artifactUserScaling:  st.UserScaling,
		artifactPlaceScaling: st.PlaceScaling,
		artifactUserMap:      st.UserIDs,
		artifactPlaceMap:     st.PlaceIDs,
		artifactMetadata:     st.Metadata,
	}

	gen := &generation{
		meta: ModelMetadata{
			Version:      st.Version,
			CreatedAt:    st.CreatedAt,
			SavedAt:      savedAt,
			TotalSamples: st.Metadata.TotalSamplesSeen,
			UserCount:    len(st.UserIDs),
			PlaceCount:   len(st.PlaceIDs),
		},
		artifacts: make(map[string][]byte, len(artifactNames)),
	}

	overall := sha256.New()
	for _, name := range artifactNames {
		data, checksum, err := seal(payloads[name])
		if err != nil {
			return nil, &PersistenceError{Op: "save", Generation: st.Version, Artifact: name, Err: err}
		}
		gen.artifacts[name] = data
		gen.meta.SizeBytes += int64(len(data))
		_, _ = overall.Write([]byte(checksum))
	}
	gen.meta.Checksum = hex.EncodeToString(overall.Sum(nil))

	return gen, nil
}

// decodeSnapshot verifies and rebuilds a snapshot from raw artifacts. fetch
// returns (nil, nil) for a missing artifact.
func decodeSnapshot(version string, fetch func(name string) ([]byte, error)) (*embedding.Snapshot, error) {
	var (
		net      networkArtifact
		st       embedding.State
		userSc   features.ScalingStatistics
		placeSc  features.ScalingStatistics
		targets  = map[string]any{}
		failLoad = func(artifact string, err error) error {
			return &PersistenceError{Op: "load", Generation: version, Artifact: artifact, Err: err}
		}
	)
	targets[artifactNetwork] = &net
	targets[artifactUserScaling] = &userSc
	targets[artifactPlaceScaling] = &placeSc
	targets[artifactUserMap] = &st.UserIDs
	targets[artifactPlaceMap] = &st.PlaceIDs
	targets[artifactMetadata] = &st.Metadata

	for _, name := range artifactNames {
		data, err := fetch(name)
		if err != nil {
			return nil, failLoad(name, err)
		}
		if data == nil {
			return nil, failLoad(name, fmt.Errorf("artifact missing: %w", ErrModelNotFound))
		}
		if err := open(data, targets[name]); err != nil {
			return nil, failLoad(name, err)
		}
	}

	if net.Version != version {
		return nil, failLoad(artifactNetwork, fmt.Errorf("weights belong to generation %q", net.Version))
	}

	st.Version = net.Version
	st.CreatedAt = net.CreatedAt
	st.Architecture = net.Architecture
	st.Weights = net.Weights
	st.UserScaling = &userSc
	st.PlaceScaling = &placeSc

	snap, err := embedding.FromState(&st)
	if err != nil {
		return nil, &PersistenceError{Op: "load", Generation: version, Err: err}
	}
	return snap, nil
}

// seal gob-encodes payload, checksums it, compresses it, and wraps the result
// in an envelope.
func seal(payload any) (data []byte, checksum string, err error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, "", fmt.Errorf("encode artifact: %w", err)
	}
	raw := buf.Bytes()

	hash := sha256.Sum256(raw)
	checksum = hex.EncodeToString(hash[:])

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw); err != nil {
		return nil, "", fmt.Errorf("compress artifact: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return nil, "", fmt.Errorf("finalize compression: %w", err)
	}

	var out bytes.Buffer
	if err := gob.NewEncoder(&out).Encode(envelope{Checksum: checksum, CompressedData: compressed.Bytes()}); err != nil {
		return nil, "", fmt.Errorf("encode envelope: %w", err)
	}
	return out.Bytes(), checksum, nil
}

// open reverses seal into target.
func open(data []byte, target any) error {
	var env envelope
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&env); err != nil {
		return fmt.Errorf("read envelope: %w", err)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(env.CompressedData))
	if err != nil {
		return fmt.Errorf("decompress artifact: %w", err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // error on gzip close after read is not actionable

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return fmt.Errorf("read decompressed data: %w", err)
	}

	hash := sha256.Sum256(raw)
	if got := hex.EncodeToString(hash[:]); got != env.Checksum {
		return fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, env.Checksum, got)
	}

	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(target); err != nil {
		return fmt.Errorf("decode artifact: %w", err)
	}
	return nil
}

// stale returns the generations to delete so that at most keep remain,
// never including current. Newest generations are kept.
func stale(gens []ModelMetadata, current string, keep int) []string {
	if keep < 1 {
		keep = 1
	}
	sort.Slice(gens, func(i, j int) bool { return gens[i].SavedAt.After(gens[j].SavedAt) })

	var out []string
	kept := 0
	for _, g := range gens {
		if g.Version == current || kept < keep {
			kept++
			continue
		}
		out = append(out, g.Version)
	}
	return out
}
