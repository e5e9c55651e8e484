// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/senergy/internal/recommend/embedding"
)

const (
	currentFile    = "CURRENT"
	generationsDir = "generations"
	manifestFile   = "manifest.json"
	artifactExt    = ".gob.gz"
	tmpPrefix      = ".tmp-"
)

// FileStore keeps generations as directories:
//
//	{baseDir}/CURRENT                       version of the current generation
//	{baseDir}/generations/{version}/*.gob.gz one envelope per artifact
//	{baseDir}/generations/{version}/manifest.json
type FileStore struct {
	baseDir string
	keep    int
	logger  zerolog.Logger
	now     func() time.Time

	mu sync.Mutex
}

// NewFileStore creates a file-backed store rooted at baseDir.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewFileStore(baseDir string, keep int, logger zerolog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(baseDir, generationsDir), 0o750); err != nil { //nolint:gosec // 0750 is acceptable for model storage
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	if keep < 1 {
		keep = 1
	}

	s := &FileStore{
		baseDir: baseDir,
		keep:    keep,
		logger:  logger.With().Str("component", "model_store").Str("backend", "file").Logger(),
		now:     time.Now,
	}
	s.removeLeftovers()
	return s, nil
}

// Save writes snap into a temporary directory, renames it into place, and
// then atomically replaces CURRENT.
func (s *FileStore) Save(ctx context.Context, snap *embedding.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	gen, err := encodeSnapshot(snap, s.now())
	if err != nil {
		return err
	}
	version := gen.meta.Version
	fail := func(artifact string, err error) error {
		return &PersistenceError{Op: "save", Generation: version, Artifact: artifact, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.MkdirTemp(s.baseDir, tmpPrefix+version+"-")
	if err != nil {
		return fail("", fmt.Errorf("create temp directory: %w", err))
	}
	defer func() { _ = os.RemoveAll(tmp) }() //nolint:errcheck // best-effort cleanup; a successful save has already renamed tmp

	for _, name := range artifactNames {
		if err := writeFileSync(filepath.Join(tmp, name+artifactExt), gen.artifacts[name]); err != nil {
			return fail(name, err)
		}
	}
	manifest, err := json.Marshal(gen.meta)
	if err != nil {
		return fail(manifestFile, err)
	}
	if err := writeFileSync(filepath.Join(tmp, manifestFile), manifest); err != nil {
		return fail(manifestFile, err)
	}

	final := s.generationDir(version)
	if err := os.Rename(tmp, final); err != nil {
		return fail("", fmt.Errorf("publish generation: %w", err))
	}

	pointerTmp := filepath.Join(s.baseDir, tmpPrefix+currentFile)
	if err := writeFileSync(pointerTmp, []byte(version)); err != nil {
		return fail(currentFile, err)
	}
	if err := os.Rename(pointerTmp, filepath.Join(s.baseDir, currentFile)); err != nil {
		return fail(currentFile, fmt.Errorf("replace current pointer: %w", err))
	}

	s.logger.Info().
		Str("version", version).
		Str("path", final).
		Int64("size_bytes", gen.meta.SizeBytes).
		Msg("saved model generation")

	if err := s.prune(version); err != nil {
		s.logger.Warn().Err(err).Msg("failed to prune old model generations")
	}
	return nil
}

// Load returns the current generation.
func (s *FileStore) Load(ctx context.Context) (*embedding.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	version, err := s.readCurrent()
	if err != nil {
		return nil, err
	}

	dir := s.generationDir(version)
	return decodeSnapshot(version, func(name string) ([]byte, error) {
		data, err := os.ReadFile(filepath.Join(dir, name+artifactExt)) //nolint:gosec // path is built from the stored generation name
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return data, err
	})
}

// Current returns the manifest of the current generation.
func (s *FileStore) Current(ctx context.Context) (*ModelMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	version, err := s.readCurrent()
	if err != nil {
		return nil, err
	}
	meta, err := readManifest(s.generationDir(version))
	if err != nil {
		return nil, &PersistenceError{Op: "load", Generation: version, Artifact: manifestFile, Err: err}
	}
	return meta, nil
}

// Close is a no-op.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) generationDir(version string) string {
	return filepath.Join(s.baseDir, generationsDir, version)
}

func (s *FileStore) readCurrent() (string, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, currentFile))
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrModelNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read current pointer: %w", err)
	}

	version := strings.TrimSpace(string(data))
	if version == "" || strings.ContainsAny(version, `/\`) || strings.Contains(version, "..") {
		return "", &PersistenceError{Op: "load", Artifact: currentFile, Err: fmt.Errorf("invalid generation name %q", version)}
	}
	return version, nil
}

func readManifest(dir string) (*ModelMetadata, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFile)) //nolint:gosec // path is built from a stored generation name
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrModelNotFound
	}
	if err != nil {
		return nil, err
	}
	var meta ModelMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &meta, nil
}

func (s *FileStore) prune(current string) error {
	entries, err := os.ReadDir(filepath.Join(s.baseDir, generationsDir))
	if err != nil {
		return fmt.Errorf("read directory: %w", err)
	}

	var gens []ModelMetadata
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := readManifest(s.generationDir(entry.Name()))
		if err != nil {
			// A generation without a manifest was never fully written.
			if rmErr := os.RemoveAll(s.generationDir(entry.Name())); rmErr != nil {
				return rmErr
			}
			continue
		}
		gens = append(gens, *meta)
	}

	for _, version := range stale(gens, current, s.keep) {
		if err := os.RemoveAll(s.generationDir(version)); err != nil {
			return fmt.Errorf("delete generation %s: %w", version, err)
		}
		s.logger.Debug().Str("version", version).Msg("pruned model generation")
	}
	return nil
}

// removeLeftovers deletes temp directories from interrupted saves.
func (s *FileStore) removeLeftovers() {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), tmpPrefix) {
			_ = os.RemoveAll(filepath.Join(s.baseDir, entry.Name())) //nolint:errcheck // best-effort cleanup
		}
	}
}

func writeFileSync(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600) //nolint:gosec // path is built by the store
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close() //nolint:errcheck // write error takes precedence
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close() //nolint:errcheck // sync error takes precedence
		return err
	}
	return f.Close()
}
