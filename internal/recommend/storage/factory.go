// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package storage

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Backend selects the ModelStore implementation.
type Backend string

const (
	// BackendBadger stores generations in an embedded BadgerDB (default).
	BackendBadger Backend = "badger"

	// BackendFile stores generations as directories on disk.
	BackendFile Backend = "file"
)

// Config configures the model store.
type Config struct {
	// Backend is "badger" or "file".
	// Default: badger.
	Backend Backend `koanf:"backend"`

	// Path is the BadgerDB directory or the FileStore root.
	// Default: ./data/models.
	Path string `koanf:"path"`

	// KeepGenerations is how many generations survive pruning.
	// Default: 2.
	KeepGenerations int `koanf:"keep_generations"`
}

// Validate checks the store configuration.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendBadger, BackendFile:
	default:
		return fmt.Errorf("storage backend must be %q or %q, got %q", BackendBadger, BackendFile, c.Backend)
	}
	if c.Path == "" {
		return errors.New("storage path is required")
	}
	if c.KeepGenerations < 1 {
		return fmt.Errorf("keep_generations must be at least 1, got %d", c.KeepGenerations)
	}
	return nil
}

// Open returns the configured ModelStore.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(cfg Config, logger zerolog.Logger) (ModelStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Backend == BackendFile {
		fs, err := NewFileStore(cfg.Path, cfg.KeepGenerations, logger)
		if err != nil {
			return nil, err
		}
		return fs, nil
	}
	bs, err := NewBadgerStore(cfg.Path, cfg.KeepGenerations, logger)
	if err != nil {
		return nil, err
	}
	return bs, nil
}
