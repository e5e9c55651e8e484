// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/senergy/internal/recommend/embedding"
)

// BadgerDB key layout.
const (
	currentKey       = "model:current"
	generationKey    = "model:gen:"
	manifestArtifact = "manifest"
)

func artifactKey(version, artifact string) []byte {
	return []byte(generationKey + version + ":" + artifact)
}

// BadgerStore keeps generations in an embedded BadgerDB.
type BadgerStore struct {
	db     *badger.DB
	keep   int
	logger zerolog.Logger
	now    func() time.Time
}

// NewBadgerStore opens (or creates) a BadgerDB at path. keep is the number of
// generations retained after a save.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBadgerStore(path string, keep int, logger zerolog.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Suppress BadgerDB logs
	opts.SyncWrites = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for models: %w", err)
	}

	return NewBadgerStoreFromDB(db, keep, logger), nil
}

// NewBadgerStoreFromDB wraps an existing BadgerDB connection. Close closes db.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBadgerStoreFromDB(db *badger.DB, keep int, logger zerolog.Logger) *BadgerStore {
	if keep < 1 {
		keep = 1
	}
	return &BadgerStore{
		db:     db,
		keep:   keep,
		logger: logger.With().Str("component", "model_store").Str("backend", "badger").Logger(),
		now:    time.Now,
	}
}

// Save writes every artifact of snap and moves the current pointer in a
// single transaction.
func (s *BadgerStore) Save(ctx context.Context, snap *embedding.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	gen, err := encodeSnapshot(snap, s.now())
	if err != nil {
		return err
	}
	version := gen.meta.Version

	manifest, err := json.Marshal(gen.meta)
	if err != nil {
		return &PersistenceError{Op: "save", Generation: version, Artifact: manifestArtifact, Err: err}
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		for _, name := range artifactNames {
			if err := txn.Set(artifactKey(version, name), gen.artifacts[name]); err != nil {
				return fmt.Errorf("set %s: %w", name, err)
			}
		}
		if err := txn.Set(artifactKey(version, manifestArtifact), manifest); err != nil {
			return fmt.Errorf("set manifest: %w", err)
		}
		if err := txn.Set([]byte(currentKey), []byte(version)); err != nil {
			return fmt.Errorf("set current pointer: %w", err)
		}
		return nil
	})
	if err != nil {
		return &PersistenceError{Op: "save", Generation: version, Err: err}
	}

	s.logger.Info().
		Str("version", version).
		Int64("size_bytes", gen.meta.SizeBytes).
		Int("total_samples", gen.meta.TotalSamples).
		Msg("saved model generation")

	if err := s.prune(version); err != nil {
		s.logger.Warn().Err(err).Msg("failed to prune old model generations")
	}
	return nil
}

// Load returns the current generation.
func (s *BadgerStore) Load(ctx context.Context) (*embedding.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var snap *embedding.Snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		version, err := readCurrent(txn)
		if err != nil {
			return err
		}

		snap, err = decodeSnapshot(version, func(name string) ([]byte, error) {
			item, err := txn.Get(artifactKey(version, name))
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil, nil
			}
			if err != nil {
				return nil, err
			}
			return item.ValueCopy(nil)
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Current returns the manifest of the current generation.
func (s *BadgerStore) Current(ctx context.Context) (*ModelMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var meta ModelMetadata
	err := s.db.View(func(txn *badger.Txn) error {
		version, err := readCurrent(txn)
		if err != nil {
			return err
		}
		item, err := txn.Get(artifactKey(version, manifestArtifact))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return &PersistenceError{Op: "load", Generation: version, Artifact: manifestArtifact, Err: ErrModelNotFound}
		}
		if err != nil {
			return fmt.Errorf("get manifest: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		})
	})
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

// Close closes the underlying BadgerDB.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func readCurrent(txn *badger.Txn) (string, error) {
	item, err := txn.Get([]byte(currentKey))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", ErrModelNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get current pointer: %w", err)
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return "", fmt.Errorf("read current pointer: %w", err)
	}
	return string(val), nil
}

// generations lists the manifests of every stored generation.
func (s *BadgerStore) generations() ([]ModelMetadata, error) {
	var out []ModelMetadata
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(generationKey)
		suffix := ":" + manifestArtifact
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			if !strings.HasSuffix(string(item.Key()), suffix) {
				continue
			}
			var meta ModelMetadata
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &meta)
			}); err != nil {
				return err
			}
			out = append(out, meta)
		}
		return nil
	})
	return out, err
}

// prune deletes generations beyond the retention count.
func (s *BadgerStore) prune(current string) error {
	gens, err := s.generations()
	if err != nil {
		return fmt.Errorf("list generations: %w", err)
	}

	for _, version := range stale(gens, current, s.keep) {
		err := s.db.Update(func(txn *badger.Txn) error {
			for _, name := range artifactNames {
				if err := txn.Delete(artifactKey(version, name)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
					return err
				}
			}
			return txn.Delete(artifactKey(version, manifestArtifact))
		})
		if err != nil {
			return fmt.Errorf("delete generation %s: %w", version, err)
		}
		s.logger.Debug().Str("version", version).Msg("pruned model generation")
	}
	return nil
}
