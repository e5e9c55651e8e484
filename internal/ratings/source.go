// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package ratings

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/senergy/internal/recommend/features"
)

// Source returns every stored rating.
type Source interface {
	Fetch(ctx context.Context) ([]features.Rating, error)
	Close() error
}

// Kind selects the Source implementation.
type Kind string

const (
	KindMongo  Kind = "mongo"
	KindDuckDB Kind = "duckdb"
	KindFile   Kind = "file"
)

// Config selects and configures the rating source.
type Config struct {
	// Kind is "mongo", "duckdb" or "file".
	// Default: mongo.
	Kind Kind `koanf:"kind"`

	// FetchTimeout bounds one Fetch call.
	// Default: 2m.
	FetchTimeout time.Duration `koanf:"fetch_timeout"`

	Mongo   MongoConfig   `koanf:"mongo"`
	DuckDB  DuckDBConfig  `koanf:"duckdb"`
	File    FileConfig    `koanf:"file"`
	Breaker BreakerConfig `koanf:"breaker"`
}

// MongoConfig locates the ratings collection.
type MongoConfig struct {
	// URI is the MongoDB connection string.
	// Default: mongodb://localhost:27017.
	URI string `koanf:"uri"`

	// Database holds the ratings collection.
	// Default: senergy.
	Database string `koanf:"database"`

	// Collection holds one document per rating.
	// Default: ratings.
	Collection string `koanf:"collection"`

	// ConnectTimeout bounds the initial connect and ping.
	// Default: 10s.
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
}

// DuckDBConfig locates the ratings table.
type DuckDBConfig struct {
	// Path is the database file. Empty opens an in-memory database.
	Path string `koanf:"path"`

	// Table holds one row per rating.
	// Default: ratings.
	Table string `koanf:"table"`
}

// FileConfig locates a JSON export.
type FileConfig struct {
	// Path is a JSON array of rating objects.
	Path string `koanf:"path"`
}

// BreakerConfig configures the circuit breaker around the source.
type BreakerConfig struct {
	// Enabled wraps the source in a BreakerSource.
	// Default: true.
	Enabled bool `koanf:"enabled"`

	// ConsecutiveFailures opens the breaker.
	// Default: 3.
	ConsecutiveFailures uint32 `koanf:"consecutive_failures"`

	// OpenTimeout is how long the breaker stays open before a trial fetch.
	// Default: 5m.
	OpenTimeout time.Duration `koanf:"open_timeout"`
}

// DefaultConfig returns a MongoDB source on localhost.
func DefaultConfig() Config {
	return Config{
		Kind:         KindMongo,
		FetchTimeout: 2 * time.Minute,
		Mongo: MongoConfig{
			URI:            "mongodb://localhost:27017",
			Database:       "senergy",
			Collection:     "ratings",
			ConnectTimeout: 10 * time.Second,
		},
		DuckDB: DuckDBConfig{
			Table: "ratings",
		},
		Breaker: BreakerConfig{
			Enabled:             true,
			ConsecutiveFailures: 3,
			OpenTimeout:         5 * time.Minute,
		},
	}
}

// Validate checks the settings of the selected kind only.
//
//nolint:gocritic // hugeParam: value receiver for read-only validation
func (c Config) Validate() error {
	if c.FetchTimeout <= 0 {
		return errors.New("fetch_timeout must be positive")
	}
	switch c.Kind {
	case KindMongo:
		if c.Mongo.URI == "" || c.Mongo.Database == "" || c.Mongo.Collection == "" {
			return errors.New("mongo source requires uri, database and collection")
		}
	case KindDuckDB:
		if !validIdentifier(c.DuckDB.Table) {
			return fmt.Errorf("invalid duckdb table name %q", c.DuckDB.Table)
		}
	case KindFile:
		if c.File.Path == "" {
			return errors.New("file source requires a path")
		}
	default:
		return fmt.Errorf("unknown rating source kind %q", c.Kind)
	}
	if c.Breaker.Enabled && (c.Breaker.ConsecutiveFailures == 0 || c.Breaker.OpenTimeout <= 0) {
		return errors.New("breaker requires consecutive_failures and open_timeout")
	}
	return nil
}

// Open builds the configured source, wrapped in a breaker when enabled.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(ctx context.Context, cfg Config, logger zerolog.Logger) (Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		src Source
		err error
	)
	switch cfg.Kind {
	case KindMongo:
		src, err = NewMongoSource(ctx, cfg.Mongo, logger)
	case KindDuckDB:
		src, err = NewDuckDBSource(cfg.DuckDB, logger)
	case KindFile:
		src = NewFileSource(cfg.File.Path)
	}
	if err != nil {
		return nil, err
	}

	src = WithTimeout(src, cfg.FetchTimeout)
	if cfg.Breaker.Enabled {
		src = NewBreakerSource(src, cfg.Breaker, string(cfg.Kind), logger)
	}
	return src, nil
}

type timeoutSource struct {
	Source
	timeout time.Duration
}

// WithTimeout bounds every Fetch of src.
func WithTimeout(src Source, d time.Duration) Source {
	return &timeoutSource{Source: src, timeout: d}
}

func (s *timeoutSource) Fetch(ctx context.Context) ([]features.Rating, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.Source.Fetch(ctx)
}

// Clean returns the ratings that can be trained on and the number dropped.
// A usable rating has both identifiers and a finite overall score in [1, 10].
// Non-finite category values are treated as absent, so they take the neutral
// default during aggregation.
func Clean(in []features.Rating) (out []features.Rating, dropped int) {
	out = make([]features.Rating, 0, len(in))
	for i := range in {
		r := &in[i]
		if r.UserID == "" || r.PlaceID == "" {
			dropped++
			continue
		}
		if math.IsNaN(r.OverallScore) || r.OverallScore < 1 || r.OverallScore > 10 {
			dropped++
			continue
		}
		if math.IsNaN(r.UserAdjustmentFactor) || math.IsInf(r.UserAdjustmentFactor, 0) {
			dropped++
			continue
		}
		kept := *r
		kept.Categories = finiteCategories(r.Categories)
		out = append(out, kept)
	}
	return out, dropped
}

// finiteCategories returns c with non-finite values cleared. c itself is not
// modified.
func finiteCategories(c *features.Categories) *features.Categories {
	if c == nil {
		return nil
	}
	out := *c
	for _, v := range []**float64{&out.CrowdSize, &out.NoiseLevel, &out.SocialEnergy, &out.Service, &out.Atmosphere} {
		if *v != nil && (math.IsNaN(**v) || math.IsInf(**v, 0)) {
			*v = nil
		}
	}
	return &out
}

func validIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
