// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package ratings

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tomtom215/senergy/internal/recommend/features"
)

// MongoSource reads rating documents from a MongoDB collection.
type MongoSource struct {
	client *mongo.Client
	col    *mongo.Collection
	owned  bool
	logger zerolog.Logger
}

// NewMongoSource connects to cfg.URI and verifies the connection.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewMongoSource(ctx context.Context, cfg MongoConfig, logger zerolog.Logger) (*MongoSource, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background()) //nolint:contextcheck // cleanup after failed ping
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	src := NewMongoSourceFromCollection(client.Database(cfg.Database).Collection(cfg.Collection), logger)
	src.client = client
	src.owned = true

	src.logger.Info().
		Str("database", cfg.Database).
		Str("collection", cfg.Collection).
		Msg("connected to rating collection")
	return src, nil
}

// NewMongoSourceFromCollection reads from an existing collection. Close does
// not disconnect the caller's client.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewMongoSourceFromCollection(col *mongo.Collection, logger zerolog.Logger) *MongoSource {
	return &MongoSource{
		col:    col,
		logger: logger.With().Str("component", "ratings").Str("source", "mongo").Logger(),
	}
}

// Fetch streams every document in the collection.
func (s *MongoSource) Fetch(ctx context.Context) ([]features.Rating, error) {
	cur, err := s.col.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("find ratings: %w", err)
	}
	defer func() { _ = cur.Close(ctx) }()

	var out []features.Rating
	for cur.Next(ctx) {
		var r features.Rating
		if err := cur.Decode(&r); err != nil {
			return nil, fmt.Errorf("decode rating: %w", err)
		}
		out = append(out, r)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate ratings: %w", err)
	}

	s.logger.Debug().Int("ratings", len(out)).Msg("fetched ratings")
	return out, nil
}

// Close disconnects the client if this source created it.
func (s *MongoSource) Close() error {
	if !s.owned || s.client == nil {
		return nil
	}
	return s.client.Disconnect(context.Background())
}
