// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package ratings

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/duckdb/duckdb-go/v2" // registers the duckdb driver
	"github.com/rs/zerolog"

	"github.com/tomtom215/senergy/internal/recommend/features"
)

// DuckDBSchema creates a ratings table DuckDBSource can read.
const DuckDBSchema = `
CREATE TABLE IF NOT EXISTS %s (
	id                     VARCHAR,
	user_id                VARCHAR NOT NULL,
	place_id               VARCHAR NOT NULL,
	overall_score          DOUBLE NOT NULL,
	user_adjustment_factor DOUBLE NOT NULL DEFAULT 0,
	user_personality_type  VARCHAR,
	crowd_size             DOUBLE,
	noise_level            DOUBLE,
	social_energy          DOUBLE,
	service                DOUBLE,
	atmosphere             DOUBLE
)`

const duckdbSelect = `
SELECT
	COALESCE(id, ''),
	user_id,
	place_id,
	overall_score,
	user_adjustment_factor,
	COALESCE(user_personality_type, ''),
	crowd_size,
	noise_level,
	social_energy,
	service,
	atmosphere
FROM %s`

// DuckDBSource reads ratings from a DuckDB table.
type DuckDBSource struct {
	db     *sql.DB
	table  string
	owned  bool
	logger zerolog.Logger
}

// NewDuckDBSource opens the database at cfg.Path read-only, or an in-memory
// database when the path is empty.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewDuckDBSource(cfg DuckDBConfig, logger zerolog.Logger) (*DuckDBSource, error) {
	if !validIdentifier(cfg.Table) {
		return nil, fmt.Errorf("invalid duckdb table name %q", cfg.Table)
	}

	connStr := ":memory:"
	if cfg.Path != "" {
		connStr = cfg.Path + "?access_mode=read_only"
	}
	db, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	src := NewDuckDBSourceFromDB(db, cfg.Table, logger)
	src.owned = true
	return src, nil
}

// NewDuckDBSourceFromDB reads table from an existing connection. Close does
// not close the caller's database.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewDuckDBSourceFromDB(db *sql.DB, table string, logger zerolog.Logger) *DuckDBSource {
	return &DuckDBSource{
		db:     db,
		table:  table,
		logger: logger.With().Str("component", "ratings").Str("source", "duckdb").Logger(),
	}
}

// Fetch reads every row of the table. NULL category columns become absent
// categories.
func (s *DuckDBSource) Fetch(ctx context.Context) ([]features.Rating, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(duckdbSelect, s.table))
	if err != nil {
		return nil, fmt.Errorf("query ratings: %w", err)
	}
	defer rows.Close()

	var out []features.Rating
	for rows.Next() {
		var (
			r                                         features.Rating
			crowd, noise, social, service, atmosphere sql.NullFloat64
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.PlaceID, &r.OverallScore, &r.UserAdjustmentFactor,
			&r.UserPersonalityType, &crowd, &noise, &social, &service, &atmosphere); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		r.Categories = categoriesFromColumns(crowd, noise, social, service, atmosphere)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ratings: %w", err)
	}

	s.logger.Debug().Int("ratings", len(out)).Str("table", s.table).Msg("fetched ratings")
	return out, nil
}

// Close closes the database if this source opened it.
func (s *DuckDBSource) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

func categoriesFromColumns(cols ...sql.NullFloat64) *features.Categories {
	vals := make([]*float64, len(cols))
	present := false
	for i, c := range cols {
		if c.Valid {
			v := c.Float64
			vals[i] = &v
			present = true
		}
	}
	if !present {
		return nil
	}
	return &features.Categories{
		CrowdSize:    vals[0],
		NoiseLevel:   vals[1],
		SocialEnergy: vals[2],
		Service:      vals[3],
		Atmosphere:   vals[4],
	}
}
