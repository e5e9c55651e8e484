// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package ratings

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/tomtom215/senergy/internal/recommend/features"
)

// FileSource reads a JSON array of ratings. The file is re-read on every
// Fetch so an export can be replaced between passes.
type FileSource struct {
	path string
}

// NewFileSource reads ratings from path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Fetch decodes the whole file.
func (s *FileSource) Fetch(ctx context.Context) ([]features.Rating, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open ratings file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var out []features.Rating
	if err := json.NewDecoder(f).DecodeContext(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode ratings file %s: %w", s.path, err)
	}
	return out, nil
}

// Close is a no-op.
func (s *FileSource) Close() error { return nil }

// WriteFile stores ratings as a JSON array FileSource can read.
func WriteFile(path string, ratings []features.Rating) error {
	data, err := json.MarshalIndent(ratings, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ratings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write ratings file: %w", err)
	}
	return nil
}
