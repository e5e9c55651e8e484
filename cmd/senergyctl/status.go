// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/tomtom215/senergy/internal/models"
	"github.com/tomtom215/senergy/internal/recommend/storage"
)

// statusReport is the model info plus the stored generation record.
type statusReport struct {
	*models.ModelInfoResponse
	Generation *storage.ModelMetadata `json:"generation,omitempty"`
}

func newStatusCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current model generation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			engine, store, err := c.openEngine(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			report := statusReport{ModelInfoResponse: models.NewModelInfoResponse(engine.Status())}
			meta, err := store.Current(ctx)
			switch {
			case err == nil:
				report.Generation = meta
			case !errors.Is(err, storage.ErrModelNotFound):
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
}
