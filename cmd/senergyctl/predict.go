// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/senergy/internal/models"
	"github.com/tomtom215/senergy/internal/validation"
)

func newPredictCmd(c *cli) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score one /predict request body against the stored model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, err := readInput(cmd, input)
			if err != nil {
				return err
			}

			var req models.PredictRequest
			if err := json.Unmarshal(body, &req); err != nil {
				return fmt.Errorf("decode request: %w", err)
			}
			if verr := validation.ValidateStruct(&req); verr != nil {
				return verr
			}

			engine, store, err := c.openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			result, err := engine.Predict(req.ToBlendRequest(engine.DefaultWeights()))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), &models.PredictResponse{Success: true, Prediction: &result})
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "-", "request JSON file, - for stdin")
	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is an operator-supplied CLI argument
	if err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}
	return data, nil
}
