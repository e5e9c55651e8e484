// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/senergy/internal/metrics"
	"github.com/tomtom215/senergy/internal/ratings"
	"github.com/tomtom215/senergy/internal/recommend"
	"github.com/tomtom215/senergy/internal/recommend/retrain"
)

type trainOptions struct {
	force       bool
	ratingsFile string
	epochs      int
}

// trainReport is printed after a train run.
type trainReport struct {
	Trained  bool                   `json:"trained"`
	Ratings  int                    `json:"ratings"`
	Dropped  int                    `json:"dropped"`
	Decision *retrain.Decision      `json:"decision,omitempty"`
	Result   *recommend.TrainResult `json:"result,omitempty"`
}

func newTrainCmd(c *cli) *cobra.Command {
	opts := &trainOptions{}

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fetch every rating and train the model when the retrain policy says so",
		Long: `train loads the current model generation, fetches the full rating history
from the configured source, drops unusable ratings and consults the retrain
policy. When a pass is due the new model is saved as the next generation.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTrain(cmd, c, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "train even if the retrain policy says the model is up to date")
	cmd.Flags().StringVar(&opts.ratingsFile, "ratings-file", "", "read ratings from a JSON export instead of the configured source")
	cmd.Flags().IntVar(&opts.epochs, "epochs", 0, "override TRAINING_EPOCHS for this run")
	return cmd
}

func runTrain(cmd *cobra.Command, c *cli, opts *trainOptions) error {
	ctx := cmd.Context()

	if opts.epochs > 0 {
		c.cfg.Recommend.Training.Epochs = opts.epochs
	}
	srcCfg := c.cfg.Ratings
	if opts.ratingsFile != "" {
		srcCfg.Kind = ratings.KindFile
		srcCfg.File.Path = opts.ratingsFile
		srcCfg.Breaker.Enabled = false
	}

	engine, store, err := c.openEngine(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	src, err := ratings.Open(ctx, srcCfg, c.logger)
	if err != nil {
		return fmt.Errorf("open rating source: %w", err)
	}
	defer src.Close()

	start := time.Now()
	raw, err := src.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch ratings: %w", err)
	}
	clean, dropped := ratings.Clean(raw)
	metrics.RecordRatingFetch(string(srcCfg.Kind), len(clean), dropped, time.Since(start))
	c.logger.Info().Int("ratings", len(clean)).Int("dropped", dropped).Msg("ratings fetched")

	report := trainReport{Ratings: len(clean), Dropped: dropped}
	if opts.force {
		report.Result, err = engine.Train(ctx, clean)
	} else {
		var d retrain.Decision
		d, report.Result, err = engine.MaybeTrain(ctx, clean)
		if d.Reason != "" {
			report.Decision = &d
		}
	}
	if err != nil {
		if errors.Is(err, recommend.ErrTrainingInProgress) {
			return fmt.Errorf("another training pass holds the model: %w", err)
		}
		return err
	}
	report.Trained = report.Result != nil

	return printJSON(cmd.OutOrStdout(), report)
}
