// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tomtom215/senergy/internal/config"
	"github.com/tomtom215/senergy/internal/logging"
	"github.com/tomtom215/senergy/internal/metrics"
	"github.com/tomtom215/senergy/internal/recommend"
	"github.com/tomtom215/senergy/internal/recommend/storage"
)

const app = "senergyctl"

// cli carries state shared by every subcommand.
type cli struct {
	cfgFile  string
	logLevel string
	logJSON  bool

	cfg    *config.Config
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           app,
		Short:         "senergyctl trains and inspects the Senergy rating model",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default: CONFIG_PATH or ./config.yaml)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "override LOG_LEVEL")
	root.PersistentFlags().BoolVarP(&c.logJSON, "json", "j", false, "json format for logging")

	root.AddCommand(
		newTrainCmd(c),
		newStatusCmd(c),
		newPredictCmd(c),
		newVersionCmd(),
	)
	return root
}

func (c *cli) init(cmd *cobra.Command) error {
	if cmd.Name() == "version" {
		return nil
	}

	var err error
	if c.cfgFile != "" {
		c.cfg, err = config.LoadFrom(c.cfgFile)
	} else {
		c.cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = c.cfg.Logging.Level
	if c.logLevel != "" {
		logCfg.Level = c.logLevel
	}
	logCfg.Format = "console"
	if c.logJSON {
		logCfg.Format = "json"
	}
	logCfg.Output = cmd.ErrOrStderr()
	logging.Init(logCfg)

	c.logger = logging.WithComponent(app)
	return nil
}

// openEngine opens the model store and loads the current generation, if any.
func (c *cli) openEngine(ctx context.Context) (*recommend.Engine, storage.ModelStore, error) {
	store, err := storage.Open(c.cfg.Storage, c.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open model store: %w", err)
	}

	engine, err := recommend.NewEngine(c.cfg.EngineConfig(), store, c.logger)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	engine.SetObserver(metrics.EngineObserver{})

	if err := engine.LoadFromStore(ctx); err != nil {
		c.logger.Info().Err(err).Msg("no usable model in store")
	}
	return engine, store, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
