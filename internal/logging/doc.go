// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

/*
Package logging provides the process-wide zerolog logger for the prediction
service.

Init configures the global logger once at startup from the logging section
of the service configuration. Components derive child loggers with
WithComponent so every line carries a "component" field:

	logging.Init(logging.Config{Level: "info", Format: "json"})
	logger := logging.WithComponent("retrain")
	logger.Info().Int("ratings", n).Msg("Retrain check started")

HTTP handlers log through Ctx, which adds the request ID stored by the API
middleware:

	logging.Ctx(r.Context()).Warn().Err(err).Msg("Prediction failed")

Libraries that only accept a *slog.Logger (the supervisor tree's event hook)
receive NewSlogLogger, which forwards records to zerolog.
*/
package logging
