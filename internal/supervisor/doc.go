// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

/*
Package supervisor provides process supervision for Senergy using suture v4.

The tree separates model maintenance from serving:

	RootSupervisor ("senergy")
	├── ModelSupervisor ("model-layer")
	│   └── RetrainService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Crashed services are restarted with suture's backoff. Failures are counted per
layer, so a retrain loop stuck on an unreachable rating source never restarts
the HTTP server. Predictions keep being served from the last published model.

# Logging

Supervisor events (restarts, backoff, stop timeouts) are logged through
sutureslog. The slog logger comes from logging.NewSlogLogger, which forwards
to the global zerolog logger so every line shares one format:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddModelService(retrainSvc)
	tree.AddAPIService(httpSvc)
	return tree.Serve(ctx)

# Shutdown

Canceling the context passed to Serve stops the API layer and the model layer
in parallel. Each service gets TreeConfig.ShutdownTimeout; services that do not
return in time appear in UnstoppedServiceReport.
*/
package supervisor
