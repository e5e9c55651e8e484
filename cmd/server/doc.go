// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

/*
Package main is the entry point for the Senergy prediction service.

Senergy predicts how a user would rate a place by blending a personality
heuristic (ratings from users with a similar adjustment factor) with a
two-tower embedding model trained on the full rating history.

# Application Architecture

	RootSupervisor ("senergy")
	├── ModelSupervisor ("model-layer")
	│   └── RetrainService (fetch ratings, consult policy, train, save, publish)
	└── APISupervisor ("api-layer")
	    └── HTTP Server

Startup order:

 1. Configuration: Koanf v2 defaults, config.yaml, environment variables
 2. Logging: zerolog with JSON or console output
 3. Model store: BadgerDB (default) or file generations
 4. Engine: loads the current model generation if one exists
 5. Rating source: MongoDB (default), DuckDB or a JSON export, behind a
    circuit breaker
 6. Supervisor tree and HTTP server

The service starts without a trained model. Until the first training pass
publishes one, every prediction is heuristic-only and /model/info returns 404.
If the rating source cannot be opened the API still serves; POST /model/train
answers 503 and nothing retrains until the process is restarted.

# Endpoints

	GET  /health          liveness and model summary
	POST /predict         one blended prediction
	POST /batch-predict   many predictions against one model snapshot
	GET  /model/info      model metadata and training status
	POST /model/train     queue a forced training pass
	GET  /metrics         Prometheus metrics

# Example Usage

	export ML_API_PORT=5000
	export RATINGS_SOURCE=mongo
	export MONGO_URI=mongodb://mongo:27017
	./senergy

# Signal Handling

SIGINT and SIGTERM cancel the root context. In-flight requests drain for
HTTP_SHUTDOWN_TIMEOUT, a running training pass is abandoned without publishing, and
the model store is closed last.
*/
package main
