// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

/*
Package config provides centralized configuration management for the
prediction service.

Configuration is layered with Koanf v2:

 1. Built-in defaults (DefaultConfig)
 2. An optional YAML file: CONFIG_PATH, else config.yaml, config.yml,
    /etc/senergy/config.yaml, /etc/senergy/config.yml
 3. Environment variables, which override everything

Only mapped environment variables are read; unrelated variables never leak
into the configuration.

# Environment Variables

Server:
  - ML_API_PORT: HTTP port (default: 5000)
  - HTTP_HOST, HTTP_TIMEOUT, HTTP_SHUTDOWN_TIMEOUT, ENVIRONMENT
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT, CORS_ORIGINS

Model storage:
  - MODEL_STORE_BACKEND: badger or file (default: badger)
  - MODEL_STORE_PATH: store directory (default: ./data/models)
  - MODEL_KEEP_GENERATIONS: generations kept after a save (default: 2)

Rating source:
  - RATINGS_SOURCE: mongo, duckdb or file (default: mongo)
  - MONGO_URI, MONGO_DATABASE, MONGO_COLLECTION
  - RATINGS_DUCKDB_PATH, RATINGS_DUCKDB_TABLE, RATINGS_FILE
  - RATINGS_BREAKER_ENABLED, RATINGS_BREAKER_FAILURES, RATINGS_BREAKER_OPEN_TIMEOUT

Prediction engine:
  - HEURISTIC_WEIGHT, ML_WEIGHT: default blend weights (0.7, 0.3)
  - RETRAIN_MIN_NEW_SAMPLES, RETRAIN_MAX_AGE, RETRAIN_CHECK_INTERVAL, TRAIN_ON_STARTUP
  - TRAINING_EPOCHS, TRAINING_BATCH_SIZE, TRAINING_MIN_RATINGS, TRAINING_SEED
  - EMBEDDING_DIM, HIDDEN_LAYERS (comma-separated), LEARNING_RATE

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

# Example

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}
	fmt.Println(cfg.Server.Addr())
*/
package config
