// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

/*
Package services adapts Senergy components to the suture.Service interface.

HTTPServerService turns the blocking ListenAndServe of an *http.Server into a
context-aware Serve with a bounded graceful shutdown.

RetrainService is the training pipeline. On every cycle it fetches the full
rating history from a ratings.Source, drops rows that cannot be trained on and
hands the rest to the engine:

  - scheduled cycles (every CheckInterval, and once at startup when
    TrainOnStartup is set) go through the retrain policy
  - TriggerTraining queues one forced cycle that skips the policy; the HTTP
    API exposes it as POST /model/train

A failing cycle is logged and the loop continues. The engine keeps serving the
last published model, so Serve only returns on shutdown.
*/
package services
