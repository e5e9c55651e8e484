// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package api

import (
	"net/http"

	"github.com/tomtom215/senergy/internal/logging"
	"github.com/tomtom215/senergy/internal/models"
)

// Predict handles POST /predict.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	var req models.PredictRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.engine.Predict(req.ToBlendRequest(h.engine.DefaultWeights()))
	if err != nil {
		respondEngineError(w, r, err)
		return
	}

	logging.Ctx(r.Context()).Debug().
		Str("user_id", sanitizeLogValue(req.UserID)).
		Str("place_id", sanitizeLogValue(req.PlaceID)).
		Str("method", string(result.Method)).
		Float64("score", result.PredictedScore).
		Msg("Prediction served")

	respondJSON(w, http.StatusOK, &models.PredictResponse{
		Success:    true,
		Prediction: &result,
	})
}

// BatchPredict handles POST /batch-predict. Every item is answered by the
// same model snapshot.
func (h *Handler) BatchPredict(w http.ResponseWriter, r *http.Request) {
	var req models.BatchPredictRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reqs, weights := req.ToBlendRequests(h.engine.DefaultWeights())
	items, err := h.engine.PredictBatch(reqs, weights)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}

	out := make([]models.BatchPrediction, len(items))
	for i := range items {
		out[i] = models.BatchPrediction{
			UserID:     items[i].UserID,
			PlaceID:    items[i].PlaceID,
			Prediction: &items[i].Result,
		}
	}

	respondJSON(w, http.StatusOK, &models.BatchPredictResponse{
		Success:     true,
		Predictions: out,
		Count:       len(out),
	})
}
