// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/senergy/internal/logging"
	"github.com/tomtom215/senergy/internal/models"
	"github.com/tomtom215/senergy/internal/recommend"
)

// ModelInfo handles GET /model/info. Without a loaded model it answers 404.
func (h *Handler) ModelInfo(w http.ResponseWriter, _ *http.Request) {
	st := h.engine.Status()
	if !st.ModelLoaded {
		respondJSON(w, http.StatusNotFound, models.NewErrorResponse(
			models.ErrCodeNoModel, "No model loaded", nil))
		return
	}
	respondJSON(w, http.StatusOK, models.NewModelInfoResponse(st))
}

// TrainModel handles POST /model/train. The pass runs in the background;
// progress is visible through /model/info.
func (h *Handler) TrainModel(w http.ResponseWriter, r *http.Request) {
	if h.trainer == nil {
		respondJSON(w, http.StatusServiceUnavailable, models.NewErrorResponse(
			models.ErrCodeUnavailable, ErrTrainingUnavailable.Error(), nil))
		return
	}

	err := h.trainer.TriggerTraining()
	switch {
	case errors.Is(err, recommend.ErrTrainingInProgress):
		respondJSON(w, http.StatusConflict, models.NewErrorResponse(
			models.ErrCodeTrainingConflict, "Training already in progress", nil))
	case err != nil:
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "Failed to start training", err)
	default:
		logging.Ctx(r.Context()).Info().Msg("Training pass requested over HTTP")
		respondJSON(w, http.StatusAccepted, &models.TrainResponse{
			Success: true,
			Message: "Training started",
		})
	}
}
