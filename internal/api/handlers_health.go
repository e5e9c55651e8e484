// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package api

import (
	"net/http"

	"github.com/tomtom215/senergy/internal/models"
)

// Health handles GET /health. The service is healthy without a model;
// predictions then fall back to the heuristic.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	st := h.engine.Status()

	respondJSON(w, http.StatusOK, &models.HealthResponse{
		Status:      "healthy",
		ModelLoaded: st.ModelLoaded,
		Training:    st.Training.IsTraining,
		ModelStats: models.ModelStats{
			TotalSamples: st.TotalSamplesSeen,
			LastTrained:  st.LastTrained,
			Epochs:       st.EpochsCompleted,
		},
		Timestamp: h.now().UTC(),
	})
}
