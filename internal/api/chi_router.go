// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/senergy/internal/middleware"
	"github.com/tomtom215/senergy/internal/models"
)

// Router wires handlers and middleware into a Chi mux.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router. A nil middleware factory uses defaults.
func NewRouter(handler *Handler, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chiMiddleware: mw}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied in order
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // must be global to answer OPTIONS preflight
	r.Use(APISecurityHeaders())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusNotFound, models.NewErrorResponse("NOT_FOUND", "Not found", nil))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusMethodNotAllowed, models.NewErrorResponse("METHOD_NOT_ALLOWED", "Method not allowed", nil))
	})

	r.With(router.chiMiddleware.RateLimitHealth()).Get("/health", router.handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(router.chiMiddleware.MaxBodyBytes())
		r.Use(middleware.PrometheusMetrics)

		r.Post("/predict", router.handler.Predict)
		r.Post("/batch-predict", router.handler.BatchPredict)

		r.Route("/model", func(r chi.Router) {
			r.Get("/info", router.handler.ModelInfo)
			r.With(router.chiMiddleware.RateLimitTrain()).Post("/train", router.handler.TrainModel)
		})
	})

	return r
}
