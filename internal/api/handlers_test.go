// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/senergy/internal/models"
	"github.com/tomtom215/senergy/internal/recommend"
	"github.com/tomtom215/senergy/internal/recommend/blend"
	"github.com/tomtom215/senergy/internal/recommend/embedding/embeddingtest"
	"github.com/tomtom215/senergy/internal/recommend/storage"
)

const predictBody = `{
	"userId": "user-01",
	"placeId": "place-02",
	"userFeatures": {"adjustmentFactor": 0.5, "personalityType": "Moderate Extrovert", "totalRatings": 10, "avgRating": 7.5},
	"placeFeatures": {"avgScore": 8.0, "avgCrowdSize": 7.0, "avgNoiseLevel": 6.0, "avgSocialEnergy": 8.0, "avgService": 7.5, "avgAtmosphere": 8.5, "totalRatings": 25},
	"similarUsersRatings": [{"userId": "user789", "userAdjustmentFactor": 0.4, "overallScore": 8.5}]
}`

func newTestEngine(t *testing.T, trained bool) *recommend.Engine {
	t.Helper()

	cfg := recommend.DefaultConfig()
	cfg.Architecture = embeddingtest.Architecture()
	cfg.Training = embeddingtest.TrainOptions(2)

	store, err := storage.NewFileStore(t.TempDir(), 2, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	engine, err := recommend.NewEngine(cfg, store, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	if trained {
		if _, err := engine.Train(context.Background(), embeddingtest.Ratings(8, 8, 1)); err != nil {
			t.Fatalf("Train() error = %v", err)
		}
	}
	return engine
}

func newTestRouter(engine PredictionEngine, trainer TrainingTrigger, cfg *ChiMiddlewareConfig) http.Handler {
	if cfg == nil {
		cfg = DefaultChiMiddlewareConfig()
		cfg.RateLimitDisabled = true
	}
	return NewRouter(NewHandler(engine, trainer), NewChiMiddleware(cfg)).SetupChi()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return out
}

// fakeTrainer records triggers and returns err.
type fakeTrainer struct {
	calls int
	err   error
}

func (f *fakeTrainer) TriggerTraining() error {
	f.calls++
	return f.err
}

// failingEngine wraps a real engine and fails predictions.
type failingEngine struct {
	PredictionEngine
}

func (failingEngine) Predict(blend.Request) (blend.Result, error) {
	return blend.Result{}, errors.New("boom")
}

func TestHealth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		trained bool
	}{
		{"without model", false},
		{"with model", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := do(t, newTestRouter(newTestEngine(t, tt.trained), nil, nil), http.MethodGet, "/health", "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}

			got := decode[models.HealthResponse](t, rec)
			if got.Status != "healthy" || got.ModelLoaded != tt.trained {
				t.Errorf("health = %+v", got)
			}
			if tt.trained && (got.ModelStats.TotalSamples == 0 || got.ModelStats.LastTrained == nil) {
				t.Errorf("model_stats = %+v, want populated", got.ModelStats)
			}
			if !tt.trained && got.ModelStats.LastTrained != nil {
				t.Errorf("last_trained = %v, want null", got.ModelStats.LastTrained)
			}
		})
	}
}

func TestModelInfo(t *testing.T) {
	t.Parallel()

	rec := do(t, newTestRouter(newTestEngine(t, false), nil, nil), http.MethodGet, "/model/info", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if got := decode[models.ErrorResponse](t, rec); got.Success || got.Error != "No model loaded" {
		t.Errorf("body = %+v", got)
	}

	rec = do(t, newTestRouter(newTestEngine(t, true), nil, nil), http.MethodGet, "/model/info", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	info := decode[models.ModelInfoResponse](t, rec)
	if !info.Success || !info.Model.Trained || info.Model.UsersInTraining == 0 || info.Model.PlacesInTraining == 0 {
		t.Errorf("model info = %+v", info.Model)
	}
	if info.Model.Version == "" || info.Model.EpochsCompleted == 0 {
		t.Errorf("model info missing version or epochs: %+v", info.Model)
	}
}

func TestPredict_HeuristicOnlyWithoutModel(t *testing.T) {
	t.Parallel()

	rec := do(t, newTestRouter(newTestEngine(t, false), nil, nil), http.MethodPost, "/predict", predictBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	got := decode[models.PredictResponse](t, rec)
	p := got.Prediction
	if !got.Success || p == nil {
		t.Fatalf("response = %s", rec.Body.String())
	}
	if p.Method != blend.MethodHeuristicOnly {
		t.Errorf("method = %q, want heuristic_only", p.Method)
	}
	if p.PredictedScore != 8.5 || p.Confidence != 0.1 {
		t.Errorf("score/confidence = %v/%v, want 8.5/0.1", p.PredictedScore, p.Confidence)
	}
	if p.Breakdown.Model.Available || p.Breakdown.Model.Score != nil {
		t.Errorf("ml breakdown = %+v, want unavailable", p.Breakdown.Model)
	}
	if !strings.Contains(rec.Body.String(), `"score":null`) {
		t.Errorf("unavailable ml score should serialize as null: %s", rec.Body.String())
	}
}

func TestPredict_HybridWithModel(t *testing.T) {
	t.Parallel()

	body := strings.Replace(predictBody, `"similarUsersRatings"`, `"heuristicWeight": 0.5, "mlWeight": 0.5, "similarUsersRatings"`, 1)
	rec := do(t, newTestRouter(newTestEngine(t, true), nil, nil), http.MethodPost, "/predict", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	p := decode[models.PredictResponse](t, rec).Prediction
	if p.Method != blend.MethodHybrid || !p.Breakdown.Model.Available {
		t.Fatalf("prediction = %+v, want hybrid", p)
	}
	if p.Breakdown.Heuristic.Weight != 0.5 || p.Breakdown.Model.Weight != 0.5 {
		t.Errorf("weights = %v/%v, want 0.5/0.5", p.Breakdown.Heuristic.Weight, p.Breakdown.Model.Weight)
	}
	if p.PredictedScore < 1 || p.PredictedScore > 10 {
		t.Errorf("score = %v, outside [1, 10]", p.PredictedScore)
	}
}

func TestPredict_BadRequests(t *testing.T) {
	t.Parallel()

	router := newTestRouter(newTestEngine(t, false), nil, nil)

	tests := []struct {
		name     string
		body     string
		wantCode string
		wantErr  string
	}{
		{"empty body", "", models.ErrCodeInvalidJSON, ErrEmptyBody.Error()},
		{"malformed", "{", models.ErrCodeInvalidJSON, "Invalid JSON body"},
		{
			"missing everything", "{}", models.ErrCodeValidation,
			"Missing required fields: userId, placeId, userFeatures, placeFeatures",
		},
		{
			"missing features", `{"userId": "u", "placeId": "p"}`, models.ErrCodeValidation,
			"Missing required fields: userFeatures, placeFeatures",
		},
		{
			"empty feature objects", `{"userId": "u", "placeId": "p", "userFeatures": {}, "placeFeatures": {}}`,
			models.ErrCodeValidation,
			"Missing required fields: userFeatures.adjustmentFactor, userFeatures.personalityType, " +
				"userFeatures.totalRatings, userFeatures.avgRating, placeFeatures.avgScore, " +
				"placeFeatures.avgCrowdSize, placeFeatures.avgNoiseLevel, placeFeatures.avgSocialEnergy, " +
				"placeFeatures.avgService, placeFeatures.avgAtmosphere, placeFeatures.totalRatings",
		},
		{
			"one missing place feature", strings.Replace(predictBody, `"avgScore": 8.0, `, "", 1),
			models.ErrCodeValidation, "Missing required fields: placeFeatures.avgScore",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := do(t, router, http.MethodPost, "/predict", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (%s)", rec.Code, rec.Body.String())
			}
			got := decode[models.ErrorResponse](t, rec)
			if got.Success || got.Code != tt.wantCode || !strings.Contains(got.Error, tt.wantErr) {
				t.Errorf("body = %+v, want code %s containing %q", got, tt.wantCode, tt.wantErr)
			}
		})
	}
}

func TestPredict_EngineFailure(t *testing.T) {
	t.Parallel()

	rec := do(t, newTestRouter(failingEngine{newTestEngine(t, false)}, nil, nil), http.MethodPost, "/predict", predictBody)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if got := decode[models.ErrorResponse](t, rec); got.Success || got.Error != "boom" {
		t.Errorf("body = %+v", got)
	}
}

func TestBatchPredict(t *testing.T) {
	t.Parallel()

	router := newTestRouter(newTestEngine(t, true), nil, nil)
	item := strings.TrimSpace(predictBody)
	body := `{"predictions": [` + item + `,` + strings.Replace(item, "place-02", "unseen-place", 1) + `], "heuristicWeight": 1, "mlWeight": 0}`

	rec := do(t, router, http.MethodPost, "/batch-predict", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	got := decode[models.BatchPredictResponse](t, rec)
	if !got.Success || got.Count != 2 || len(got.Predictions) != 2 {
		t.Fatalf("response = %+v", got)
	}
	if got.Predictions[1].PlaceID != "unseen-place" {
		t.Errorf("order not preserved: %+v", got.Predictions)
	}
	for _, p := range got.Predictions {
		if p.Prediction.Breakdown.Heuristic.Weight != 1 || p.Prediction.Breakdown.Model.Weight != 0 {
			t.Errorf("batch weights not applied: %+v", p.Prediction.Breakdown)
		}
		// With the model weighted 0, the blend equals the heuristic.
		if p.Prediction.PredictedScore != p.Prediction.Breakdown.Heuristic.Score {
			t.Errorf("score %v != heuristic %v", p.Prediction.PredictedScore, p.Prediction.Breakdown.Heuristic.Score)
		}
	}
}

func TestBatchPredict_BadRequests(t *testing.T) {
	t.Parallel()

	router := newTestRouter(newTestEngine(t, false), nil, nil)

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"missing list", "{}", "Missing required fields: predictions"},
		{"empty list", `{"predictions": []}`, "predictions must not be empty"},
		{"item missing ids", `{"predictions": [{"userFeatures": {}, "placeFeatures": {"avgScore": 8}}]}`,
			"Missing required fields: predictions[0].userId, predictions[0].placeId, " +
				"predictions[0].userFeatures.adjustmentFactor, predictions[0].userFeatures.personalityType, " +
				"predictions[0].userFeatures.totalRatings, predictions[0].userFeatures.avgRating, " +
				"predictions[0].placeFeatures.avgCrowdSize, predictions[0].placeFeatures.avgNoiseLevel, " +
				"predictions[0].placeFeatures.avgSocialEnergy, predictions[0].placeFeatures.avgService, " +
				"predictions[0].placeFeatures.avgAtmosphere, predictions[0].placeFeatures.totalRatings"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := do(t, router, http.MethodPost, "/batch-predict", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if got := decode[models.ErrorResponse](t, rec); got.Error != tt.wantErr {
				t.Errorf("error = %q, want %q", got.Error, tt.wantErr)
			}
		})
	}
}

func TestBatchPredict_OverLimit(t *testing.T) {
	t.Parallel()

	cfg := recommend.DefaultConfig()
	cfg.Architecture = embeddingtest.Architecture()
	cfg.Limits.MaxBatchSize = 1
	store, err := storage.NewFileStore(t.TempDir(), 2, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	engine, err := recommend.NewEngine(cfg, store, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	item := strings.TrimSpace(predictBody)
	rec := do(t, newTestRouter(engine, nil, nil), http.MethodPost, "/batch-predict", `{"predictions": [`+item+`,`+item+`]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := decode[models.ErrorResponse](t, rec); !strings.Contains(got.Error, "limit is 1") {
		t.Errorf("error = %q", got.Error)
	}
}

func TestTrainModel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		trainer    *fakeTrainer
		wantStatus int
	}{
		{"no trainer", nil, http.StatusServiceUnavailable},
		{"accepted", &fakeTrainer{}, http.StatusAccepted},
		{"already running", &fakeTrainer{err: recommend.ErrTrainingInProgress}, http.StatusConflict},
		{"failure", &fakeTrainer{err: errors.New("source down")}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var trainer TrainingTrigger
			if tt.trainer != nil {
				trainer = tt.trainer
			}
			rec := do(t, newTestRouter(newTestEngine(t, false), trainer, nil), http.MethodPost, "/model/train", "")
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.trainer != nil && tt.trainer.calls != 1 {
				t.Errorf("trigger calls = %d, want 1", tt.trainer.calls)
			}
		})
	}
}
