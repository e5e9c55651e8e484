// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tomtom215/senergy/internal/models"
)

func TestRouter_RequestID(t *testing.T) {
	t.Parallel()

	router := newTestRouter(newTestEngine(t, false), nil, nil)

	rec := do(t, router, http.MethodGet, "/health", "")
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("response has no X-Request-ID")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "upstream-id")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "upstream-id" {
		t.Errorf("X-Request-ID = %q, want upstream-id", got)
	}
}

func TestRouter_NotFoundAndMethodNotAllowed(t *testing.T) {
	t.Parallel()

	router := newTestRouter(newTestEngine(t, false), nil, nil)

	rec := do(t, router, http.MethodGet, "/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown route status = %d, want 404", rec.Code)
	}
	if got := decode[models.ErrorResponse](t, rec); got.Code != "NOT_FOUND" {
		t.Errorf("unknown route body = %+v", got)
	}

	rec = do(t, router, http.MethodGet, "/predict", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /predict status = %d, want 405", rec.Code)
	}
}

func TestRouter_RateLimit(t *testing.T) {
	t.Parallel()

	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitRequests = 1
	router := newTestRouter(newTestEngine(t, false), nil, cfg)

	if rec := do(t, router, http.MethodPost, "/predict", predictBody); rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec.Code)
	}
	rec := do(t, router, http.MethodPost, "/predict", predictBody)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	if got := decode[models.ErrorResponse](t, rec); got.Code != models.ErrCodeRateLimited {
		t.Errorf("body = %+v", got)
	}

	// Health has its own budget.
	if rec := do(t, router, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
}

func TestRouter_MaxBodyBytes(t *testing.T) {
	t.Parallel()

	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitDisabled = true
	cfg.MaxBodyBytes = 64
	router := newTestRouter(newTestEngine(t, false), nil, cfg)

	rec := do(t, router, http.MethodPost, "/predict", predictBody)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	t.Parallel()

	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitDisabled = true
	cfg.CORSAllowedOrigins = []string{"https://app.example"}
	router := newTestRouter(newTestEngine(t, false), nil, cfg)

	req := httptest.NewRequest(http.MethodOptions, "/predict", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestRouter_Metrics(t *testing.T) {
	t.Parallel()

	router := newTestRouter(newTestEngine(t, false), nil, nil)
	do(t, router, http.MethodPost, "/predict", predictBody)

	rec := do(t, router, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "api_requests_total") {
		t.Error("metrics output missing api_requests_total")
	}
}

func TestSanitizeLogValue(t *testing.T) {
	t.Parallel()

	if got := sanitizeLogValue("user\n-forged"); got != `user\x0a-forged` {
		t.Errorf("sanitizeLogValue() = %q", got)
	}
}
