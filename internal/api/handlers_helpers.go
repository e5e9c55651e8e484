// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/senergy/internal/logging"
	"github.com/tomtom215/senergy/internal/models"
	"github.com/tomtom215/senergy/internal/recommend"
	"github.com/tomtom215/senergy/internal/validation"
)

// sanitizeLogValue removes control characters from strings to prevent log
// injection through client-supplied values.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&result, "\\x%02x", r)
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends a JSON response with proper headers.
func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	data, err := json.Marshal(body)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondError sends an error envelope. err is logged, never returned to
// the client.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	if err != nil {
		logging.Ctx(r.Context()).Error().
			Str("code", code).
			Str("path", sanitizeLogValue(r.URL.Path)).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("API error")
	}
	respondJSON(w, status, models.NewErrorResponse(code, message, nil))
}

// respondValidationError sends 400 naming every failed field.
func respondValidationError(w http.ResponseWriter, verr *validation.RequestValidationError) {
	respondJSON(w, http.StatusBadRequest, models.NewErrorResponse(
		models.ErrCodeValidation, verr.Error(), verr.Details()))
}

// decodeJSON reads a JSON body into v and validates it. It writes the
// error response itself and reports whether the handler should continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondJSON(w, http.StatusRequestEntityTooLarge, models.NewErrorResponse(
				models.ErrCodeValidation, fmt.Sprintf("Request body exceeds %d bytes", maxErr.Limit), nil))
			return false
		}
		respondError(w, r, http.StatusBadRequest, models.ErrCodeInvalidJSON, "Failed to read request body", err)
		return false
	}
	if len(bytes.TrimSpace(body)) == 0 {
		respondJSON(w, http.StatusBadRequest, models.NewErrorResponse(
			models.ErrCodeInvalidJSON, ErrEmptyBody.Error(), nil))
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		respondJSON(w, http.StatusBadRequest, models.NewErrorResponse(
			models.ErrCodeInvalidJSON, "Invalid JSON body: "+err.Error(), nil))
		return false
	}

	if verr := validation.ValidateStruct(v); verr != nil {
		respondValidationError(w, verr)
		return false
	}
	return true
}

// respondEngineError maps engine errors to status codes.
func respondEngineError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *recommend.ValidationError
	if errors.As(err, &verr) {
		respondJSON(w, http.StatusBadRequest, models.NewErrorResponse(
			models.ErrCodeValidation, verr.Error(), map[string]interface{}{"fields": verr.Fields}))
		return
	}
	respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, err.Error(), err)
}
