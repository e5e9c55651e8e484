// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package models

// Error codes carried in ErrorResponse.Code.
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeInvalidJSON      = "INVALID_JSON"
	ErrCodeNoModel          = "NO_MODEL"
	ErrCodeTrainingConflict = "TRAINING_IN_PROGRESS"
	ErrCodeUnavailable      = "SERVICE_UNAVAILABLE"
	ErrCodeRateLimited      = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// ErrorResponse is the body of every failed request.
//
//	{"success": false, "error": "Missing required fields: userId", "code": "VALIDATION_ERROR"}
type ErrorResponse struct {
	Success bool                   `json:"success"`
	Error   string                 `json:"error"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// NewErrorResponse builds a failed response.
func NewErrorResponse(code, message string, details map[string]interface{}) *ErrorResponse {
	return &ErrorResponse{
		Success: false,
		Error:   message,
		Code:    code,
		Details: details,
	}
}
