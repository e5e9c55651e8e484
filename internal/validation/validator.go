// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

// Package validation provides struct validation for HTTP request bodies
// using go-playground/validator v10.
//
// Field names in messages are the JSON names, and nested fields carry their
// path, so a batch item reports "predictions[2].placeId is required".
//
//	var req models.PredictRequest
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    respondValidationError(w, verr)
//	    return
//	}
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is a single field validation failure.
type FieldError struct {
	field   string
	tag     string
	param   string
	message string
}

// Field returns the JSON path of the field that failed validation.
func (e *FieldError) Field() string { return e.field }

// Tag returns the validation tag that failed.
func (e *FieldError) Tag() string { return e.tag }

// Param returns the tag parameter ("1" for "min=1").
func (e *FieldError) Param() string { return e.param }

// Error returns a human-readable message.
func (e *FieldError) Error() string { return e.message }

// RequestValidationError collects every field failure of one request.
type RequestValidationError struct {
	errors []FieldError
}

// Errors returns the individual field failures.
func (ve *RequestValidationError) Errors() []FieldError {
	return ve.errors
}

// MissingFields returns the fields that failed the required tag, in
// declaration order.
func (ve *RequestValidationError) MissingFields() []string {
	var out []string
	for i := range ve.errors {
		if ve.errors[i].tag == "required" {
			out = append(out, ve.errors[i].field)
		}
	}
	return out
}

// Error reports missing fields together, followed by any other failures.
func (ve *RequestValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}

	var parts []string
	if missing := ve.MissingFields(); len(missing) > 0 {
		parts = append(parts, "Missing required fields: "+strings.Join(missing, ", "))
	}
	for i := range ve.errors {
		if ve.errors[i].tag != "required" {
			parts = append(parts, ve.errors[i].message)
		}
	}
	return strings.Join(parts, "; ")
}

// Details returns the failures in a form suitable for an error response.
func (ve *RequestValidationError) Details() map[string]interface{} {
	fields := make([]map[string]string, len(ve.errors))
	for i := range ve.errors {
		fields[i] = map[string]string{
			"field":   ve.errors[i].field,
			"tag":     ve.errors[i].tag,
			"message": ve.errors[i].message,
		}
	}
	return map[string]interface{}{"fields": fields}
}

// GetValidator returns the singleton validator instance.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonFieldName)

		// identifier: a user or place id with at least one visible character.
		if err := validate.RegisterValidation("identifier", validIdentifier); err != nil {
			panic(fmt.Sprintf("register identifier validator: %v", err))
		}
	})

	return validate
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	default:
		return name
	}
}

func validIdentifier(fl validator.FieldLevel) bool {
	return strings.IndexFunc(fl.Field().String(), func(r rune) bool {
		return !unicode.IsSpace(r)
	}) >= 0
}

// ValidateStruct validates s. Returns nil if validation passes.
func ValidateStruct(s interface{}) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return &RequestValidationError{
			errors: []FieldError{{field: "body", tag: "invalid", message: err.Error()}},
		}
	}

	out := make([]FieldError, len(validationErrs))
	for i, fe := range validationErrs {
		field := fieldPath(fe.Namespace())
		out[i] = FieldError{
			field:   field,
			tag:     fe.Tag(),
			param:   fe.Param(),
			message: translateError(fe, field),
		}
	}
	return &RequestValidationError{errors: out}
}

// fieldPath drops the top-level struct name from a validator namespace:
// "BatchPredictRequest.predictions[0].userId" becomes "predictions[0].userId".
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

var errorMessageTemplates = map[string]string{
	"required":   "%s is required",
	"identifier": "%s must not be blank",
}

var errorMessageWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
	"gt":    "%s must be greater than %s",
	"lt":    "%s must be less than %s",
}

func translateError(fe validator.FieldError, field string) string {
	tag := fe.Tag()
	if template, ok := errorMessageTemplates[tag]; ok {
		return fmt.Sprintf(template, field)
	}
	if template, ok := errorMessageWithParam[tag]; ok {
		return fmt.Sprintf(template, field, fe.Param())
	}
	return translateMinMax(fe, field)
}

// translateMinMax handles min/max with kind-specific wording.
func translateMinMax(fe validator.FieldError, field string) string {
	var unit string
	switch fe.Kind() {
	case reflect.String:
		unit = " characters"
	case reflect.Slice, reflect.Array, reflect.Map:
		unit = " items"
	}

	switch fe.Tag() {
	case "min":
		if unit == " items" && fe.Param() == "1" {
			return field + " must not be empty"
		}
		return fmt.Sprintf("%s must be at least %s%s", field, fe.Param(), unit)
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", field, fe.Param(), unit)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
