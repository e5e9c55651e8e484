// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package embedding

import (
	"errors"
	"fmt"
)

var (
	// ErrNotTrained is returned by model operations when no model has been
	// trained or loaded.
	ErrNotTrained = errors.New("model not trained")

	// ErrInsufficientData is returned when a training pass has fewer ratings
	// than the configured minimum.
	ErrInsufficientData = errors.New("not enough ratings to train")
)

// Training stages reported by TrainingError.
const (
	StageFetch     = "fetch"
	StageValidate  = "validate"
	StageAggregate = "aggregate"
	StageScaling   = "scaling"
	StageBuild     = "build"
	StageFit       = "fit"
	StageSave      = "save"
)

// InferenceError wraps any failure inside the forward pass.
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("model inference failed: %v", e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// TrainingError reports which stage of a training pass failed.
type TrainingError struct {
	Stage string
	Err   error
}

func (e *TrainingError) Error() string {
	return fmt.Sprintf("training failed at %s stage: %v", e.Stage, e.Err)
}

func (e *TrainingError) Unwrap() error { return e.Err }

func stageError(stage string, err error) error {
	return &TrainingError{Stage: stage, Err: err}
}
