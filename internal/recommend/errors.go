// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package recommend

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTrainingInProgress is returned when a training pass is requested while
// another is running.
var ErrTrainingInProgress = errors.New("training already in progress")

// ValidationError lists every problem with a request.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s", strings.Join(e.Fields, ", "))
}

// add records a problem.
func (e *ValidationError) add(format string, args ...any) {
	e.Fields = append(e.Fields, fmt.Sprintf(format, args...))
}

// orNil returns nil when no problem was recorded.
func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
