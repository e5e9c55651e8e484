// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

package validation

import (
	"strings"
	"testing"
)

type testFeatures struct {
	AvgScore float64 `json:"avgScore" validate:"gte=0,lte=10"`
}

type testItem struct {
	UserID   string        `json:"userId" validate:"required,identifier"`
	PlaceID  string        `json:"placeId" validate:"required,identifier"`
	Features *testFeatures `json:"placeFeatures" validate:"required"`
	Note     string        `json:"-" validate:"max=4"`
}

type testBatch struct {
	Items []testItem `json:"predictions" validate:"required,min=1,max=3,dive"`
}

func TestValidateStruct_Valid(t *testing.T) {
	t.Parallel()

	item := testItem{UserID: "u1", PlaceID: "p1", Features: &testFeatures{AvgScore: 7}}
	if verr := ValidateStruct(&item); verr != nil {
		t.Fatalf("ValidateStruct() = %v, want nil", verr)
	}
}

func TestValidateStruct_ReportsEveryMissingField(t *testing.T) {
	t.Parallel()

	verr := ValidateStruct(&testItem{})
	if verr == nil {
		t.Fatal("ValidateStruct() = nil, want error")
	}

	missing := verr.MissingFields()
	want := []string{"userId", "placeId", "placeFeatures"}
	if strings.Join(missing, ",") != strings.Join(want, ",") {
		t.Errorf("MissingFields() = %v, want %v", missing, want)
	}
	if got := verr.Error(); got != "Missing required fields: userId, placeId, placeFeatures" {
		t.Errorf("Error() = %q", got)
	}
}

func TestValidateStruct_Messages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input interface{}
		want  string
	}{
		{
			name:  "blank identifier",
			input: &testItem{UserID: "  ", PlaceID: "p", Features: &testFeatures{}},
			want:  "userId must not be blank",
		},
		{
			name:  "nested range",
			input: &testItem{UserID: "u", PlaceID: "p", Features: &testFeatures{AvgScore: 11}},
			want:  "placeFeatures.avgScore must be less than or equal to 10",
		},
		{
			name:  "string max uses struct name when json is dash",
			input: &testItem{UserID: "u", PlaceID: "p", Features: &testFeatures{}, Note: "too long"},
			want:  "Note must be at most 4 characters",
		},
		{
			name:  "empty batch",
			input: &testBatch{Items: []testItem{}},
			want:  "predictions must not be empty",
		},
		{
			name:  "oversized batch",
			input: &testBatch{Items: make([]testItem, 4)},
			want:  "predictions must be at most 3 items",
		},
		{
			name: "batch item path",
			input: &testBatch{Items: []testItem{
				{UserID: "u", PlaceID: "p", Features: &testFeatures{}},
				{UserID: "u", Features: &testFeatures{}},
			}},
			want: "Missing required fields: predictions[1].placeId",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			verr := ValidateStruct(tt.input)
			if verr == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			if got := verr.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequestValidationError_Details(t *testing.T) {
	t.Parallel()

	verr := ValidateStruct(&testItem{UserID: "u", PlaceID: "p"})
	if verr == nil {
		t.Fatal("ValidateStruct() = nil, want error")
	}

	fields, ok := verr.Details()["fields"].([]map[string]string)
	if !ok || len(fields) != 1 {
		t.Fatalf("Details() = %v", verr.Details())
	}
	if fields[0]["field"] != "placeFeatures" || fields[0]["tag"] != "required" {
		t.Errorf("Details() field = %v", fields[0])
	}
}

func TestFieldPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"PredictRequest.userId", "userId"},
		{"BatchPredictRequest.predictions[0].userId", "predictions[0].userId"},
		{"body", "body"},
	}
	for _, tt := range tests {
		if got := fieldPath(tt.in); got != tt.want {
			t.Errorf("fieldPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
