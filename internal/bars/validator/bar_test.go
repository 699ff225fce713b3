package validator

import (
	"errors"
	"strings"
	"testing"

	"barhop/pkg/logger"
	"barhop/pkg/model"
)

func TestBarValidator_Validate(t *testing.T) {
	v := NewBarValidator(logger.NewNop())

	tests := []struct {
		name        string
		bar         *model.Bar
		expectValid bool
		field       string
	}{
		{
			name:        "empty bar",
			bar:         &model.Bar{},
			expectValid: true,
		},
		{
			name:        "consistent visitors",
			bar:         &model.Bar{YelpID: "abc", Visitors: []string{"u1", "u2"}, VisitorsCount: 2},
			expectValid: true,
		},
		{
			name:        "empty visitor id",
			bar:         &model.Bar{Visitors: []string{""}, VisitorsCount: 1},
			expectValid: false,
			field:       "visitors[0]",
		},
		{
			name:        "negative count",
			bar:         &model.Bar{VisitorsCount: -1},
			expectValid: false,
			field:       "visitorsCount",
		},
		{
			name:        "yelpId too long",
			bar:         &model.Bar{YelpID: model.ExternalID(strings.Repeat("x", 257))},
			expectValid: false,
			field:       "yelpId",
		},
		{
			name:        "count out of step",
			bar:         &model.Bar{Visitors: []string{"u1", "u2", "u3"}, VisitorsCount: 5},
			expectValid: false,
			field:       "visitorsCount",
		},
		{
			name:        "duplicate visitors",
			bar:         &model.Bar{Visitors: []string{"u1", "u1"}, VisitorsCount: 2},
			expectValid: false,
			field:       "visitors",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.bar)
			if tt.expectValid {
				if err != nil {
					t.Fatalf("expected valid bar, got %v", err)
				}
				return
			}

			var errs ValidationErrors
			if !errors.As(err, &errs) {
				t.Fatalf("expected ValidationErrors, got %T (%v)", err, err)
			}
			if _, ok := errs.Fields()[tt.field]; !ok {
				t.Errorf("expected error on field %q, got %v", tt.field, errs.Fields())
			}
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	var empty ValidationErrors
	if empty.Error() != "" {
		t.Errorf("expected empty message, got %q", empty.Error())
	}

	errs := ValidationErrors{
		{Field: "visitorsCount", Message: "must be at least 0"},
		{Field: "yelpId", Message: "must be at most 256 characters"},
	}
	want := "validation failed: visitorsCount: must be at least 0; yelpId: must be at most 256 characters"
	if errs.Error() != want {
		t.Errorf("Error() = %q, want %q", errs.Error(), want)
	}
}

func TestFieldPath(t *testing.T) {
	cases := map[string]string{
		"Bar.visitors[0]": "visitors[0]",
		"Bar.yelpId":      "yelpId",
		"yelpId":          "yelpId",
	}
	for in, want := range cases {
		if got := fieldPath(in); got != want {
			t.Errorf("fieldPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBarValidator_ValidateVisit(t *testing.T) {
	v := NewBarValidator(logger.NewNop())
	long := strings.Repeat("u", 257)

	tests := []struct {
		name       string
		externalID string
		userID     string
		field      string
	}{
		{name: "valid", externalID: "abc", userID: "u1"},
		{name: "at limit", externalID: strings.Repeat("y", 256), userID: strings.Repeat("u", 256)},
		{name: "missing bar", externalID: "", userID: "u1", field: "externalId"},
		{name: "missing user", externalID: "abc", userID: "", field: "userId"},
		{name: "user too long", externalID: "abc", userID: long, field: "userId"},
		{name: "bar too long", externalID: long, userID: "u1", field: "externalId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateVisit(tt.externalID, tt.userID)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("expected valid, got %v", err)
				}
				return
			}
			var errs ValidationErrors
			if !errors.As(err, &errs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			if _, ok := errs.Fields()[tt.field]; !ok {
				t.Errorf("expected error on %s, got %v", tt.field, errs.Fields())
			}
		})
	}
}
