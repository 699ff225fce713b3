package sanitizer

import (
	"reflect"
	"strings"
	"testing"
)

func TestNormalizeVisitors(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{
			name:  "trim whitespace",
			input: []string{" u1 ", "u2\t"},
			want:  []string{"u1", "u2"},
		},
		{
			name:  "remove duplicates keeping first-seen order",
			input: []string{"u2", "u1", " u2", "u1"},
			want:  []string{"u2", "u1"},
		},
		{
			name:  "filter empty strings",
			input: []string{"u1", "", "  ", "u3"},
			want:  []string{"u1", "u3"},
		},
		{
			name:  "ids are case sensitive",
			input: []string{"User", "user"},
			want:  []string{"User", "user"},
		},
		{
			name:  "empty input",
			input: []string{},
			want:  []string{},
		},
		{
			name:  "nil input",
			input: nil,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeVisitors(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeVisitors(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeStringSlice_CustomNormalizer(t *testing.T) {
	got := NormalizeStringSlice([]string{"A", "a", "B"}, strings.ToLower)
	want := []string{"a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeStringSlice() = %v, want %v", got, want)
	}
}
