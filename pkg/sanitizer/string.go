package sanitizer

import (
	"strings"
	"unicode"
)

func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

// NormalizeID trims an opaque identifier (user id, yelp id). Inner characters are kept as-is.
func NormalizeID(id string) string {
	return strings.TrimSpace(id)
}

func NormalizeLocation(location string) string {
	return TrimAndNormalize(location)
}

func NormalizeSearchTerm(term string) string {
	return strings.ToLower(TrimAndNormalize(term))
}
