package errors

import "errors"

var (
	ErrNotFound = errors.New("bar not found")

	ErrInvalidID = errors.New("invalid bar ID format")

	// ErrDuplicateExternalID is returned when a write would create a second bar for
	// the same yelpId.
	ErrDuplicateExternalID = errors.New("bar with this yelpId already exists")
)
