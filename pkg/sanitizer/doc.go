// Package sanitizer normalizes user supplied strings before validation and storage.
//
// All functions are idempotent and never fail: invalid input collapses to an
// empty string or an empty slice.
//
// Normalization includes:
//   - Strings: collapse inner whitespace, trim leading/trailing spaces
//   - Identifiers: trim surrounding whitespace only, inner content is opaque
//   - Slices: drop empty values and duplicates after normalization, keeping first-seen order
package sanitizer
