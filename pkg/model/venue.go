package model

import (
	"fmt"
	"strconv"
)

const (
	VenueFieldID            = "id"
	VenueFieldVisitors      = "visitors"
	VenueFieldVisitorsCount = "visitorsCount"
	VenueFieldIsCheckedIn   = "isCheckedIn"
)

// Venue is a business record returned by the search provider. The payload is passed
// through untouched apart from the visitor fields merged in by the service.
type Venue map[string]any

// ID returns the provider identifier as a string, whatever its JSON type.
func (v Venue) ID() string {
	switch id := v[VenueFieldID].(type) {
	case nil:
		return ""
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case fmt.Stringer:
		return id.String()
	default:
		return fmt.Sprint(id)
	}
}

// Clone returns a shallow copy of the payload.
func (v Venue) Clone() Venue {
	c := make(Venue, len(v)+3)
	for k, val := range v {
		c[k] = val
	}
	return c
}
