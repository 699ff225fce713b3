package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// ExternalID is the identifier the search provider assigns to a venue. Providers
// are not consistent about its JSON type, so both strings and numbers decode.
type ExternalID string

func (e *ExternalID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*e = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*e = ExternalID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("yelpId must be a string or a number: %w", err)
	}
	*e = ExternalID(n.String())
	return nil
}

func (e ExternalID) String() string {
	return string(e)
}

type Bar struct {
	ID            string     `json:"_id,omitempty" bson:"_id,omitempty"`
	YelpID        ExternalID `json:"yelpId,omitempty" bson:"yelpId,omitempty" validate:"omitempty,max=256"`
	Visitors      []string   `json:"visitors" bson:"visitors" validate:"dive,required,max=256"`
	VisitorsCount int        `json:"visitorsCount" bson:"visitorsCount" validate:"min=0"`
	CreatedAt     time.Time  `json:"createdAt,omitzero" bson:"createdAt,omitempty"`
	UpdatedAt     time.Time  `json:"updatedAt,omitzero" bson:"updatedAt,omitempty"`
}

// HasVisitor reports whether userID is checked in at the bar.
func (b *Bar) HasVisitor(userID string) bool {
	for _, v := range b.Visitors {
		if v == userID {
			return true
		}
	}
	return false
}

// Toggle checks userID in when absent and out when present, keeping the count in step.
func (b *Bar) Toggle(userID string) {
	for i, v := range b.Visitors {
		if v == userID {
			b.Visitors = append(b.Visitors[:i:i], b.Visitors[i+1:]...)
			b.VisitorsCount = len(b.Visitors)
			return
		}
	}
	b.Visitors = append(b.Visitors, userID)
	b.VisitorsCount = len(b.Visitors)
}

// Clone returns a deep copy so callers never share the visitors backing array.
func (b *Bar) Clone() *Bar {
	c := *b
	c.Visitors = append([]string(nil), b.Visitors...)
	if c.Visitors == nil {
		c.Visitors = []string{}
	}
	return &c
}
