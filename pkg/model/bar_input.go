package model

import "encoding/json"

// BarInput is the client-writable shape of a bar. Identifier fields are read so that
// they can be stripped explicitly; the path parameter is always authoritative.
type BarInput struct {
	ID            string     `json:"_id,omitempty"`
	AltID         string     `json:"id,omitempty"`
	YelpID        ExternalID `json:"yelpId,omitempty"`
	Visitors      []string   `json:"visitors,omitempty"`
	VisitorsCount *int       `json:"visitorsCount,omitempty"`
}

func (in *BarInput) HasID() bool {
	return in.ID != "" || in.AltID != ""
}

// StripID removes any client supplied identifier.
func (in *BarInput) StripID() {
	in.ID = ""
	in.AltID = ""
}

func (in *BarInput) ToBar() *Bar {
	bar := &Bar{
		YelpID:   in.YelpID,
		Visitors: append([]string(nil), in.Visitors...),
	}
	if in.VisitorsCount != nil {
		bar.VisitorsCount = *in.VisitorsCount
	}
	return bar
}

// PatchOperation is a single RFC 6902 instruction.
type PatchOperation struct {
	Op    string          `json:"op"`
	Path  string          `json:"path"`
	From  string          `json:"from,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}
