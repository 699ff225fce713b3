package service

import (
	apperrors "barhop/pkg/errors"
	"barhop/pkg/model"
	"barhop/pkg/sanitizer"
	"bytes"
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"
)

const pathVisitorsCount = "/" + model.VenueFieldVisitorsCount

type barPatch struct {
	ops          []model.PatchOperation
	patch        jsonpatch.Patch
	touchesCount bool
}

func decodePatch(raw []byte) (*barPatch, error) {
	var ops []model.PatchOperation
	if err := json.Unmarshal(raw, &ops); err != nil {
		return nil, err
	}

	patch, err := jsonpatch.DecodePatch(raw)
	if err != nil {
		return nil, err
	}

	p := &barPatch{ops: ops, patch: patch}
	for _, op := range ops {
		if op.Op != "test" && op.Path == pathVisitorsCount {
			p.touchesCount = true
		}
	}
	return p, nil
}

// applyPatch runs the operations against the JSON form of bar and writes the result
// back into it. Store maintained fields survive unchanged.
func (s *barService) applyPatch(bar *model.Bar, p *barPatch) error {
	doc, err := json.Marshal(bar)
	if err != nil {
		return apperrors.Internal("Failed to encode bar for patching", err)
	}

	patched, err := p.patch.Apply(doc)
	if err != nil {
		return apperrors.Patch("Patch operation failed", err)
	}

	var next model.Bar
	dec := json.NewDecoder(bytes.NewReader(patched))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&next); err != nil {
		return apperrors.Patch("Patched bar is malformed", err)
	}

	if next.ID != bar.ID {
		return apperrors.Patch("Bar _id is immutable", fmt.Errorf("_id changed from %q to %q", bar.ID, next.ID))
	}

	next.YelpID = model.ExternalID(sanitizer.NormalizeID(next.YelpID.String()))
	next.Visitors = sanitizer.NormalizeVisitors(next.Visitors)
	if p.touchesCount && next.VisitorsCount != len(next.Visitors) {
		return apperrors.Patch("visitorsCount must equal the number of visitors",
			fmt.Errorf("visitorsCount %d, visitors %d", next.VisitorsCount, len(next.Visitors)))
	}
	next.VisitorsCount = len(next.Visitors)

	if err := s.validator.Validate(&next); err != nil {
		return apperrors.Patch("Patched bar failed validation", err).WithDetails(validationDetails(err))
	}

	next.CreatedAt = bar.CreatedAt
	next.UpdatedAt = bar.UpdatedAt
	*bar = next
	return nil
}
