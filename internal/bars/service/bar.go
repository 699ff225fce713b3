package service

import (
	barerrors "barhop/internal/bars/errors"
	"barhop/internal/bars/events"
	"barhop/internal/bars/provider"
	"barhop/internal/bars/repository"
	"barhop/internal/bars/validator"
	"barhop/pkg/config"
	apperrors "barhop/pkg/errors"
	"barhop/pkg/model"
	"barhop/pkg/sanitizer"
	"context"
	"errors"
	"time"
)

const resourceBar = "Bar"

// ToggleResult reports the bar after a check-in toggle and whether the toggle created it.
type ToggleResult struct {
	Bar     *model.Bar
	Created bool
}

type BarService interface {
	List(ctx context.Context) ([]*model.Bar, error)
	Get(ctx context.Context, id string) (*model.Bar, error)
	Create(ctx context.Context, in *model.BarInput) (*model.Bar, error)
	Replace(ctx context.Context, id string, in *model.BarInput) (*model.Bar, error)
	Patch(ctx context.Context, id string, ops []byte) (*model.Bar, error)
	Delete(ctx context.Context, id string) error
	ToggleVisitor(ctx context.Context, externalID string, userID string) (*ToggleResult, error)
	Search(ctx context.Context, term string, location string, requestingUserID string) ([]model.Venue, error)
}

type barService struct {
	repo      repository.BarRepository
	provider  provider.SearchProvider
	publisher events.Publisher
	validator *validator.BarValidator
	cfg       *config.Config
}

func NewBarService(
	repo repository.BarRepository,
	searchProvider provider.SearchProvider,
	publisher events.Publisher,
	validator *validator.BarValidator,
	cfg *config.Config,
) BarService {
	if publisher == nil {
		publisher = events.NewNopPublisher()
	}
	return &barService{
		repo:      repo,
		provider:  searchProvider,
		publisher: publisher,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *barService) List(ctx context.Context) ([]*model.Bar, error) {
	bars, err := s.repo.FindAll(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list bars", "error", err)
		return nil, apperrors.Store("Failed to retrieve bars", err)
	}
	return bars, nil
}

func (s *barService) Get(ctx context.Context, id string) (*model.Bar, error) {
	bar, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(id, "Failed to retrieve bar", err)
	}
	return bar, nil
}

func (s *barService) Create(ctx context.Context, in *model.BarInput) (*model.Bar, error) {
	if in == nil {
		in = &model.BarInput{}
	}
	in.StripID()

	bar := in.ToBar()
	s.sanitize(bar)

	if err := s.validate(bar); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, bar); err != nil {
		if errors.Is(err, barerrors.ErrDuplicateExternalID) {
			s.cfg.Log.Warn("Bar create rejected: duplicate yelpId", "yelp_id", bar.YelpID)
			return nil, apperrors.Validation("A bar with this yelpId already exists", map[string]any{
				"yelpId": bar.YelpID.String(),
			})
		}
		s.cfg.Log.Error("Failed to create bar", "yelp_id", bar.YelpID, "error", err)
		return nil, apperrors.Store("Failed to create bar", err)
	}

	s.cfg.Log.Info("Bar created successfully",
		"id", bar.ID,
		"yelp_id", bar.YelpID,
		"visitors_count", bar.VisitorsCount,
	)
	return bar, nil
}

func (s *barService) Replace(ctx context.Context, id string, in *model.BarInput) (*model.Bar, error) {
	if in == nil {
		in = &model.BarInput{}
	}
	if in.HasID() {
		s.cfg.Log.Debug("Ignoring identifier in replace body", "id", id)
		in.StripID()
	}

	bar := in.ToBar()
	s.sanitize(bar)

	if err := s.validate(bar); err != nil {
		return nil, err
	}

	saved, err := s.repo.Upsert(ctx, id, bar)
	if err != nil {
		switch {
		case errors.Is(err, barerrors.ErrInvalidID):
			return nil, apperrors.Validation("Invalid bar ID format", map[string]any{"id": id})
		case errors.Is(err, barerrors.ErrDuplicateExternalID):
			s.cfg.Log.Warn("Bar replace rejected: duplicate yelpId", "id", id, "yelp_id", bar.YelpID)
			return nil, apperrors.Validation("A bar with this yelpId already exists", map[string]any{
				"yelpId": bar.YelpID.String(),
			})
		}
		s.cfg.Log.Error("Failed to replace bar", "id", id, "error", err)
		return nil, apperrors.Store("Failed to replace bar", err)
	}

	s.cfg.Log.Info("Bar replaced successfully",
		"id", saved.ID,
		"yelp_id", saved.YelpID,
		"visitors_count", saved.VisitorsCount,
	)
	return saved, nil
}

func (s *barService) Patch(ctx context.Context, id string, ops []byte) (*model.Bar, error) {
	patch, err := decodePatch(ops)
	if err != nil {
		s.cfg.Log.Warn("Undecodable patch document", "id", id, "error", err)
		return nil, apperrors.Validation("Patch body must be a JSON Patch operation list", map[string]any{
			"error": err.Error(),
		})
	}

	saved, err := s.repo.Patch(ctx, id, func(bar *model.Bar) error {
		return s.applyPatch(bar, patch)
	})
	if err != nil {
		switch {
		case apperrors.IsAppError(err):
			s.cfg.Log.Warn("Patch rejected", "id", id, "error", err)
			return nil, err
		case errors.Is(err, barerrors.ErrDuplicateExternalID):
			return nil, apperrors.Patch("Patch would duplicate an existing yelpId", err)
		}
		return nil, s.lookupError(id, "Failed to patch bar", err)
	}

	s.cfg.Log.Info("Bar patched successfully",
		"id", id,
		"operations", len(patch.ops),
		"visitors_count", saved.VisitorsCount,
	)
	return saved, nil
}

func (s *barService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.lookupError(id, "Failed to delete bar", err)
	}

	s.cfg.Log.Info("Bar deleted successfully", "id", id)
	return nil
}

func (s *barService) ToggleVisitor(ctx context.Context, externalID string, userID string) (*ToggleResult, error) {
	externalID = sanitizer.NormalizeID(externalID)
	userID = sanitizer.NormalizeID(userID)

	if err := s.validator.ValidateVisit(externalID, userID); err != nil {
		s.cfg.Log.Warn("Toggle rejected: invalid identifiers", "error", err)
		return nil, apperrors.Validation("Invalid bar or user identifier", validationDetails(err))
	}

	bar, created, err := s.repo.ToggleVisitor(ctx, externalID, userID)
	if err != nil {
		s.cfg.Log.Error("Failed to toggle visitor",
			"yelp_id", externalID,
			"user_id", userID,
			"error", err,
		)
		return nil, apperrors.Store("Failed to toggle visitor", err)
	}

	checkedIn := bar.HasVisitor(userID)
	s.cfg.Log.Info("Visitor toggled",
		"id", bar.ID,
		"yelp_id", externalID,
		"user_id", userID,
		"checked_in", checkedIn,
		"bar_created", created,
		"visitors_count", bar.VisitorsCount,
	)

	event := events.VisitorToggled{
		BarID:         bar.ID,
		ExternalID:    externalID,
		UserID:        userID,
		CheckedIn:     checkedIn,
		VisitorsCount: bar.VisitorsCount,
		BarCreated:    created,
		OccurredAt:    time.Now().UTC(),
	}
	if err := s.publisher.PublishVisitorToggled(ctx, event); err != nil {
		s.cfg.Log.Error("Failed to publish visitor toggled event",
			"yelp_id", externalID,
			"user_id", userID,
			"error", err,
		)
	}

	return &ToggleResult{Bar: bar, Created: created}, nil
}

func (s *barService) Search(ctx context.Context, term string, location string, requestingUserID string) ([]model.Venue, error) {
	term = sanitizer.NormalizeSearchTerm(term)
	if term == "" {
		term = s.cfg.SearchTerm
	}
	location = sanitizer.NormalizeLocation(location)
	requestingUserID = sanitizer.NormalizeID(requestingUserID)

	if location == "" {
		return nil, apperrors.Validation("Search location is required", map[string]any{"location": "is required"})
	}

	resp, err := s.provider.Search(ctx, term, location)
	if err != nil {
		s.cfg.Log.Error("Search provider failed",
			"term", term,
			"location", location,
			"error", err,
		)
		if errors.Is(err, provider.ErrProviderAuth) {
			return nil, apperrors.ProviderAuth("Search provider rejected credentials", err)
		}
		return nil, apperrors.ProviderUnavailable("Search provider unavailable", err)
	}

	ids := make([]string, 0, len(resp.Businesses))
	for _, venue := range resp.Businesses {
		if id := venue.ID(); id != "" {
			ids = append(ids, id)
		}
	}

	byExternalID := make(map[string]*model.Bar, len(ids))
	if len(ids) > 0 {
		bars, err := s.repo.FindByExternalIDs(ctx, ids)
		if err != nil {
			s.cfg.Log.Error("Failed to load visitors for search results",
				"location", location,
				"ids", len(ids),
				"error", err,
			)
			return nil, apperrors.Store("Failed to load bar visitors", err)
		}
		for _, bar := range bars {
			byExternalID[bar.YelpID.String()] = bar
		}
	}

	results := make([]model.Venue, 0, len(resp.Businesses))
	for _, venue := range resp.Businesses {
		results = append(results, mergeVenue(venue, byExternalID[venue.ID()], requestingUserID))
	}

	s.cfg.Log.Debug("Search completed",
		"term", term,
		"location", location,
		"venues", len(results),
		"tracked", len(byExternalID),
		"user", requestingUserID != "",
	)
	return results, nil
}

// mergeVenue returns a copy of venue with the stored visitor fields attached. bar may be nil.
func mergeVenue(venue model.Venue, bar *model.Bar, userID string) model.Venue {
	merged := venue.Clone()

	visitors := []string{}
	if bar != nil {
		visitors = append(visitors, bar.Visitors...)
	}
	merged[model.VenueFieldVisitors] = visitors
	merged[model.VenueFieldVisitorsCount] = len(visitors)

	if userID != "" {
		checkedIn := false
		for _, v := range visitors {
			if v == userID {
				checkedIn = true
				break
			}
		}
		merged[model.VenueFieldIsCheckedIn] = checkedIn
	}
	return merged
}

func (s *barService) sanitize(bar *model.Bar) {
	bar.YelpID = model.ExternalID(sanitizer.NormalizeID(bar.YelpID.String()))
	bar.Visitors = sanitizer.NormalizeVisitors(bar.Visitors)
	bar.VisitorsCount = len(bar.Visitors)
}

func (s *barService) validate(bar *model.Bar) error {
	if err := s.validator.Validate(bar); err != nil {
		s.cfg.Log.Warn("Bar validation failed",
			"yelp_id", bar.YelpID,
			"error", err,
		)
		return apperrors.Validation("Bar validation failed", validationDetails(err))
	}
	return nil
}

func validationDetails(err error) map[string]any {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return fieldErrs.Fields()
	}
	return map[string]any{"error": err.Error()}
}

// lookupError maps repository failures of id-addressed operations. A malformed id
// cannot match any record, so it reads as NotFound.
func (s *barService) lookupError(id string, message string, err error) error {
	if errors.Is(err, barerrors.ErrNotFound) || errors.Is(err, barerrors.ErrInvalidID) {
		return apperrors.NotFoundWithID(resourceBar, id)
	}
	s.cfg.Log.Error(message, "id", id, "error", err)
	return apperrors.Store(message, err)
}
