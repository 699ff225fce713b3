package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"barhop/internal/bars/events"
	"barhop/internal/bars/provider"
	"barhop/internal/bars/repository"
	"barhop/internal/bars/validator"
	"barhop/pkg/config"
	apperrors "barhop/pkg/errors"
	"barhop/pkg/logger"
	"barhop/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	mu           sync.Mutex
	businesses   []model.Venue
	err          error
	lastTerm     string
	lastLocation string
}

func (p *fakeProvider) Search(_ context.Context, term, location string) (*provider.SearchResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastTerm = term
	p.lastLocation = location
	if p.err != nil {
		return nil, p.err
	}
	return &provider.SearchResponse{Businesses: p.businesses}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.VisitorToggled
	err    error
}

func (p *recordingPublisher) PublishVisitorToggled(_ context.Context, e events.VisitorToggled) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

type fixture struct {
	svc       BarService
	repo      repository.BarRepository
	provider  *fakeProvider
	publisher *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.NewNop()
	cfg := &config.Config{Log: log, SearchTerm: "bar"}

	f := &fixture{
		repo:      repository.NewMemoryBarRepository(),
		provider:  &fakeProvider{},
		publisher: &recordingPublisher{},
	}
	f.svc = NewBarService(f.repo, f.provider, f.publisher, validator.NewBarValidator(log), cfg)
	return f
}

func intPtr(v int) *int { return &v }

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, code), "expected %s, got %v", code, err)
}

func TestCreate_CountFollowsVisitors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input *model.BarInput
		want  []string
	}{
		{name: "empty", input: &model.BarInput{}, want: []string{}},
		{name: "count omitted", input: &model.BarInput{Visitors: []string{"u1", "u2"}}, want: []string{"u1", "u2"}},
		{name: "count disagrees", input: &model.BarInput{Visitors: []string{"u1"}, VisitorsCount: intPtr(9)}, want: []string{"u1"}},
		{name: "duplicates and blanks", input: &model.BarInput{Visitors: []string{" u1", "u1", "", "u2 "}}, want: []string{"u1", "u2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar, err := f.svc.Create(ctx, tt.input)
			require.NoError(t, err)
			assert.NotEmpty(t, bar.ID)
			assert.Equal(t, tt.want, bar.Visitors)
			assert.Equal(t, len(bar.Visitors), bar.VisitorsCount)
		})
	}
}

func TestCreate_IgnoresClientID(t *testing.T) {
	f := newFixture(t)
	bar, err := f.svc.Create(context.Background(), &model.BarInput{ID: "spoofed", YelpID: "abc"})
	require.NoError(t, err)
	assert.NotEqual(t, "spoofed", bar.ID)
}

func TestCreate_DuplicateYelpID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, &model.BarInput{YelpID: "abc"})
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, &model.BarInput{YelpID: " abc "})
	requireCode(t, err, apperrors.CodeValidation)
}

func TestCreate_InvalidVisitor(t *testing.T) {
	f := newFixture(t)
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}

	_, err := f.svc.Create(context.Background(), &model.BarInput{Visitors: []string{string(long)}})
	requireCode(t, err, apperrors.CodeValidation)
	assert.Contains(t, apperrors.AsAppError(err).Details, "visitors[0]")
}

func TestGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, &model.BarInput{YelpID: "abc", Visitors: []string{"u1"}})
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Visitors, got.Visitors)

	_, err = f.svc.Get(ctx, "65f0c0ffee0000000000abcd")
	requireCode(t, err, apperrors.CodeNotFound)

	_, err = f.svc.Get(ctx, "not-an-object-id")
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bars, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, bars)

	for i := 0; i < 3; i++ {
		_, err := f.svc.Create(ctx, &model.BarInput{YelpID: model.ExternalID(fmt.Sprintf("bar-%d", i))})
		require.NoError(t, err)
	}

	bars, err = f.svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, bars, 3)
}

func TestReplace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, &model.BarInput{YelpID: "abc", Visitors: []string{"u1", "u2"}})
	require.NoError(t, err)

	replaced, err := f.svc.Replace(ctx, created.ID, &model.BarInput{
		ID:       "65f0c0ffee0000000000ffff",
		Visitors: []string{"u3"},
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, replaced.ID, "path id is authoritative")
	assert.Equal(t, []string{"u3"}, replaced.Visitors)
	assert.Equal(t, 1, replaced.VisitorsCount)
	assert.Empty(t, replaced.YelpID, "unset fields fall back to defaults")

	_, err = f.svc.Get(ctx, "65f0c0ffee0000000000ffff")
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestReplace_CreatesWhenAbsent(t *testing.T) {
	f := newFixture(t)
	id := "65f0c0ffee0000000000abcd"

	bar, err := f.svc.Replace(context.Background(), id, &model.BarInput{YelpID: "new"})
	require.NoError(t, err)
	assert.Equal(t, id, bar.ID)

	got, err := f.svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, model.ExternalID("new"), got.YelpID)
}

func TestReplace_InvalidID(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Replace(context.Background(), "nope", &model.BarInput{})
	requireCode(t, err, apperrors.CodeValidation)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, &model.BarInput{YelpID: "abc"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, created.ID))

	_, err = f.svc.Get(ctx, created.ID)
	requireCode(t, err, apperrors.CodeNotFound)

	err = f.svc.Delete(ctx, created.ID)
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestToggleVisitor_CreatesOnFirstCheckIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.svc.ToggleVisitor(ctx, "unseen", "u1")
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.Equal(t, model.ExternalID("unseen"), result.Bar.YelpID)
	assert.Equal(t, []string{"u1"}, result.Bar.Visitors)
	assert.Equal(t, 1, result.Bar.VisitorsCount)

	bars, err := f.repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, bars, 1)
}

func TestToggleVisitor_TwiceRestoresState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, &model.BarInput{YelpID: "abc", Visitors: []string{"u1", "u2"}})
	require.NoError(t, err)

	first, err := f.svc.ToggleVisitor(ctx, "abc", "u3")
	require.NoError(t, err)
	assert.False(t, first.Created)
	assert.Equal(t, []string{"u1", "u2", "u3"}, first.Bar.Visitors)
	assert.Equal(t, 3, first.Bar.VisitorsCount)

	second, err := f.svc.ToggleVisitor(ctx, "abc", "u3")
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.ElementsMatch(t, []string{"u1", "u2"}, second.Bar.Visitors)
	assert.Equal(t, 2, second.Bar.VisitorsCount)
}

func TestToggleVisitor_ConcurrentUsersAllLand(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const users = 25
	var wg sync.WaitGroup
	errs := make(chan error, users)
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := f.svc.ToggleVisitor(ctx, "busy-bar", fmt.Sprintf("user-%d", i)); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("toggle failed: %v", err)
	}

	bar, err := f.repo.FindByExternalID(ctx, "busy-bar")
	require.NoError(t, err)
	assert.Len(t, bar.Visitors, users)
	assert.Equal(t, users, bar.VisitorsCount)

	created := 0
	for _, e := range f.publisher.events {
		if e.BarCreated {
			created++
		}
	}
	assert.Equal(t, 1, created, "exactly one toggle creates the bar")
}

func TestToggleVisitor_RequiresIdentifiers(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ToggleVisitor(context.Background(), " ", "u1")
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.svc.ToggleVisitor(context.Background(), "abc", "")
	requireCode(t, err, apperrors.CodeValidation)
}

func TestToggleVisitor_RejectsOversizeUserID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ToggleVisitor(ctx, "abc", strings.Repeat("u", 257))
	requireCode(t, err, apperrors.CodeValidation)
	assert.Contains(t, apperrors.AsAppError(err).Details, "userId")

	bars, err := f.repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, bars, "a rejected toggle must not create the bar")
}

func TestToggleVisitor_PublishesEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.svc.ToggleVisitor(ctx, "abc", "u1")
	require.NoError(t, err)
	_, err = f.svc.ToggleVisitor(ctx, "abc", "u1")
	require.NoError(t, err)

	require.Len(t, f.publisher.events, 2)
	assert.Equal(t, events.VisitorToggled{
		BarID:         result.Bar.ID,
		ExternalID:    "abc",
		UserID:        "u1",
		CheckedIn:     true,
		VisitorsCount: 1,
		BarCreated:    true,
		OccurredAt:    f.publisher.events[0].OccurredAt,
	}, f.publisher.events[0])
	assert.False(t, f.publisher.events[1].CheckedIn)
	assert.Equal(t, 0, f.publisher.events[1].VisitorsCount)
}

func TestToggleVisitor_PublishFailureDoesNotFailToggle(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker down")

	result, err := f.svc.ToggleVisitor(context.Background(), "abc", "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Bar.VisitorsCount)
}

func TestSearch_MergesVisitors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, &model.BarInput{YelpID: "A", Visitors: []string{"u1"}})
	require.NoError(t, err)

	f.provider.businesses = []model.Venue{
		{"id": "A", "name": "Alpha"},
		{"id": "B", "name": "Beta"},
	}

	results, err := f.svc.Search(ctx, "", "Boston", "u1")
	require.NoError(t, err)
	assert.Equal(t, "bar", f.provider.lastTerm, "term defaults to the configured search term")

	require.Len(t, results, 2)
	assert.Equal(t, "A", results[0].ID())
	assert.Equal(t, "Alpha", results[0]["name"])
	assert.Equal(t, []string{"u1"}, results[0][model.VenueFieldVisitors])
	assert.Equal(t, 1, results[0][model.VenueFieldVisitorsCount])
	assert.Equal(t, true, results[0][model.VenueFieldIsCheckedIn])

	assert.Equal(t, "B", results[1].ID())
	assert.Equal(t, []string{}, results[1][model.VenueFieldVisitors])
	assert.Equal(t, 0, results[1][model.VenueFieldVisitorsCount])
	assert.Equal(t, false, results[1][model.VenueFieldIsCheckedIn])

	_, leaked := f.provider.businesses[0][model.VenueFieldVisitors]
	assert.False(t, leaked, "provider payload is not mutated")
}

func TestSearch_AnonymousOmitsCheckInFlag(t *testing.T) {
	f := newFixture(t)
	f.provider.businesses = []model.Venue{{"id": "A"}}

	results, err := f.svc.Search(context.Background(), "bar", "Boston", "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	_, present := results[0][model.VenueFieldIsCheckedIn]
	assert.False(t, present)
}

func TestSearch_IsReadOnly(t *testing.T) {
	f := newFixture(t)
	f.provider.businesses = []model.Venue{{"id": "A"}, {"id": "B"}}

	_, err := f.svc.Search(context.Background(), "bar", "Boston", "u1")
	require.NoError(t, err)

	bars, err := f.repo.FindAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, bars)
}

func TestSearch_ProviderFailures(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{name: "unavailable", err: fmt.Errorf("%w: status 503", provider.ErrProviderUnavailable), wantCode: apperrors.CodeProviderUnavailable},
		{name: "auth", err: fmt.Errorf("%w: status 401", provider.ErrProviderAuth), wantCode: apperrors.CodeProviderAuth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.provider.err = tt.err

			results, err := f.svc.Search(context.Background(), "bar", "Boston", "")
			requireCode(t, err, tt.wantCode)
			assert.Nil(t, results, "no partial results")
		})
	}
}

func TestSearch_RequiresLocation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Search(context.Background(), "bar", "  ", "")
	requireCode(t, err, apperrors.CodeValidation)
}
