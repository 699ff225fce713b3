package repository

import (
	"barhop/pkg/model"
	"context"
)

const (
	CollectionName = "Bars"

	FieldYelpID        = "yelpId"
	FieldVisitors      = "visitors"
	FieldVisitorsCount = "visitorsCount"
	FieldCreatedAt     = "createdAt"
	FieldUpdatedAt     = "updatedAt"
)

// MutateFunc edits a freshly loaded bar in place. Returning an error aborts the write.
type MutateFunc func(bar *model.Bar) error

type BarRepository interface {
	Create(ctx context.Context, bar *model.Bar) error
	FindByID(ctx context.Context, id string) (*model.Bar, error)
	FindAll(ctx context.Context) ([]*model.Bar, error)
	FindByExternalID(ctx context.Context, externalID string) (*model.Bar, error)
	FindByExternalIDs(ctx context.Context, externalIDs []string) ([]*model.Bar, error)
	Upsert(ctx context.Context, id string, bar *model.Bar) (*model.Bar, error)
	Patch(ctx context.Context, id string, mutate MutateFunc) (*model.Bar, error)
	Delete(ctx context.Context, id string) error

	// ToggleVisitor atomically adds userID to, or removes it from, the bar keyed by
	// externalID, creating the bar when none exists. The bool reports creation.
	ToggleVisitor(ctx context.Context, externalID string, userID string) (*model.Bar, bool, error)

	Ping(ctx context.Context) error
}

func normalize(bar *model.Bar) *model.Bar {
	if bar.Visitors == nil {
		bar.Visitors = []string{}
	}
	return bar
}
