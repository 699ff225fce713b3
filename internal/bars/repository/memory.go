package repository

import (
	barerrors "barhop/internal/bars/errors"
	"barhop/pkg/model"
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memoryBarRepository keeps bars in process. It backs STORE_DRIVER=memory and the
// service tests, and mirrors the Mongo repository's identifier and uniqueness rules.
type memoryBarRepository struct {
	mu         sync.RWMutex
	bars       map[string]*model.Bar
	byExternal map[string]string
	order      []string
}

func NewMemoryBarRepository() BarRepository {
	return &memoryBarRepository{
		bars:       make(map[string]*model.Bar),
		byExternal: make(map[string]string),
	}
}

func (r *memoryBarRepository) Create(ctx context.Context, bar *model.Bar) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkExternalIDLocked(bar.YelpID.String(), ""); err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	bar.ID = primitive.NewObjectID().Hex()
	bar.CreatedAt = now
	bar.UpdatedAt = now
	normalize(bar)

	r.putLocked(bar.Clone())
	return nil
}

func (r *memoryBarRepository) FindByID(ctx context.Context, id string) (*model.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !primitive.IsValidObjectID(id) {
		return nil, fmt.Errorf("%w: %s", barerrors.ErrInvalidID, id)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	bar, ok := r.bars[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", barerrors.ErrNotFound, id)
	}
	return bar.Clone(), nil
}

func (r *memoryBarRepository) FindAll(ctx context.Context) ([]*model.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	bars := make([]*model.Bar, 0, len(r.order))
	for _, id := range r.order {
		bars = append(bars, r.bars[id].Clone())
	}
	return bars, nil
}

func (r *memoryBarRepository) FindByExternalID(ctx context.Context, externalID string) (*model.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byExternal[externalID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", barerrors.ErrNotFound, externalID)
	}
	return r.bars[id].Clone(), nil
}

func (r *memoryBarRepository) FindByExternalIDs(ctx context.Context, externalIDs []string) ([]*model.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	bars := make([]*model.Bar, 0, len(externalIDs))
	seen := make(map[string]bool, len(externalIDs))
	for _, externalID := range externalIDs {
		if seen[externalID] {
			continue
		}
		seen[externalID] = true
		if id, ok := r.byExternal[externalID]; ok {
			bars = append(bars, r.bars[id].Clone())
		}
	}
	return bars, nil
}

func (r *memoryBarRepository) Upsert(ctx context.Context, id string, bar *model.Bar) (*model.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !primitive.IsValidObjectID(id) {
		return nil, fmt.Errorf("%w: %s", barerrors.ErrInvalidID, id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkExternalIDLocked(bar.YelpID.String(), id); err != nil {
		return nil, err
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	saved := bar.Clone()
	saved.ID = id
	saved.UpdatedAt = now
	saved.CreatedAt = now
	if existing, ok := r.bars[id]; ok {
		saved.CreatedAt = existing.CreatedAt
	}

	r.putLocked(saved)
	return saved.Clone(), nil
}

func (r *memoryBarRepository) Patch(ctx context.Context, id string, mutate MutateFunc) (*model.Bar, error) {
	bar, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := mutate(bar); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.bars[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", barerrors.ErrNotFound, id)
	}
	if err := r.checkExternalIDLocked(bar.YelpID.String(), id); err != nil {
		return nil, err
	}

	bar.ID = id
	bar.CreatedAt = existing.CreatedAt
	bar.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	normalize(bar)

	r.putLocked(bar.Clone())
	return bar, nil
}

func (r *memoryBarRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !primitive.IsValidObjectID(id) {
		return fmt.Errorf("%w: %s", barerrors.ErrInvalidID, id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	bar, ok := r.bars[id]
	if !ok {
		return fmt.Errorf("%w: %s", barerrors.ErrNotFound, id)
	}

	if bar.YelpID != "" && r.byExternal[bar.YelpID.String()] == id {
		delete(r.byExternal, bar.YelpID.String())
	}
	delete(r.bars, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// ToggleVisitor runs its read-modify-write under the store's write lock, so no
// concurrent toggle, create or delete can interleave with it.
func (r *memoryBarRepository) ToggleVisitor(ctx context.Context, externalID string, userID string) (*model.Bar, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	now := time.Now().UTC().Truncate(time.Millisecond)

	r.mu.Lock()
	defer r.mu.Unlock()

	var bar *model.Bar
	id, exists := r.byExternal[externalID]
	if exists {
		bar = r.bars[id].Clone()
		bar.Toggle(userID)
	} else {
		bar = &model.Bar{
			ID:            primitive.NewObjectID().Hex(),
			YelpID:        model.ExternalID(externalID),
			Visitors:      []string{userID},
			VisitorsCount: 1,
			CreatedAt:     now,
		}
	}
	bar.UpdatedAt = now

	r.putLocked(bar.Clone())
	return bar, !exists, nil
}

func (r *memoryBarRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (r *memoryBarRepository) checkExternalIDLocked(externalID string, selfID string) error {
	if externalID == "" {
		return nil
	}
	if owner, ok := r.byExternal[externalID]; ok && owner != selfID {
		return fmt.Errorf("%w: %s", barerrors.ErrDuplicateExternalID, externalID)
	}
	return nil
}

func (r *memoryBarRepository) putLocked(bar *model.Bar) {
	if previous, ok := r.bars[bar.ID]; ok {
		if previous.YelpID != "" && previous.YelpID != bar.YelpID {
			delete(r.byExternal, previous.YelpID.String())
		}
	} else {
		r.order = append(r.order, bar.ID)
	}

	r.bars[bar.ID] = bar
	if bar.YelpID != "" {
		r.byExternal[bar.YelpID.String()] = bar.ID
	}
}
