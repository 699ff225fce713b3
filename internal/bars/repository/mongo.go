package repository

import (
	barerrors "barhop/internal/bars/errors"
	"barhop/pkg/config"
	"barhop/pkg/model"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoBarRepository struct {
	cfg        *config.Config
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongoBarRepository(cfg *config.Config) BarRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBarRepository{
		cfg:        cfg,
		client:     cfg.Client.Mongo,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoBarRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	// context.WithTimeout keeps the caller's deadline when it is the earlier one.
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoBarRepository) Create(ctx context.Context, bar *model.Bar) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	bar.ID = ""
	bar.CreatedAt = now
	bar.UpdatedAt = now
	normalize(bar)

	result, err := r.collection.InsertOne(ctx, bar)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", barerrors.ErrDuplicateExternalID, bar.YelpID)
		}
		return fmt.Errorf("failed to create bar: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		bar.ID = oid.Hex()
	}

	return nil
}

func (r *mongoBarRepository) FindByID(ctx context.Context, id string) (*model.Bar, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", barerrors.ErrInvalidID, id)
	}

	return r.findOne(ctx, bson.M{"_id": objectID}, id)
}

func (r *mongoBarRepository) FindByExternalID(ctx context.Context, externalID string) (*model.Bar, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.findOne(ctx, bson.M{FieldYelpID: externalID}, externalID)
}

func (r *mongoBarRepository) findOne(ctx context.Context, filter bson.M, key string) (*model.Bar, error) {
	var bar model.Bar
	if err := r.collection.FindOne(ctx, filter).Decode(&bar); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", barerrors.ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to find bar: %w", err)
	}
	return normalize(&bar), nil
}

func (r *mongoBarRepository) FindAll(ctx context.Context) ([]*model.Bar, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.find(ctx, bson.M{})
}

func (r *mongoBarRepository) FindByExternalIDs(ctx context.Context, externalIDs []string) ([]*model.Bar, error) {
	if len(externalIDs) == 0 {
		return []*model.Bar{}, nil
	}

	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.find(ctx, bson.M{FieldYelpID: bson.M{"$in": externalIDs}})
}

func (r *mongoBarRepository) find(ctx context.Context, filter bson.M) ([]*model.Bar, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query bars: %w", err)
	}
	defer cursor.Close(ctx)

	bars := []*model.Bar{}
	if err := cursor.All(ctx, &bars); err != nil {
		return nil, fmt.Errorf("failed to decode bars: %w", err)
	}
	for _, bar := range bars {
		normalize(bar)
	}
	return bars, nil
}

func (r *mongoBarRepository) Upsert(ctx context.Context, id string, bar *model.Bar) (*model.Bar, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", barerrors.ErrInvalidID, id)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	update := replacementUpdate(bar, now)
	update["$setOnInsert"] = bson.M{FieldCreatedAt: now}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var saved model.Bar
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objectID}, update, opts).Decode(&saved)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: %s", barerrors.ErrDuplicateExternalID, bar.YelpID)
		}
		return nil, fmt.Errorf("failed to upsert bar: %w", err)
	}

	return normalize(&saved), nil
}

func (r *mongoBarRepository) Patch(ctx context.Context, id string, mutate MutateFunc) (*model.Bar, error) {
	bar, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := mutate(bar); err != nil {
		return nil, err
	}

	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, _ := primitive.ObjectIDFromHex(id)
	now := time.Now().UTC().Truncate(time.Millisecond)

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, replacementUpdate(bar, now))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: %s", barerrors.ErrDuplicateExternalID, bar.YelpID)
		}
		return nil, fmt.Errorf("failed to patch bar: %w", err)
	}
	if result.MatchedCount == 0 {
		return nil, fmt.Errorf("%w: %s", barerrors.ErrNotFound, id)
	}

	bar.ID = id
	bar.UpdatedAt = now
	return normalize(bar), nil
}

func (r *mongoBarRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", barerrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete bar: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", barerrors.ErrNotFound, id)
	}

	return nil
}

// ToggleVisitor returns the document exactly as this update left it.
func (r *mongoBarRepository) ToggleVisitor(ctx context.Context, externalID string, userID string) (*model.Bar, bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{FieldYelpID: externalID}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var bar model.Bar
	err := r.collection.FindOneAndUpdate(ctx, filter, togglePipeline(userID), opts).Decode(&bar)
	if err != nil && mongo.IsDuplicateKeyError(err) {
		// Two first check-ins raced on the unique yelpId index; the loser now
		// matches the winner's document.
		err = r.collection.FindOneAndUpdate(ctx, filter, togglePipeline(userID), opts).Decode(&bar)
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to toggle visitor: %w", err)
	}

	normalize(&bar)
	return &bar, createdByToggle(&bar, userID), nil
}

// createdByToggle reports whether the toggle pipeline inserted bar. An insert takes
// createdAt and updatedAt from the same $$NOW and holds only the toggling user.
func createdByToggle(bar *model.Bar, userID string) bool {
	return bar.CreatedAt.Equal(bar.UpdatedAt) &&
		len(bar.Visitors) == 1 &&
		bar.Visitors[0] == userID
}

func (r *mongoBarRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

// replacementUpdate overwrites every client-owned field so that unset fields fall back
// to their defaults, while leaving _id and createdAt alone.
func replacementUpdate(bar *model.Bar, now time.Time) bson.M {
	visitors := bar.Visitors
	if visitors == nil {
		visitors = []string{}
	}

	set := bson.M{
		FieldVisitors:      visitors,
		FieldVisitorsCount: bar.VisitorsCount,
		FieldUpdatedAt:     now,
	}
	update := bson.M{"$set": set}

	if bar.YelpID != "" {
		set[FieldYelpID] = bar.YelpID.String()
	} else {
		update["$unset"] = bson.M{FieldYelpID: ""}
	}
	return update
}

// togglePipeline flips userID's membership and recomputes the count inside a single
// document update, so concurrent toggles on one bar cannot overwrite each other.
func togglePipeline(userID string) mongo.Pipeline {
	user := bson.D{{Key: "$literal", Value: userID}}
	visitors := bson.D{{Key: "$ifNull", Value: bson.A{"$" + FieldVisitors, bson.A{}}}}

	toggled := bson.D{{Key: "$cond", Value: bson.A{
		bson.D{{Key: "$in", Value: bson.A{user, visitors}}},
		bson.D{{Key: "$filter", Value: bson.D{
			{Key: "input", Value: visitors},
			{Key: "cond", Value: bson.D{{Key: "$ne", Value: bson.A{"$$this", user}}}},
		}}},
		bson.D{{Key: "$concatArrays", Value: bson.A{visitors, bson.A{user}}}},
	}}}

	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: FieldVisitors, Value: toggled},
			{Key: FieldUpdatedAt, Value: "$$NOW"},
			{Key: FieldCreatedAt, Value: bson.D{{Key: "$ifNull", Value: bson.A{"$" + FieldCreatedAt, "$$NOW"}}}},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: FieldVisitorsCount, Value: bson.D{{Key: "$size", Value: "$" + FieldVisitors}}},
		}}},
	}
}
