package mongo

import (
	"barhop/internal/bars/repository"
	"barhop/internal/migrations/mongo/validators"
	"barhop/pkg/logger"
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type collectionDef struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

// BarsIndexes keeps at most one bar per provider venue. The partial filter lets
// any number of bars exist without a yelpId.
var BarsIndexes = []mongo.IndexModel{
	{
		Keys: bson.D{{Key: repository.FieldYelpID, Value: 1}},
		Options: options.Index().
			SetName("uniq_yelpId").
			SetUnique(true).
			SetPartialFilterExpression(bson.M{repository.FieldYelpID: bson.M{"$type": "string"}}),
	},
	{
		Keys:    bson.D{{Key: repository.FieldVisitors, Value: 1}},
		Options: options.Index().SetName("visitors"),
	},
}

func Collections() map[string]collectionDef {
	return map[string]collectionDef{
		repository.CollectionName: {
			Indexes:   BarsIndexes,
			Validator: validators.BarValidator,
		},
	}
}

func RunMigration(ctx context.Context, client *mongo.Client, dbName string, log *logger.Logger) error {
	db := client.Database(dbName)
	log.Info("Running Mongo migrations", "database", dbName)

	for name, def := range Collections() {
		if err := ensureCollection(ctx, db, name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	log.Info("All migrations applied")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	names, err := db.Collection(name).Indexes().CreateMany(ctx, models)
	if err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "indexes", names)
	return nil
}
