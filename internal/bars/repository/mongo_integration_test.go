//go:build integration

package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	barerrors "barhop/internal/bars/errors"
	"barhop/pkg/client"
	"barhop/pkg/config"
	"barhop/pkg/logger"
	"barhop/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func newMongoRepo(t *testing.T) BarRepository {
	t.Helper()

	uri := os.Getenv(config.EnvMongoURI)
	if uri == "" {
		uri = config.DefaultMongoURI
	}
	dbName := fmt.Sprintf("barhop_test_%d", time.Now().UnixNano())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mc, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	require.NoError(t, mc.Ping(ctx, nil))

	coll := mc.Database(dbName).Collection(CollectionName)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: FieldYelpID, Value: 1}},
		Options: options.Index().SetUnique(true).
			SetPartialFilterExpression(bson.M{FieldYelpID: bson.M{"$type": "string"}}),
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = mc.Database(dbName).Drop(context.Background())
		_ = mc.Disconnect(context.Background())
	})

	cfg := &config.Config{
		MongoDatabaseName: dbName,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      5 * time.Second,
		Log:               logger.NewNop(),
		Client:            &client.Client{Mongo: mc},
	}
	return NewMongoBarRepository(cfg)
}

func TestMongo_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := newMongoRepo(t)

	bar := &model.Bar{YelpID: "crud", Visitors: []string{"u1"}, VisitorsCount: 1}
	require.NoError(t, repo.Create(ctx, bar))

	found, err := repo.FindByID(ctx, bar.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, found.Visitors)

	replaced, err := repo.Upsert(ctx, bar.ID, &model.Bar{Visitors: []string{}})
	require.NoError(t, err)
	assert.Equal(t, model.ExternalID(""), replaced.YelpID)
	assert.Equal(t, 0, replaced.VisitorsCount)

	require.NoError(t, repo.Delete(ctx, bar.ID))
	assert.True(t, errors.Is(repo.Delete(ctx, bar.ID), barerrors.ErrNotFound))
}

func TestMongo_ToggleVisitorConcurrent(t *testing.T) {
	ctx := context.Background()
	repo := newMongoRepo(t)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		counts  = map[int]int{}
		inserts int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("u%d", i)
			bar, isNew, err := repo.ToggleVisitor(ctx, "race", user)
			if !assert.NoError(t, err) {
				return
			}
			assert.True(t, bar.HasVisitor(user))
			mu.Lock()
			counts[bar.VisitorsCount]++
			if isNew {
				inserts++
			}
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	// Each toggle reports its own post-update state, so every count 1..20 appears once.
	assert.Len(t, counts, 20)
	assert.Equal(t, 1, inserts)

	bar, err := repo.FindByExternalID(ctx, "race")
	require.NoError(t, err)
	assert.Len(t, bar.Visitors, 20)
	assert.Equal(t, 20, bar.VisitorsCount)

	bar, created, err := repo.ToggleVisitor(ctx, "race", "u0")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 19, bar.VisitorsCount)
	assert.False(t, bar.HasVisitor("u0"))
}
