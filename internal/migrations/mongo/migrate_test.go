package mongo

import (
	"barhop/internal/bars/repository"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestCollections_BarsUniqueYelpIndex(t *testing.T) {
	def, ok := Collections()[repository.CollectionName]
	require.True(t, ok)
	require.NotEmpty(t, def.Indexes)

	idx := def.Indexes[0]
	assert.Equal(t, bson.D{{Key: repository.FieldYelpID, Value: 1}}, idx.Keys)
	require.NotNil(t, idx.Options)
	require.NotNil(t, idx.Options.Unique)
	assert.True(t, *idx.Options.Unique)
	assert.Equal(t, bson.M{repository.FieldYelpID: bson.M{"$type": "string"}}, idx.Options.PartialFilterExpression)
}

func TestBarValidator_RequiresVisitorFields(t *testing.T) {
	schema := Collections()[repository.CollectionName].Validator["$jsonSchema"].(bson.M)
	assert.ElementsMatch(t, []string{"visitors", "visitorsCount", "createdAt"}, schema["required"])
}
