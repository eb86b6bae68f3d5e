package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/longkeyy/go-dsloader/common/plugin"
	"github.com/longkeyy/go-dsloader/common/source"
)

func TestConvertDocument(t *testing.T) {
	id := primitive.NewObjectID()
	at := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	doc := ConvertDocument(bson.M{
		"_id":     id,
		"created": primitive.NewDateTimeFromTime(at),
		"tags":    bson.A{"a", bson.M{"n": int32(1)}},
		"nested":  bson.M{"ref": id},
		"name":    "alice",
	})

	assert.Equal(t, id.Hex(), doc["_id"])
	created, ok := doc["created"].(time.Time)
	require.True(t, ok)
	assert.True(t, at.Equal(created))
	assert.Equal(t, []any{"a", map[string]any{"n": int32(1)}}, doc["tags"])
	assert.Equal(t, map[string]any{"ref": id.Hex()}, doc["nested"])
	assert.Equal(t, "alice", doc["name"])
}

func TestDatabaseFallback(t *testing.T) {
	name, err := database(&source.MongoSource{Database: "app"}, "")
	require.NoError(t, err)
	assert.Equal(t, "app", name)

	name, err = database(&source.MongoSource{Database: "app"}, "other")
	require.NoError(t, err)
	assert.Equal(t, "other", name)

	_, err = database(&source.MongoSource{}, "")
	require.ErrorIs(t, err, plugin.ErrInvalidArgument)
}

func TestArgumentValidation(t *testing.T) {
	ctx := context.Background()
	c := NewDocumentClient().(*DocumentClient)

	_, err := c.TestCon(ctx, &source.MongoSource{})
	require.ErrorIs(t, err, plugin.ErrInvalidSource)

	_, err = c.Find(ctx, &source.MongoSource{URI: "mongodb://127.0.0.1:27017"}, "db", "", nil, 0)
	require.ErrorIs(t, err, plugin.ErrInvalidArgument)

	n, err := c.Insert(ctx, &source.MongoSource{URI: "mongodb://127.0.0.1:27017"}, "db", "c")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = c.ListDatabases(ctx, &source.MongoSource{URI: "not-a-uri"})
	require.Error(t, err)
	assert.Equal(t, 0, c.clients.Len())
}
