package neo4j

import (
	"context"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/longkeyy/go-dsloader/common/client"
	"github.com/longkeyy/go-dsloader/common/plugin"
	"github.com/longkeyy/go-dsloader/common/source"
)

func TestConvertValue(t *testing.T) {
	node := dbtype.Node{ElementId: "4:a:1", Labels: []string{"Person"}, Props: map[string]any{"name": "alice"}}
	rel := dbtype.Relationship{ElementId: "5:a:1", Type: "KNOWS", StartElementId: "4:a:1", EndElementId: "4:a:2"}

	got := ConvertValue(node).(map[string]any)
	assert.Equal(t, []string{"Person"}, got["labels"])
	assert.Equal(t, map[string]any{"name": "alice"}, got["properties"])

	got = ConvertValue(rel).(map[string]any)
	assert.Equal(t, "KNOWS", got["type"])
	assert.Equal(t, "4:a:2", got["endElementId"])

	path := ConvertValue(dbtype.Path{Nodes: []dbtype.Node{node}, Relationships: []dbtype.Relationship{rel}}).(map[string]any)
	assert.Len(t, path["nodes"], 1)
	assert.Len(t, path["relationships"], 1)

	list := ConvertValue([]any{node, int64(3)}).([]any)
	assert.Equal(t, int64(3), list[1])
	assert.Equal(t, "x", ConvertValue("x"))
}

func TestClientsByCategory(t *testing.T) {
	_, ok := NewGraphClient().(client.GraphClient)
	assert.True(t, ok)
	_, ok = NewGraphClient().(client.GraphV2Client)
	assert.False(t, ok)
	_, ok = NewGraphV2Client().(client.GraphV2Client)
	assert.True(t, ok)
}

func TestDescriptorValidation(t *testing.T) {
	ctx := context.Background()
	c := NewGraphClient().(*GraphClient)

	_, err := c.ExecuteWhatever(ctx, &source.Neo4jSource{Type: source.Neo4j40, URI: "bolt://h:7687"}, "RETURN 1")
	require.ErrorIs(t, err, plugin.ErrInvalidSource)

	_, err = c.ExecuteWhatever(ctx, &source.Neo4jSource{Type: source.Neo4j}, "RETURN 1")
	require.ErrorIs(t, err, plugin.ErrInvalidSource)

	_, err = c.ExecuteWhatever(ctx, &source.Neo4jSource{Type: source.Neo4j, URI: "bolt://h:7687"}, "  ")
	require.ErrorIs(t, err, plugin.ErrInvalidArgument)

	v2 := NewGraphV2Client().(*GraphV2Client)
	_, err = v2.ListDatabases(ctx, &source.Neo4jSource{Type: source.Neo4j, URI: "bolt://h:7687"})
	require.ErrorIs(t, err, plugin.ErrInvalidSource)
}

func TestAuth(t *testing.T) {
	assert.Equal(t, "none", Auth(&source.Neo4jSource{}).Tokens["scheme"])
	assert.Equal(t, "basic", Auth(&source.Neo4jSource{Username: "neo4j", Password: "pw"}).Tokens["scheme"])
}
