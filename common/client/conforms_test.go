package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/longkeyy/go-dsloader/common/plugin"
	"github.com/longkeyy/go-dsloader/common/source"
)

type graphOnly struct{}

func (graphOnly) TestCon(context.Context, source.Source) (bool, error) { return true, nil }

func (graphOnly) ExecuteWhatever(context.Context, source.Source, string) ([]map[string]any, error) {
	return nil, nil
}

type graphV2 struct{ graphOnly }

func (graphV2) ListDatabases(context.Context, source.Source) ([]string, error) { return nil, nil }

func TestConforms(t *testing.T) {
	require.NoError(t, Conforms(plugin.Graph, graphOnly{}))
	require.NoError(t, Conforms(plugin.Graph, graphV2{}))
	require.NoError(t, Conforms(plugin.GraphV2, graphV2{}))

	err := Conforms(plugin.GraphV2, graphOnly{})
	require.ErrorIs(t, err, plugin.ErrContractViolation)
	assert.Contains(t, err.Error(), "GraphV2Client")

	require.ErrorIs(t, Conforms(plugin.SQL, "not a client"), plugin.ErrContractViolation)
	require.ErrorIs(t, Conforms(plugin.SQL, nil), plugin.ErrContractViolation)
	require.ErrorIs(t, Conforms(plugin.Category(77), graphOnly{}), plugin.ErrInvalidArgument)
}
