package plugin

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntrypointRegistry(t *testing.T) {
	r := NewEntrypointRegistry()
	ctor := func() any { return struct{}{} }

	require.NoError(t, r.Register("mysql5", SQL, ctor))
	require.NoError(t, r.Register("mysql5", Table, ctor))
	require.NoError(t, r.Register("kafka", Queue, ctor))

	err := r.Register("mysql5", SQL, ctor)
	require.ErrorIs(t, err, ErrDuplicateEntrypoint)

	require.ErrorIs(t, r.Register("", SQL, ctor), ErrInvalidArgument)
	require.ErrorIs(t, r.Register("x", SQL, nil), ErrInvalidArgument)
	require.ErrorIs(t, r.Register("x", Category(99), ctor), ErrInvalidArgument)

	got, ok := r.Lookup("mysql5", Table)
	require.True(t, ok)
	assert.NotNil(t, got)

	_, ok = r.Lookup("mysql5", Queue)
	assert.False(t, ok)

	assert.Equal(t, []string{"kafka", "mysql5"}, r.Plugins())
	assert.Equal(t, []Category{SQL, Table}, r.Categories("mysql5"))
}

func TestCategory(t *testing.T) {
	assert.Equal(t, "SQLClient", SQL.Entrypoint())
	assert.Equal(t, "NewGraphV2Client", GraphV2.Symbol())
	assert.Equal(t, "timeseries", TimeSeries.String())
	assert.Equal(t, "category(42)", Category(42).String())
	assert.Len(t, Categories(), 13)

	for _, in := range []string{"table", "TABLE", "TableClient", " table "} {
		c, err := ParseCategory(in)
		require.NoError(t, err, in)
		assert.Equal(t, Table, c)
	}

	_, err := ParseCategory("spreadsheet")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestAccessError(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := error(&AccessError{
		Category:   Queue,
		PluginName: "kafka",
		Err:        fmt.Errorf("%w: %w", ErrPluginLoad, cause),
	})

	assert.ErrorIs(t, err, ErrPluginLoad)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "plugin kafka")

	var ae *AccessError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, Queue, ae.Category)

	assert.ErrorIs(t, Unsupported("partitions on %s", "oceanBase"), ErrUnsupportedOperation)
}

func TestManifestDeclares(t *testing.T) {
	m := &Manifest{}
	assert.True(t, m.Declares(File))

	m.Categories = []string{"sql", "TableClient"}
	assert.True(t, m.Declares(SQL))
	assert.True(t, m.Declares(Table))
	assert.False(t, m.Declares(File))
}
