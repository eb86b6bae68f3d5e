package rdbms

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"

	"github.com/longkeyy/go-dsloader/common/client"
	"github.com/longkeyy/go-dsloader/common/plugin"
	"github.com/longkeyy/go-dsloader/common/source"
)

func newSQLiteTableClient(t *testing.T) (*TableClient, source.Source) {
	t.Helper()

	tc := NewTableClient(FuncFactory{
		DSNFunc: func(src *source.RdbmsSource) (string, error) {
			return SQLitePath(src.URL)
		},
		OpenFunc: GormOpener(sqlite.Open),
	}, SQLiteTable)
	t.Cleanup(func() { _ = tc.Close() })

	src := &source.RdbmsSource{
		Type: source.SQLite,
		URL:  "jdbc:sqlite:" + filepath.Join(t.TempDir(), "app.db"),
	}
	return tc, src
}

func TestSQLiteClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	tc, src := newSQLiteTableClient(t)

	ok, err := tc.TestCon(ctx, src)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, tc.ExecuteSQLWithoutResultSet(ctx, src,
		"CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL)"))
	require.NoError(t, tc.ExecuteSQLWithoutResultSet(ctx, src,
		"INSERT INTO users (id, name) VALUES (?, ?), (?, ?)", 1, "alice", 2, "bob"))

	rows, err := tc.ExecuteQuery(ctx, src, "SELECT id, name FROM users ORDER BY id")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0]["id"])
	assert.Equal(t, "bob", rows[1]["name"])

	dbs, err := tc.GetAllDatabases(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, []string{"main"}, dbs)

	tables, err := tc.GetTableList(ctx, src, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"users"}, tables)

	columns, err := tc.GetColumnMetaData(ctx, src, "", "users")
	require.NoError(t, err)
	require.Len(t, columns, 2)
	assert.Equal(t, "id", columns[0].Name)
	assert.Equal(t, "PRI", columns[0].Key)
	assert.Equal(t, client.ColumnMeta{Name: "name", Type: "TEXT", Nullable: false}, columns[1])

	_, err = tc.GetColumnMetaData(ctx, src, "", "")
	require.ErrorIs(t, err, plugin.ErrInvalidArgument)
}

func TestSQLiteTableOperations(t *testing.T) {
	ctx := context.Background()
	tc, src := newSQLiteTableClient(t)

	require.NoError(t, tc.ExecuteSQLWithoutResultSet(ctx, src, "CREATE TABLE orders (id INTEGER PRIMARY KEY)"))

	ok, err := tc.AddTableColumn(ctx, src, client.UpsertColumnMeta{
		TableName:     "orders",
		ColumnName:    "note",
		ColumnType:    "TEXT",
		ColumnComment: "ignored",
	})
	require.NoError(t, err)
	assert.True(t, ok)

	columns, err := tc.GetColumnMetaData(ctx, src, "", "orders")
	require.NoError(t, err)
	assert.Len(t, columns, 2)

	_, err = tc.AddTableColumn(ctx, src, client.UpsertColumnMeta{TableName: "orders"})
	require.ErrorIs(t, err, plugin.ErrInvalidArgument)

	view, err := tc.IsView(ctx, src, "", "orders")
	require.NoError(t, err)
	assert.False(t, view)

	require.NoError(t, tc.ExecuteSQLWithoutResultSet(ctx, src, "CREATE VIEW recent AS SELECT id FROM orders"))
	view, err = tc.IsView(ctx, src, "", "recent")
	require.NoError(t, err)
	assert.True(t, view)
	require.NoError(t, tc.ExecuteSQLWithoutResultSet(ctx, src, "DROP VIEW recent"))

	_, err = tc.IsView(ctx, src, "", "missing")
	require.ErrorIs(t, err, plugin.ErrInvalidArgument)

	ok, err = tc.RenameTable(ctx, src, "orders", "orders_v2")
	require.NoError(t, err)
	assert.True(t, ok)

	tables, err := tc.ShowTables(ctx, src, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"orders_v2"}, tables)

	_, err = tc.GetTableSize(ctx, src, "", "orders_v2")
	require.ErrorIs(t, err, plugin.ErrUnsupportedOperation)

	_, err = tc.ShowPartitions(ctx, src, "orders_v2")
	require.ErrorIs(t, err, plugin.ErrUnsupportedOperation)

	_, err = tc.AlterTableParams(ctx, src, "orders_v2", map[string]string{"comment": "x"})
	require.ErrorIs(t, err, plugin.ErrUnsupportedOperation)

	ok, err = tc.DropTable(ctx, src, "orders_v2")
	require.NoError(t, err)
	assert.True(t, ok)

	tables, err = tc.ShowTables(ctx, src, "")
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestClientRejectsForeignSource(t *testing.T) {
	tc, _ := newSQLiteTableClient(t)

	_, err := tc.TestCon(context.Background(), &source.RedisSource{Addr: "localhost:6379"})
	require.ErrorIs(t, err, plugin.ErrInvalidSource)
}

func TestClientReusesConnection(t *testing.T) {
	tc, src := newSQLiteTableClient(t)

	first, err := tc.DB(src)
	require.NoError(t, err)
	second, err := tc.DB(src)
	require.NoError(t, err)
	assert.Same(t, first, second)
}
