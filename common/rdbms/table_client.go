package rdbms

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/longkeyy/go-dsloader/common/client"
	"github.com/longkeyy/go-dsloader/common/plugin"
	"github.com/longkeyy/go-dsloader/common/source"
)

// TableDialect 表管理相关语句；不支持的操作返回 plugin.ErrUnsupportedOperation
type TableDialect interface {
	Dialect
	TableSizeSQL(schema, table string) (string, []any, error)
	IsViewSQL(schema, table string) (string, []any, error)
	// AlterTableParamsSQL 返回空切片表示无需执行
	AlterTableParamsSQL(table string, params map[string]string) ([]string, error)
	AddColumnSQL(schema string, column client.UpsertColumnMeta) ([]string, error)
	ShowPartitionsSQL(schema, table string) (string, []any, error)
	RenameTableSQL(schema, oldName, newName string) string
}

// TableClient 表客户端基类，与 Client 共用连接
type TableClient struct {
	*Client
	dialect TableDialect
}

var _ client.TableClient = (*TableClient)(nil)

func NewTableClient(factory ConnFactory, dialect TableDialect) *TableClient {
	return &TableClient{
		Client:  NewClient(factory, dialect),
		dialect: dialect,
	}
}

func (t *TableClient) ShowTables(ctx context.Context, src source.Source, schema string) ([]string, error) {
	return t.GetTableList(ctx, src, schema)
}

func (t *TableClient) DropTable(ctx context.Context, src source.Source, table string) (bool, error) {
	if table == "" {
		return false, fmt.Errorf("%w: table name is empty", plugin.ErrInvalidArgument)
	}
	stmt := "DROP TABLE " + Qualify(t.dialect, schemaOf(src, ""), table)
	if err := t.ExecuteSQLWithoutResultSet(ctx, src, stmt); err != nil {
		return false, err
	}
	return true, nil
}

func (t *TableClient) RenameTable(ctx context.Context, src source.Source, oldName, newName string) (bool, error) {
	if oldName == "" || newName == "" {
		return false, fmt.Errorf("%w: table name is empty", plugin.ErrInvalidArgument)
	}
	stmt := t.dialect.RenameTableSQL(schemaOf(src, ""), oldName, newName)
	if err := t.ExecuteSQLWithoutResultSet(ctx, src, stmt); err != nil {
		return false, err
	}
	return true, nil
}

func (t *TableClient) AlterTableParams(ctx context.Context, src source.Source, table string, params map[string]string) (bool, error) {
	stmts, err := t.dialect.AlterTableParamsSQL(Qualify(t.dialect, schemaOf(src, ""), table), params)
	if err != nil {
		return false, err
	}
	t.log.Info("Update table params", zap.String("table", table), zap.Int("statements", len(stmts)))
	for _, stmt := range stmts {
		if err := t.ExecuteSQLWithoutResultSet(ctx, src, stmt); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (t *TableClient) GetTableSize(ctx context.Context, src source.Source, schema, table string) (int64, error) {
	query, args, err := t.dialect.TableSizeSQL(schemaOf(src, schema), table)
	if err != nil {
		return 0, err
	}
	db, err := t.DB(src)
	if err != nil {
		return 0, err
	}
	ctx, cancel := t.withTimeout(ctx)
	defer cancel()

	var size sql.NullInt64
	if err := db.QueryRowContext(ctx, query, args...).Scan(&size); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: table %s not found", plugin.ErrInvalidArgument, table)
		}
		return 0, fmt.Errorf("failed to get table size: %w", err)
	}
	return size.Int64, nil
}

func (t *TableClient) IsView(ctx context.Context, src source.Source, schema, table string) (bool, error) {
	query, args, err := t.dialect.IsViewSQL(schemaOf(src, schema), table)
	if err != nil {
		return false, err
	}
	rows, err := t.queryStrings(ctx, src, query, args...)
	if err != nil {
		return false, err
	}
	if len(rows) == 0 {
		return false, fmt.Errorf("%w: table %s not found", plugin.ErrInvalidArgument, table)
	}
	return isViewType(rows[0]), nil
}

// AddTableColumn column.Schema 为空时使用数据源的 schema
func (t *TableClient) AddTableColumn(ctx context.Context, src source.Source, column client.UpsertColumnMeta) (bool, error) {
	if column.TableName == "" || column.ColumnName == "" || column.ColumnType == "" {
		return false, fmt.Errorf("%w: table, column name and type are required", plugin.ErrInvalidArgument)
	}
	stmts, err := t.dialect.AddColumnSQL(schemaOf(src, column.Schema), column)
	if err != nil {
		return false, err
	}
	for _, stmt := range stmts {
		if err := t.ExecuteSQLWithoutResultSet(ctx, src, stmt); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (t *TableClient) ShowPartitions(ctx context.Context, src source.Source, table string) ([]string, error) {
	query, args, err := t.dialect.ShowPartitionsSQL(schemaOf(src, ""), table)
	if err != nil {
		return nil, err
	}
	return t.queryStrings(ctx, src, query, args...)
}

func isViewType(v string) bool {
	switch v {
	case "VIEW", "view", "SYSTEM VIEW":
		return true
	}
	return false
}
