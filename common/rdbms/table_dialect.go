package rdbms

import (
	"fmt"
	"strings"

	"github.com/longkeyy/go-dsloader/common/client"
	"github.com/longkeyy/go-dsloader/common/plugin"
)

// CommentParam AlterTableParams 目前只识别表注释
const CommentParam = "comment"

type mysqlTable struct{ mysqlDialect }

// MySQLTable MySQL 表管理
var MySQLTable TableDialect = mysqlTable{}

func (mysqlTable) TableSizeSQL(schema, table string) (string, []any, error) {
	return "SELECT (DATA_LENGTH + INDEX_LENGTH) AS table_size FROM information_schema.tables " +
		"WHERE TABLE_SCHEMA = COALESCE(NULLIF(?, ''), DATABASE()) AND TABLE_NAME = ?", []any{schema, table}, nil
}

func (mysqlTable) IsViewSQL(schema, table string) (string, []any, error) {
	return "SELECT TABLE_TYPE FROM information_schema.tables " +
		"WHERE TABLE_SCHEMA = COALESCE(NULLIF(?, ''), DATABASE()) AND TABLE_NAME = ?", []any{schema, table}, nil
}

// AlterTableParamsSQL 注释为空时不执行任何语句
func (mysqlTable) AlterTableParamsSQL(table string, params map[string]string) ([]string, error) {
	comment := params[CommentParam]
	if comment == "" {
		return nil, nil
	}
	return []string{fmt.Sprintf("alter table %s comment '%s'", table, EscapeLiteral(comment))}, nil
}

func (d mysqlTable) AddColumnSQL(schema string, c client.UpsertColumnMeta) ([]string, error) {
	return []string{fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s COMMENT '%s'",
		Qualify(d, schema, c.TableName), d.Quote(c.ColumnName), c.ColumnType, EscapeLiteral(c.ColumnComment))}, nil
}

func (mysqlTable) ShowPartitionsSQL(schema, table string) (string, []any, error) {
	return "SELECT PARTITION_NAME FROM information_schema.partitions " +
		"WHERE TABLE_SCHEMA = COALESCE(NULLIF(?, ''), DATABASE()) AND TABLE_NAME = ? AND PARTITION_NAME IS NOT NULL " +
		"ORDER BY PARTITION_ORDINAL_POSITION", []any{schema, table}, nil
}

// RenameTableSQL MySQL 的新表名需要带上库名，否则会移动到当前库
func (d mysqlTable) RenameTableSQL(schema, oldName, newName string) string {
	return fmt.Sprintf("ALTER TABLE %s RENAME TO %s", Qualify(d, schema, oldName), Qualify(d, schema, newName))
}

type oceanBaseTable struct{ mysqlTable }

// OceanBaseTable OceanBase 表管理：表大小必须指定 schema，不支持查询分区
var OceanBaseTable TableDialect = oceanBaseTable{}

func (oceanBaseTable) Name() string { return "oceanbase" }

func (oceanBaseTable) TableSizeSQL(schema, table string) (string, []any, error) {
	if strings.TrimSpace(schema) == "" {
		return "", nil, fmt.Errorf("%w: schema is not empty", plugin.ErrInvalidArgument)
	}
	return "select (data_length + index_length) as table_size from information_schema.tables " +
		"where TABLE_SCHEMA = ? and TABLE_NAME = ?", []any{schema, table}, nil
}

func (oceanBaseTable) ShowPartitionsSQL(string, string) (string, []any, error) {
	return "", nil, plugin.Unsupported("the data source does not support get partition operation")
}

type postgresTable struct{ postgresDialect }

var PostgresTable TableDialect = postgresTable{}

func (postgresTable) TableSizeSQL(schema, table string) (string, []any, error) {
	return "SELECT pg_total_relation_size((quote_ident(COALESCE(NULLIF($1, ''), current_schema())) || '.' || quote_ident($2))::regclass)",
		[]any{schema, table}, nil
}

func (postgresTable) IsViewSQL(schema, table string) (string, []any, error) {
	return "SELECT table_type FROM information_schema.tables " +
		"WHERE table_schema = COALESCE(NULLIF($1, ''), current_schema()) AND table_name = $2", []any{schema, table}, nil
}

func (postgresTable) AlterTableParamsSQL(table string, params map[string]string) ([]string, error) {
	comment := params[CommentParam]
	if comment == "" {
		return nil, nil
	}
	return []string{fmt.Sprintf("COMMENT ON TABLE %s IS '%s'", table, EscapeLiteral(comment))}, nil
}

func (d postgresTable) AddColumnSQL(schema string, c client.UpsertColumnMeta) ([]string, error) {
	table := Qualify(d, schema, c.TableName)
	column := d.Quote(c.ColumnName)
	stmts := []string{fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, c.ColumnType)}
	if c.ColumnComment != "" {
		stmts = append(stmts, fmt.Sprintf("COMMENT ON COLUMN %s.%s IS '%s'", table, column, EscapeLiteral(c.ColumnComment)))
	}
	return stmts, nil
}

func (postgresTable) ShowPartitionsSQL(schema, table string) (string, []any, error) {
	return "SELECT c.relname FROM pg_inherits i " +
		"JOIN pg_class c ON c.oid = i.inhrelid " +
		"JOIN pg_class p ON p.oid = i.inhparent " +
		"JOIN pg_namespace n ON n.oid = p.relnamespace " +
		"WHERE n.nspname = COALESCE(NULLIF($1, ''), current_schema()) AND p.relname = $2 ORDER BY c.relname",
		[]any{schema, table}, nil
}

func (d postgresTable) RenameTableSQL(schema, oldName, newName string) string {
	return fmt.Sprintf("ALTER TABLE %s RENAME TO %s", Qualify(d, schema, oldName), d.Quote(newName))
}

type sqliteTable struct{ sqliteDialect }

// SQLiteTable SQLite 只支持新增列、改名、删除与视图判断
var SQLiteTable TableDialect = sqliteTable{}

func (sqliteTable) TableSizeSQL(string, string) (string, []any, error) {
	return "", nil, plugin.Unsupported("sqlite does not report table size")
}

func (sqliteTable) IsViewSQL(_, table string) (string, []any, error) {
	return "SELECT UPPER(type) FROM sqlite_master WHERE name = ?", []any{table}, nil
}

func (sqliteTable) AlterTableParamsSQL(string, map[string]string) ([]string, error) {
	return nil, plugin.Unsupported("sqlite has no table parameters")
}

// AddColumnSQL SQLite 没有列注释，ColumnComment 被忽略
func (d sqliteTable) AddColumnSQL(_ string, c client.UpsertColumnMeta) ([]string, error) {
	return []string{fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", d.Quote(c.TableName), d.Quote(c.ColumnName), c.ColumnType)}, nil
}

func (sqliteTable) ShowPartitionsSQL(string, string) (string, []any, error) {
	return "", nil, plugin.Unsupported("sqlite has no partitions")
}

func (d sqliteTable) RenameTableSQL(_, oldName, newName string) string {
	return fmt.Sprintf("ALTER TABLE %s RENAME TO %s", d.Quote(oldName), d.Quote(newName))
}
