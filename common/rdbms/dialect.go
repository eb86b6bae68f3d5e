package rdbms

import "strings"

// Dialect 各数据库的目录查询语句与标识符引用方式。
// ColumnsSQL 的结果列依次为：列名、类型、注释、是否可空(YES/NO/Y/N)、键类型
type Dialect interface {
	Name() string
	Quote(ident string) string
	TestSQL() string
	DatabasesSQL() string
	TablesSQL(schema string) (string, []any)
	ColumnsSQL(schema, table string) (string, []any)
}

// EscapeLiteral 转义单引号，用于无法参数化的 DDL 字面量
func EscapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func quoteWith(open, close string) func(string) string {
	return func(ident string) string {
		return open + strings.ReplaceAll(ident, close, close+close) + close
	}
}

// Qualify 拼接 schema.table，schema 为空时只返回表名
func Qualify(d Dialect, schema, table string) string {
	if schema == "" {
		return d.Quote(table)
	}
	return d.Quote(schema) + "." + d.Quote(table)
}

type mysqlDialect struct{}

// MySQL MySQL 协议族：MySQL、OceanBase、Doris、StarRocks、Databend
var MySQL Dialect = mysqlDialect{}

func (mysqlDialect) Name() string { return "mysql" }
func (mysqlDialect) Quote(ident string) string { return quoteWith("`", "`")(ident) }
func (mysqlDialect) TestSQL() string { return "SELECT 1" }
func (mysqlDialect) DatabasesSQL() string { return "SHOW DATABASES" }

func (mysqlDialect) TablesSQL(schema string) (string, []any) {
	return "SELECT TABLE_NAME FROM information_schema.tables " +
		"WHERE TABLE_SCHEMA = COALESCE(NULLIF(?, ''), DATABASE()) ORDER BY TABLE_NAME", []any{schema}
}

func (mysqlDialect) ColumnsSQL(schema, table string) (string, []any) {
	return "SELECT COLUMN_NAME, COLUMN_TYPE, COLUMN_COMMENT, IS_NULLABLE, COLUMN_KEY FROM information_schema.columns " +
		"WHERE TABLE_SCHEMA = COALESCE(NULLIF(?, ''), DATABASE()) AND TABLE_NAME = ? ORDER BY ORDINAL_POSITION", []any{schema, table}
}

type postgresDialect struct{}

var Postgres Dialect = postgresDialect{}

func (postgresDialect) Name() string { return "postgresql" }
func (postgresDialect) Quote(ident string) string { return quoteWith(`"`, `"`)(ident) }
func (postgresDialect) TestSQL() string { return "SELECT 1" }

func (postgresDialect) DatabasesSQL() string {
	return "SELECT datname FROM pg_database WHERE datistemplate = false ORDER BY datname"
}

func (postgresDialect) TablesSQL(schema string) (string, []any) {
	return "SELECT table_name FROM information_schema.tables " +
		"WHERE table_schema = COALESCE(NULLIF($1, ''), current_schema()) ORDER BY table_name", []any{schema}
}

func (postgresDialect) ColumnsSQL(schema, table string) (string, []any) {
	return "SELECT c.column_name, c.data_type, " +
		"COALESCE(col_description((quote_ident(c.table_schema) || '.' || quote_ident(c.table_name))::regclass, c.ordinal_position), ''), " +
		"c.is_nullable, '' FROM information_schema.columns c " +
		"WHERE c.table_schema = COALESCE(NULLIF($1, ''), current_schema()) AND c.table_name = $2 " +
		"ORDER BY c.ordinal_position", []any{schema, table}
}

type sqliteDialect struct{}

var SQLite Dialect = sqliteDialect{}

func (sqliteDialect) Name() string { return "sqlite" }
func (sqliteDialect) Quote(ident string) string { return quoteWith(`"`, `"`)(ident) }
func (sqliteDialect) TestSQL() string { return "SELECT 1" }
func (sqliteDialect) DatabasesSQL() string { return "SELECT name FROM pragma_database_list ORDER BY seq" }

// TablesSQL SQLite 只有 main 库，忽略 schema
func (sqliteDialect) TablesSQL(string) (string, []any) {
	return "SELECT name FROM sqlite_master WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%' ORDER BY name", nil
}

func (sqliteDialect) ColumnsSQL(_, table string) (string, []any) {
	return `SELECT name, type, '', CASE WHEN "notnull" = 1 THEN 'NO' ELSE 'YES' END, ` +
		`CASE WHEN pk > 0 THEN 'PRI' ELSE '' END FROM pragma_table_info(?) ORDER BY cid`, []any{table}
}

type sqlServerDialect struct{}

var SQLServer Dialect = sqlServerDialect{}

func (sqlServerDialect) Name() string { return "sqlserver" }
func (sqlServerDialect) Quote(ident string) string { return quoteWith("[", "]")(ident) }
func (sqlServerDialect) TestSQL() string { return "SELECT 1" }
func (sqlServerDialect) DatabasesSQL() string { return "SELECT name FROM sys.databases ORDER BY name" }

func (sqlServerDialect) TablesSQL(schema string) (string, []any) {
	return "SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES " +
		"WHERE TABLE_SCHEMA = COALESCE(NULLIF(@p1, ''), SCHEMA_NAME()) ORDER BY TABLE_NAME", []any{schema}
}

func (sqlServerDialect) ColumnsSQL(schema, table string) (string, []any) {
	return "SELECT COLUMN_NAME, DATA_TYPE, '', IS_NULLABLE, '' FROM INFORMATION_SCHEMA.COLUMNS " +
		"WHERE TABLE_SCHEMA = COALESCE(NULLIF(@p1, ''), SCHEMA_NAME()) AND TABLE_NAME = @p2 ORDER BY ORDINAL_POSITION", []any{schema, table}
}

type oracleDialect struct{}

var Oracle Dialect = oracleDialect{}

func (oracleDialect) Name() string { return "oracle" }
func (oracleDialect) Quote(ident string) string { return quoteWith(`"`, `"`)(ident) }
func (oracleDialect) TestSQL() string { return "SELECT 1 FROM DUAL" }
func (oracleDialect) DatabasesSQL() string { return "SELECT USERNAME FROM ALL_USERS ORDER BY USERNAME" }

// Oracle 中空串即 NULL，NVL 回退到当前用户
func (oracleDialect) TablesSQL(schema string) (string, []any) {
	return "SELECT TABLE_NAME FROM ALL_TABLES WHERE OWNER = NVL(:1, USER) ORDER BY TABLE_NAME", []any{schema}
}

func (oracleDialect) ColumnsSQL(schema, table string) (string, []any) {
	return "SELECT c.COLUMN_NAME, c.DATA_TYPE, m.COMMENTS, c.NULLABLE, NULL FROM ALL_TAB_COLUMNS c " +
		"LEFT JOIN ALL_COL_COMMENTS m ON m.OWNER = c.OWNER AND m.TABLE_NAME = c.TABLE_NAME AND m.COLUMN_NAME = c.COLUMN_NAME " +
		"WHERE c.OWNER = NVL(:1, USER) AND c.TABLE_NAME = :2 ORDER BY c.COLUMN_ID", []any{schema, table}
}

type clickHouseDialect struct{}

var ClickHouse Dialect = clickHouseDialect{}

func (clickHouseDialect) Name() string { return "clickhouse" }
func (clickHouseDialect) Quote(ident string) string { return quoteWith("`", "`")(ident) }
func (clickHouseDialect) TestSQL() string { return "SELECT 1" }
func (clickHouseDialect) DatabasesSQL() string { return "SHOW DATABASES" }

func (clickHouseDialect) TablesSQL(schema string) (string, []any) {
	return "SELECT name FROM system.tables WHERE database = if(? = '', currentDatabase(), ?) ORDER BY name", []any{schema, schema}
}

func (clickHouseDialect) ColumnsSQL(schema, table string) (string, []any) {
	return "SELECT name, type, comment, if(startsWith(type, 'Nullable'), 'YES', 'NO'), if(is_in_primary_key, 'PRI', '') " +
		"FROM system.columns WHERE database = if(? = '', currentDatabase(), ?) AND table = ? ORDER BY position", []any{schema, schema, table}
}
