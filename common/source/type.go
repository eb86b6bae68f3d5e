package source

import (
	"fmt"
	"sort"

	"github.com/longkeyy/go-dsloader/common/plugin"
)

// Type 数据源类型编号
type Type int

// Unknown 未知类型，永远无法解析
const Unknown Type = -1

const (
	MySQL      Type = 1
	Oracle     Type = 2
	SQLServer  Type = 3
	PostgreSQL Type = 4
	HDFS       Type = 6
	FTP        Type = 9
	Redis      Type = 12
	MongoDB    Type = 13
	Clickhouse Type = 25
	Kafka      Type = 26
	S3         Type = 41
	ES7        Type = 46
	Restful    Type = 47
	OceanBase  Type = 49
	Doris      Type = 57
	MySQL8     Type = 1001
	SQLite     Type = 1010
	Databend   Type = 1011
	StarRocks  Type = 1012
	Cassandra  Type = 1013
	TDengine   Type = 1014
	OSS        Type = 1015
	RabbitMQ   Type = 1016
	Kerberos   Type = 1017
	Neo4j      Type = 1018
	Neo4j40    Type = 1019
)

// Entry 类型表中的一行；Categories[0] 为主类别
type Entry struct {
	Type       Type
	Name       string
	PluginName string
	Categories []plugin.Category
}

// Primary 主类别
func (e Entry) Primary() plugin.Category {
	return e.Categories[0]
}

// Supports 该类型的插件是否提供某类别的客户端
func (e Entry) Supports(category plugin.Category) bool {
	for _, c := range e.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Table 只读的类型表，构建后不再变化，可并发读取
type Table struct {
	entries map[Type]Entry
}

// NewTable 构建类型表；编号重复、插件名为空或未声明类别时返回错误
func NewTable(entries ...Entry) (*Table, error) {
	t := &Table{entries: make(map[Type]Entry, len(entries))}
	for _, e := range entries {
		if e.Type == Unknown {
			return nil, fmt.Errorf("%w: type %d is reserved", plugin.ErrInvalidArgument, e.Type)
		}
		if e.PluginName == "" || len(e.Categories) == 0 {
			return nil, fmt.Errorf("%w: type %d needs a plugin name and a category", plugin.ErrInvalidArgument, e.Type)
		}
		if _, dup := t.entries[e.Type]; dup {
			return nil, fmt.Errorf("%w: type %d registered twice", plugin.ErrInvalidArgument, e.Type)
		}
		e.Categories = append([]plugin.Category(nil), e.Categories...)
		t.entries[e.Type] = e
	}
	return t, nil
}

// MustNewTable 同 NewTable，出错时 panic
func MustNewTable(entries ...Entry) *Table {
	t, err := NewTable(entries...)
	if err != nil {
		panic(err)
	}
	return t
}

// Resolve 返回类型对应的表项
func (t *Table) Resolve(typ Type) (Entry, error) {
	e, ok := t.entries[typ]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %d", plugin.ErrUnknownSourceType, int(typ))
	}
	return e, nil
}

// PluginName 返回类型在指定类别下使用的插件名
func (t *Table) PluginName(typ Type, category plugin.Category) (string, error) {
	e, err := t.Resolve(typ)
	if err != nil {
		return "", err
	}
	if !e.Supports(category) {
		return "", plugin.Unsupported("source type %s(%d) has no %s client", e.Name, int(typ), category)
	}
	return e.PluginName, nil
}

// Entries 按编号排序返回全部表项
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// Len 表项数量
func (t *Table) Len() int {
	return len(t.entries)
}

var defaultTable = MustNewTable(
	Entry{MySQL, "MySQL", "mysql5", []plugin.Category{plugin.SQL, plugin.Table}},
	Entry{MySQL8, "MySQL8", "mysql8", []plugin.Category{plugin.SQL, plugin.Table}},
	Entry{Oracle, "Oracle", "oracle", []plugin.Category{plugin.SQL}},
	Entry{SQLServer, "SQLServer", "sqlServer", []plugin.Category{plugin.SQL}},
	Entry{PostgreSQL, "PostgreSQL", "postgresql", []plugin.Category{plugin.SQL, plugin.Table}},
	Entry{HDFS, "HDFS", "hdfs", []plugin.Category{plugin.File}},
	Entry{FTP, "FTP", "ftp", []plugin.Category{plugin.File}},
	Entry{Redis, "Redis", "redis", []plugin.Category{plugin.KeyValue}},
	Entry{MongoDB, "MongoDB", "mongo", []plugin.Category{plugin.Document}},
	Entry{Clickhouse, "Clickhouse", "clickhouse", []plugin.Category{plugin.SQL}},
	Entry{Kafka, "Kafka", "kafka", []plugin.Category{plugin.Queue}},
	Entry{S3, "S3", "s3", []plugin.Category{plugin.File}},
	Entry{ES7, "ES7", "es7", []plugin.Category{plugin.Search}},
	Entry{Restful, "Restful", "restful", []plugin.Category{plugin.Http}},
	Entry{OceanBase, "OceanBase", "oceanBase", []plugin.Category{plugin.SQL, plugin.Table}},
	Entry{Doris, "Doris", "doris", []plugin.Category{plugin.SQL}},
	Entry{SQLite, "SQLite", "sqlite", []plugin.Category{plugin.SQL, plugin.Table}},
	Entry{Databend, "Databend", "databend", []plugin.Category{plugin.SQL}},
	Entry{StarRocks, "StarRocks", "starrocks", []plugin.Category{plugin.SQL}},
	Entry{Cassandra, "Cassandra", "cassandra", []plugin.Category{plugin.WideColumn}},
	Entry{TDengine, "TDengine", "tdengine", []plugin.Category{plugin.TimeSeries}},
	Entry{OSS, "OSS", "oss", []plugin.Category{plugin.File}},
	Entry{RabbitMQ, "RabbitMQ", "rabbitmq", []plugin.Category{plugin.Queue}},
	Entry{Kerberos, "Kerberos", "kerberos", []plugin.Category{plugin.Auth}},
	Entry{Neo4j, "Neo4j", "neo4j", []plugin.Category{plugin.Graph}},
	Entry{Neo4j40, "Neo4j40", "neo4j40", []plugin.Category{plugin.GraphV2}},
)

// DefaultTable 内置类型表
func DefaultTable() *Table {
	return defaultTable
}

// Resolve 在内置类型表中解析
func Resolve(typ Type) (Entry, error) {
	return defaultTable.Resolve(typ)
}

// PluginName 在内置类型表中查插件名
func PluginName(typ Type, category plugin.Category) (string, error) {
	return defaultTable.PluginName(typ, category)
}

func (t Type) String() string {
	if e, err := defaultTable.Resolve(t); err == nil {
		return e.Name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}
