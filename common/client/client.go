package client

import (
	"context"
	"io"
	"time"

	"github.com/longkeyy/go-dsloader/common/source"
)

// Tester 所有客户端共有的连通性检查
type Tester interface {
	TestCon(ctx context.Context, src source.Source) (bool, error)
}

// SQLClient 关系型与类 SQL 数据源
type SQLClient interface {
	Tester
	ExecuteQuery(ctx context.Context, src source.Source, query string, args ...any) ([]map[string]any, error)
	ExecuteSQLWithoutResultSet(ctx context.Context, src source.Source, stmt string, args ...any) error
	GetAllDatabases(ctx context.Context, src source.Source) ([]string, error)
	GetTableList(ctx context.Context, src source.Source, schema string) ([]string, error)
	GetColumnMetaData(ctx context.Context, src source.Source, schema, table string) ([]ColumnMeta, error)
}

// TableClient 表级管理操作
type TableClient interface {
	Tester
	ShowTables(ctx context.Context, src source.Source, schema string) ([]string, error)
	DropTable(ctx context.Context, src source.Source, table string) (bool, error)
	RenameTable(ctx context.Context, src source.Source, oldName, newName string) (bool, error)
	AlterTableParams(ctx context.Context, src source.Source, table string, params map[string]string) (bool, error)
	GetTableSize(ctx context.Context, src source.Source, schema, table string) (int64, error)
	IsView(ctx context.Context, src source.Source, schema, table string) (bool, error)
	AddTableColumn(ctx context.Context, src source.Source, column UpsertColumnMeta) (bool, error)
	ShowPartitions(ctx context.Context, src source.Source, table string) ([]string, error)
	ExecuteQuery(ctx context.Context, src source.Source, query string, args ...any) ([]map[string]any, error)
	ExecuteSQLWithoutResultSet(ctx context.Context, src source.Source, stmt string, args ...any) error
}

// FileClient 文件系统与对象存储
type FileClient interface {
	Tester
	IsExists(ctx context.Context, src source.Source, path string) (bool, error)
	List(ctx context.Context, src source.Source, path string) ([]FileStatus, error)
	Open(ctx context.Context, src source.Source, path string) (io.ReadCloser, error)
	Write(ctx context.Context, src source.Source, path string, r io.Reader) error
	Delete(ctx context.Context, src source.Source, path string, recursive bool) error
	Mkdir(ctx context.Context, src source.Source, path string) error
}

// QueueClient 消息队列
type QueueClient interface {
	Tester
	ListTopics(ctx context.Context, src source.Source) ([]string, error)
	CreateTopic(ctx context.Context, src source.Source, spec TopicSpec) error
	Produce(ctx context.Context, src source.Source, topic string, msgs ...Message) error
	// Consume 最多读取 max 条消息；ctx 无截止时间时使用 DefaultConsumeTimeout
	Consume(ctx context.Context, src source.Source, topic string, max int) ([]Message, error)
}

// DefaultConsumeTimeout Consume 在未指定截止时间时的等待上限
const DefaultConsumeTimeout = 5 * time.Second

// AuthClient 认证
type AuthClient interface {
	Tester
	Login(ctx context.Context, src source.Source) (*AuthTicket, error)
	ListPrincipals(ctx context.Context, src source.Source) ([]string, error)
}

// WideColumnClient 宽表数据库
type WideColumnClient interface {
	Tester
	ListNamespaces(ctx context.Context, src source.Source) ([]string, error)
	ListTables(ctx context.Context, src source.Source, namespace string) ([]string, error)
	Scan(ctx context.Context, src source.Source, namespace, table string, limit int) ([]map[string]any, error)
	Execute(ctx context.Context, src source.Source, stmt string, args ...any) error
}

// TimeSeriesClient 时序数据库
type TimeSeriesClient interface {
	Tester
	ListMetrics(ctx context.Context, src source.Source) ([]string, error)
	Put(ctx context.Context, src source.Source, points ...DataPoint) error
	Query(ctx context.Context, src source.Source, q TsdbQuery) ([]DataPoint, error)
}

// HttpClient REST 接口
type HttpClient interface {
	Tester
	Get(ctx context.Context, src source.Source, req HttpRequest) (*HttpResponse, error)
	Post(ctx context.Context, src source.Source, req HttpRequest) (*HttpResponse, error)
	Put(ctx context.Context, src source.Source, req HttpRequest) (*HttpResponse, error)
	Delete(ctx context.Context, src source.Source, req HttpRequest) (*HttpResponse, error)
}

// KeyValueClient 键值存储
type KeyValueClient interface {
	Tester
	Get(ctx context.Context, src source.Source, key string) (string, bool, error)
	Set(ctx context.Context, src source.Source, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, src source.Source, keys ...string) (int64, error)
	Keys(ctx context.Context, src source.Source, pattern string, limit int) ([]string, error)
}

// GraphClient 图数据库
type GraphClient interface {
	Tester
	ExecuteWhatever(ctx context.Context, src source.Source, stmt string) ([]map[string]any, error)
}

// GraphV2Client 支持多库的图数据库
type GraphV2Client interface {
	GraphClient
	ListDatabases(ctx context.Context, src source.Source) ([]string, error)
}

// DocumentClient 文档数据库
type DocumentClient interface {
	Tester
	ListDatabases(ctx context.Context, src source.Source) ([]string, error)
	ListCollections(ctx context.Context, src source.Source, database string) ([]string, error)
	Find(ctx context.Context, src source.Source, database, collection string, filter map[string]any, limit int) ([]map[string]any, error)
	Insert(ctx context.Context, src source.Source, database, collection string, docs ...map[string]any) (int, error)
}

// SearchClient 搜索引擎
type SearchClient interface {
	Tester
	ListIndices(ctx context.Context, src source.Source) ([]string, error)
	Search(ctx context.Context, src source.Source, index, query string, size int) ([]map[string]any, error)
	Index(ctx context.Context, src source.Source, index, id string, doc map[string]any) error
}
