package client

import (
	"net/http"
	"time"
)

// ColumnMeta 列元数据
type ColumnMeta struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Comment  string `json:"comment,omitempty"`
	Nullable bool   `json:"nullable"`
	Key      string `json:"key,omitempty"`
}

// UpsertColumnMeta 新增列的描述
type UpsertColumnMeta struct {
	Schema        string
	TableName     string
	ColumnName    string
	ColumnType    string
	ColumnComment string
}

type FileStatus struct {
	Path    string    `json:"path"`
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	IsDir   bool      `json:"isDir"`
	ModTime time.Time `json:"modTime"`
}

type TopicSpec struct {
	Name        string
	Partitions  int
	Replication int
}

type Message struct {
	Key       []byte
	Value     []byte
	Partition int
	Offset    int64
	Time      time.Time
}

type AuthTicket struct {
	Principal string
	Realm     string
}

type DataPoint struct {
	Metric    string
	Timestamp time.Time
	Value     float64
	Tags      map[string]string
}

// TsdbQuery 时间范围为左闭右开；Limit 为 0 时不限制
type TsdbQuery struct {
	Metric string
	Start  time.Time
	End    time.Time
	Limit  int
}

type HttpRequest struct {
	Path    string
	Params  map[string]string
	Headers map[string]string
	Body    []byte
}

type HttpResponse struct {
	StatusCode int
	Content    []byte
	Header     http.Header
}
