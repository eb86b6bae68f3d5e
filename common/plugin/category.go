package plugin

import (
	"fmt"
	"strings"
)

// Category 客户端能力类别，每个类别对应一个能力接口与一个缓存分区
type Category int

const (
	SQL Category = iota
	File
	Queue
	Auth
	WideColumn
	Table
	TimeSeries
	Http
	KeyValue
	Graph
	GraphV2
	Document
	Search
)

var categoryNames = [...]string{
	SQL:        "sql",
	File:       "file",
	Queue:      "queue",
	Auth:       "auth",
	WideColumn: "widecolumn",
	Table:      "table",
	TimeSeries: "timeseries",
	Http:       "http",
	KeyValue:   "keyvalue",
	Graph:      "graph",
	GraphV2:    "graphv2",
	Document:   "document",
	Search:     "search",
}

// 入口约定：插件按类别导出固定名字的入口
var categoryEntrypoints = [...]string{
	SQL:        "SQLClient",
	File:       "FileClient",
	Queue:      "QueueClient",
	Auth:       "AuthClient",
	WideColumn: "WideColumnClient",
	Table:      "TableClient",
	TimeSeries: "TimeSeriesClient",
	Http:       "HttpClient",
	KeyValue:   "KeyValueClient",
	Graph:      "GraphClient",
	GraphV2:    "GraphV2Client",
	Document:   "DocumentClient",
	Search:     "SearchClient",
}

// Categories 返回全部类别，按声明顺序
func Categories() []Category {
	cs := make([]Category, len(categoryNames))
	for i := range categoryNames {
		cs[i] = Category(i)
	}
	return cs
}

// Valid 是否为已定义的类别
func (c Category) Valid() bool {
	return c >= 0 && int(c) < len(categoryNames)
}

func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryNames[c]
}

// Entrypoint 该类别在插件中的入口名
func (c Category) Entrypoint() string {
	if !c.Valid() {
		return ""
	}
	return categoryEntrypoints[c]
}

// Symbol 共享库中导出的构造函数符号名
func (c Category) Symbol() string {
	return "New" + c.Entrypoint()
}

// ParseCategory 按名字（大小写不敏感）或入口名解析类别
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for i, name := range categoryNames {
		if strings.EqualFold(s, name) || strings.EqualFold(s, categoryEntrypoints[i]) {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown category %q", ErrInvalidArgument, s)
}
