package registry

import (
	"fmt"

	"github.com/longkeyy/go-dsloader/common/client"
	"github.com/longkeyy/go-dsloader/common/plugin"
	"github.com/longkeyy/go-dsloader/common/source"
)

func get[T any](r *ClientRegistry, category plugin.Category, t source.Type) (T, error) {
	var zero T
	v, err := r.Client(category, t)
	if err != nil {
		return zero, err
	}
	c, ok := v.(T)
	if !ok {
		name, _ := r.table.PluginName(t, category)
		return zero, &plugin.AccessError{
			Category:   category,
			PluginName: name,
			Err:        fmt.Errorf("%w: %T is not a %s", plugin.ErrContractViolation, v, category.Entrypoint()),
		}
	}
	return c, nil
}

// SQL 获取关系型客户端
func (r *ClientRegistry) SQL(t source.Type) (client.SQLClient, error) {
	return get[client.SQLClient](r, plugin.SQL, t)
}

// File 获取文件系统客户端
func (r *ClientRegistry) File(t source.Type) (client.FileClient, error) {
	return get[client.FileClient](r, plugin.File, t)
}

// Queue 获取消息队列客户端
func (r *ClientRegistry) Queue(t source.Type) (client.QueueClient, error) {
	return get[client.QueueClient](r, plugin.Queue, t)
}

// Auth 获取认证客户端
func (r *ClientRegistry) Auth(t source.Type) (client.AuthClient, error) {
	return get[client.AuthClient](r, plugin.Auth, t)
}

// WideColumn 获取宽表客户端
func (r *ClientRegistry) WideColumn(t source.Type) (client.WideColumnClient, error) {
	return get[client.WideColumnClient](r, plugin.WideColumn, t)
}

// Table 获取表管理客户端
func (r *ClientRegistry) Table(t source.Type) (client.TableClient, error) {
	return get[client.TableClient](r, plugin.Table, t)
}

// TimeSeries 获取时序客户端
func (r *ClientRegistry) TimeSeries(t source.Type) (client.TimeSeriesClient, error) {
	return get[client.TimeSeriesClient](r, plugin.TimeSeries, t)
}

// Http 获取 REST 客户端
func (r *ClientRegistry) Http(t source.Type) (client.HttpClient, error) {
	return get[client.HttpClient](r, plugin.Http, t)
}

// KeyValue 获取键值客户端
func (r *ClientRegistry) KeyValue(t source.Type) (client.KeyValueClient, error) {
	return get[client.KeyValueClient](r, plugin.KeyValue, t)
}

// Graph 获取图数据库客户端
func (r *ClientRegistry) Graph(t source.Type) (client.GraphClient, error) {
	return get[client.GraphClient](r, plugin.Graph, t)
}

// GraphV2 获取多库图数据库客户端
func (r *ClientRegistry) GraphV2(t source.Type) (client.GraphV2Client, error) {
	return get[client.GraphV2Client](r, plugin.GraphV2, t)
}

// Document 获取文档数据库客户端
func (r *ClientRegistry) Document(t source.Type) (client.DocumentClient, error) {
	return get[client.DocumentClient](r, plugin.Document, t)
}

// Search 获取搜索引擎客户端
func (r *ClientRegistry) Search(t source.Type) (client.SearchClient, error) {
	return get[client.SearchClient](r, plugin.Search, t)
}
