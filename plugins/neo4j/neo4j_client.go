package neo4j

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/longkeyy/go-dsloader/common/client"
	"github.com/longkeyy/go-dsloader/common/conncache"
	"github.com/longkeyy/go-dsloader/common/logger"
	"github.com/longkeyy/go-dsloader/common/plugin"
	"github.com/longkeyy/go-dsloader/common/source"
)

const (
	DefaultMaxConnectionTimeout = 30 * time.Second
	SystemDatabase              = "system"
)

type driverKey struct {
	uri      string
	username string
	password string
}

// GraphClient Neo4j 3.x 客户端，只访问默认库
type GraphClient struct {
	typ     source.Type
	drivers *conncache.Cache[driverKey, neo4j.DriverWithContext]
	log     logger.PluginLogger
}

// GraphV2Client Neo4j 4.x 及以上的多库客户端
type GraphV2Client struct {
	*GraphClient
}

var (
	_ client.GraphClient   = (*GraphClient)(nil)
	_ client.GraphV2Client = (*GraphV2Client)(nil)
)

func newGraphClient(typ source.Type) *GraphClient {
	return &GraphClient{
		typ: typ,
		drivers: conncache.New[driverKey, neo4j.DriverWithContext](func(d neo4j.DriverWithContext) error {
			return d.Close(context.Background())
		}),
		log: logger.Nop().Plugin(),
	}
}

func NewGraphClient() any {
	return newGraphClient(source.Neo4j)
}

func NewGraphV2Client() any {
	return &GraphV2Client{GraphClient: newGraphClient(source.Neo4j40)}
}

func (c *GraphClient) Init(env *plugin.Env) error {
	if env.Logger != nil {
		c.log = env.Logger
	}
	return nil
}

func (c *GraphClient) descriptor(src source.Source) (*source.Neo4jSource, error) {
	ns, err := source.As[*source.Neo4jSource](src)
	if err != nil {
		return nil, err
	}
	if ns.Type != c.typ {
		return nil, fmt.Errorf("%w: expected source type %s, got %s", plugin.ErrInvalidSource, c.typ, ns.Type)
	}
	if ns.URI == "" {
		return nil, fmt.Errorf("%w: neo4j uri is empty", plugin.ErrInvalidSource)
	}
	return ns, nil
}

// Auth 用户名为空时不认证
func Auth(ns *source.Neo4jSource) neo4j.AuthToken {
	if ns.Username == "" {
		return neo4j.NoAuth()
	}
	return neo4j.BasicAuth(ns.Username, ns.Password, "")
}

func (c *GraphClient) driver(ns *source.Neo4jSource) (neo4j.DriverWithContext, error) {
	key := driverKey{uri: ns.URI, username: ns.Username, password: ns.Password}
	return c.drivers.Get(key, func() (neo4j.DriverWithContext, error) {
		driver, err := neo4j.NewDriverWithContext(ns.URI, Auth(ns), func(config *neo4j.Config) {
			config.SocketConnectTimeout = DefaultMaxConnectionTimeout
			config.ConnectionAcquisitionTimeout = 2 * DefaultMaxConnectionTimeout
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create driver: %w", err)
		}
		return driver, nil
	})
}

func (c *GraphClient) TestCon(ctx context.Context, src source.Source) (bool, error) {
	ns, err := c.descriptor(src)
	if err != nil {
		return false, err
	}
	driver, err := c.driver(ns)
	if err != nil {
		return false, err
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return false, fmt.Errorf("failed to verify connectivity: %w", err)
	}
	return true, nil
}

// ExecuteWhatever 执行任意 Cypher 语句，节点、关系与路径转换为普通 map
func (c *GraphClient) ExecuteWhatever(ctx context.Context, src source.Source, stmt string) ([]map[string]any, error) {
	ns, err := c.descriptor(src)
	if err != nil {
		return nil, err
	}
	database := ""
	if c.typ == source.Neo4j40 {
		database = ns.Database
	}
	return c.run(ctx, ns, database, stmt)
}

func (c *GraphClient) run(ctx context.Context, ns *source.Neo4jSource, database, stmt string) ([]map[string]any, error) {
	if strings.TrimSpace(stmt) == "" {
		return nil, fmt.Errorf("%w: statement is empty", plugin.ErrInvalidArgument)
	}
	driver, err := c.driver(ns)
	if err != nil {
		return nil, err
	}

	var opts []neo4j.ExecuteQueryConfigurationOption
	if database != "" {
		opts = append(opts, neo4j.ExecuteQueryWithDatabase(database))
	}
	result, err := neo4j.ExecuteQuery(ctx, driver, stmt, nil, neo4j.EagerResultTransformer, opts...)
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]any, 0, len(result.Records))
	for _, record := range result.Records {
		row := make(map[string]any, len(record.Keys))
		for i, key := range record.Keys {
			row[key] = ConvertValue(record.Values[i])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ListDatabases 在 system 库上执行 SHOW DATABASES
func (c *GraphV2Client) ListDatabases(ctx context.Context, src source.Source) ([]string, error) {
	ns, err := c.descriptor(src)
	if err != nil {
		return nil, err
	}
	rows, err := c.run(ctx, ns, SystemDatabase, "SHOW DATABASES")
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var names []string
	for _, row := range rows {
		name, ok := row["name"].(string)
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// ConvertValue 图类型转换为 map，列表与 map 递归转换
func ConvertValue(v any) any {
	switch x := v.(type) {
	case dbtype.Node:
		return map[string]any{
			"elementId":  x.ElementId,
			"labels":     x.Labels,
			"properties": convertMap(x.Props),
		}
	case dbtype.Relationship:
		return map[string]any{
			"elementId":      x.ElementId,
			"type":           x.Type,
			"startElementId": x.StartElementId,
			"endElementId":   x.EndElementId,
			"properties":     convertMap(x.Props),
		}
	case dbtype.Path:
		nodes := make([]any, len(x.Nodes))
		for i, n := range x.Nodes {
			nodes[i] = ConvertValue(n)
		}
		rels := make([]any, len(x.Relationships))
		for i, r := range x.Relationships {
			rels[i] = ConvertValue(r)
		}
		return map[string]any{"nodes": nodes, "relationships": rels}
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = ConvertValue(e)
		}
		return out
	case map[string]any:
		return convertMap(x)
	default:
		return v
	}
}

func convertMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = ConvertValue(v)
	}
	return out
}
