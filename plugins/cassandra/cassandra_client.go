package cassandra

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gocql/gocql"

	"github.com/longkeyy/go-dsloader/common/client"
	"github.com/longkeyy/go-dsloader/common/conncache"
	"github.com/longkeyy/go-dsloader/common/logger"
	"github.com/longkeyy/go-dsloader/common/plugin"
	"github.com/longkeyy/go-dsloader/common/source"
)

const (
	DefaultPort           = 9042
	DefaultConsistency    = "LOCAL_QUORUM"
	DefaultConnectTimeout = 10 * time.Second
	DefaultSocketTimeout  = 30 * time.Second
	// DefaultScanLimit Scan 未指定 limit 时的行数上限
	DefaultScanLimit = 100
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// WideColumnClient Cassandra 客户端，按连接参数复用 session
type WideColumnClient struct {
	sessions *conncache.Cache[string, *gocql.Session]
	log      logger.PluginLogger
}

var _ client.WideColumnClient = (*WideColumnClient)(nil)

func NewWideColumnClient() any {
	return &WideColumnClient{
		sessions: conncache.New[string, *gocql.Session](func(s *gocql.Session) error {
			s.Close()
			return nil
		}),
		log: logger.Nop().Plugin(),
	}
}

func (c *WideColumnClient) Init(env *plugin.Env) error {
	if env.Logger != nil {
		c.log = env.Logger
	}
	return nil
}

// ClusterConfig 由数据源描述构建集群配置
func ClusterConfig(cs *source.CassandraSource) (*gocql.ClusterConfig, error) {
	if len(cs.Hosts) == 0 {
		return nil, fmt.Errorf("%w: cassandra hosts are empty", plugin.ErrInvalidSource)
	}
	level := cs.Consistency
	if level == "" {
		level = DefaultConsistency
	}
	consistency, err := gocql.ParseConsistencyWrapper(level)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", plugin.ErrInvalidSource, err)
	}

	cluster := gocql.NewCluster(cs.Hosts...)
	cluster.Port = cs.Port
	if cluster.Port <= 0 {
		cluster.Port = DefaultPort
	}
	cluster.Keyspace = cs.Keyspace
	cluster.Consistency = consistency
	cluster.ConnectTimeout = DefaultConnectTimeout
	cluster.Timeout = DefaultSocketTimeout
	if cs.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cs.Username,
			Password: cs.Password,
		}
	}
	return cluster, nil
}

func cacheKey(cs *source.CassandraSource) string {
	return strings.Join([]string{
		strings.Join(cs.Hosts, ","),
		strconv.Itoa(cs.Port),
		cs.Keyspace,
		cs.Username,
		cs.Password,
		cs.Consistency,
	}, "|")
}

func (c *WideColumnClient) session(src source.Source) (*gocql.Session, error) {
	cs, err := source.As[*source.CassandraSource](src)
	if err != nil {
		return nil, err
	}
	cluster, err := ClusterConfig(cs)
	if err != nil {
		return nil, err
	}
	return c.sessions.Get(cacheKey(cs), func() (*gocql.Session, error) {
		s, err := cluster.CreateSession()
		if err != nil {
			return nil, fmt.Errorf("连接Cassandra失败: %w", err)
		}
		return s, nil
	})
}

func (c *WideColumnClient) TestCon(ctx context.Context, src source.Source) (bool, error) {
	s, err := c.session(src)
	if err != nil {
		return false, err
	}
	var version string
	if err := s.Query("SELECT release_version FROM system.local").WithContext(ctx).Scan(&version); err != nil {
		return false, err
	}
	return true, nil
}

func (c *WideColumnClient) ListNamespaces(ctx context.Context, src source.Source) ([]string, error) {
	s, err := c.session(src)
	if err != nil {
		return nil, err
	}
	return scanStrings(s.Query("SELECT keyspace_name FROM system_schema.keyspaces").WithContext(ctx).Iter())
}

func (c *WideColumnClient) ListTables(ctx context.Context, src source.Source, namespace string) ([]string, error) {
	if namespace == "" {
		return nil, fmt.Errorf("%w: keyspace is empty", plugin.ErrInvalidArgument)
	}
	s, err := c.session(src)
	if err != nil {
		return nil, err
	}
	q := s.Query("SELECT table_name FROM system_schema.tables WHERE keyspace_name = ?", namespace)
	return scanStrings(q.WithContext(ctx).Iter())
}

func scanStrings(iter *gocql.Iter) ([]string, error) {
	var (
		out  []string
		name string
	)
	for iter.Scan(&name) {
		out = append(out, name)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

// ScanStatement 构建全表扫描语句，标识符只允许字母数字和下划线
func ScanStatement(namespace, table string, limit int) (string, error) {
	if !identifier.MatchString(namespace) {
		return "", fmt.Errorf("%w: invalid keyspace %q", plugin.ErrInvalidArgument, namespace)
	}
	if !identifier.MatchString(table) {
		return "", fmt.Errorf("%w: invalid table %q", plugin.ErrInvalidArgument, table)
	}
	if limit <= 0 {
		limit = DefaultScanLimit
	}
	return fmt.Sprintf(`SELECT * FROM "%s"."%s" LIMIT %d`, namespace, table, limit), nil
}

func (c *WideColumnClient) Scan(ctx context.Context, src source.Source, namespace, table string, limit int) ([]map[string]any, error) {
	stmt, err := ScanStatement(namespace, table, limit)
	if err != nil {
		return nil, err
	}
	s, err := c.session(src)
	if err != nil {
		return nil, err
	}

	iter := s.Query(stmt).WithContext(ctx).Iter()
	var rows []map[string]any
	for {
		row := make(map[string]any)
		if !iter.MapScan(row) {
			break
		}
		rows = append(rows, row)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *WideColumnClient) Execute(ctx context.Context, src source.Source, stmt string, args ...any) error {
	if strings.TrimSpace(stmt) == "" {
		return fmt.Errorf("%w: statement is empty", plugin.ErrInvalidArgument)
	}
	s, err := c.session(src)
	if err != nil {
		return err
	}
	return s.Query(stmt, args...).WithContext(ctx).Exec()
}
