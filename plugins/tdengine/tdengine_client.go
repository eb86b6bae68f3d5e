package tdengine

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	_ "github.com/taosdata/driver-go/v3/taosRestful"

	"github.com/longkeyy/go-dsloader/common/client"
	"github.com/longkeyy/go-dsloader/common/conncache"
	"github.com/longkeyy/go-dsloader/common/logger"
	"github.com/longkeyy/go-dsloader/common/plugin"
	"github.com/longkeyy/go-dsloader/common/rdbms"
	"github.com/longkeyy/go-dsloader/common/source"
)

const (
	DriverName  = "taosRestful"
	DefaultPort = "6041"
	jdbcPrefix  = "jdbc:TAOS-RS://"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// TimeSeriesClient TDengine REST 客户端。每个指标对应一张 (ts TIMESTAMP, value DOUBLE) 表
type TimeSeriesClient struct {
	conns *conncache.Cache[string, *sql.DB]
	open  func(dsn string) (*sql.DB, error)
	log   logger.PluginLogger
}

var _ client.TimeSeriesClient = (*TimeSeriesClient)(nil)

func NewTimeSeriesClient() any {
	return &TimeSeriesClient{
		conns: conncache.New[string, *sql.DB](func(db *sql.DB) error { return db.Close() }),
		open:  rdbms.SQLOpener(DriverName),
		log:   logger.Nop().Plugin(),
	}
}

func (c *TimeSeriesClient) Init(env *plugin.Env) error {
	if env.Logger != nil {
		c.log = env.Logger
	}
	return nil
}

// DSN 转换为 user:password@http(host:port)/db，接受 jdbc:TAOS-RS://、http(s):// 与 host:port
func DSN(ts *source.TsdbSource) (string, error) {
	raw := strings.TrimSpace(ts.URL)
	if raw == "" {
		return "", fmt.Errorf("%w: tdengine url is empty", plugin.ErrInvalidSource)
	}
	if strings.HasPrefix(raw, jdbcPrefix) {
		raw = "http://" + strings.TrimPrefix(raw, jdbcPrefix)
	} else if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: invalid tdengine url %q: %w", plugin.ErrInvalidSource, ts.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported tdengine scheme %q", plugin.ErrInvalidSource, u.Scheme)
	}

	host := u.Host
	if u.Port() == "" {
		host = u.Hostname() + ":" + DefaultPort
	}
	db := ts.Database
	if db == "" {
		db = strings.Trim(u.Path, "/")
	}
	return fmt.Sprintf("%s:%s@%s(%s)/%s", ts.Username, ts.Password, u.Scheme, host, db), nil
}

func (c *TimeSeriesClient) db(src source.Source) (*sql.DB, *source.TsdbSource, error) {
	ts, err := source.As[*source.TsdbSource](src)
	if err != nil {
		return nil, nil, err
	}
	dsn, err := DSN(ts)
	if err != nil {
		return nil, nil, err
	}
	db, err := c.conns.Get(dsn, func() (*sql.DB, error) { return c.open(dsn) })
	return db, ts, err
}

func (c *TimeSeriesClient) TestCon(ctx context.Context, src source.Source) (bool, error) {
	db, _, err := c.db(src)
	if err != nil {
		return false, err
	}
	if err := db.PingContext(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func qualify(database, metric string) (string, error) {
	if !identifier.MatchString(metric) {
		return "", fmt.Errorf("%w: invalid metric name %q", plugin.ErrInvalidArgument, metric)
	}
	if database == "" {
		return metric, nil
	}
	if !identifier.MatchString(database) {
		return "", fmt.Errorf("%w: invalid database name %q", plugin.ErrInvalidArgument, database)
	}
	return database + "." + metric, nil
}

// ListMetrics 列出当前库中的普通表
func (c *TimeSeriesClient) ListMetrics(ctx context.Context, src source.Source) ([]string, error) {
	db, ts, err := c.db(src)
	if err != nil {
		return nil, err
	}
	stmt := "SHOW TABLES"
	if ts.Database != "" {
		if !identifier.MatchString(ts.Database) {
			return nil, fmt.Errorf("%w: invalid database name %q", plugin.ErrInvalidArgument, ts.Database)
		}
		stmt = "SHOW " + ts.Database + ".TABLES"
	}
	rows, err := db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return firstColumn(rows)
}

func firstColumn(rows *sql.Rows) ([]string, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []string
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}
		switch v := values[0].(type) {
		case string:
			out = append(out, v)
		case []byte:
			out = append(out, string(v))
		default:
			out = append(out, fmt.Sprint(v))
		}
	}
	return out, rows.Err()
}

// InsertStatement 按指标分组生成单条多表写入语句，时间戳为毫秒
func InsertStatement(database string, points []client.DataPoint) (string, error) {
	var (
		b     strings.Builder
		order []string
	)
	groups := make(map[string][]client.DataPoint)
	for _, p := range points {
		if len(p.Tags) > 0 {
			return "", plugin.Unsupported("tdengine points with tags")
		}
		if _, ok := groups[p.Metric]; !ok {
			order = append(order, p.Metric)
		}
		groups[p.Metric] = append(groups[p.Metric], p)
	}

	b.WriteString("INSERT INTO")
	for _, metric := range order {
		table, err := qualify(database, metric)
		if err != nil {
			return "", err
		}
		b.WriteString(" ")
		b.WriteString(table)
		b.WriteString(" VALUES")
		for _, p := range groups[metric] {
			fmt.Fprintf(&b, " (%d, %v)", p.Timestamp.UnixMilli(), p.Value)
		}
	}
	return b.String(), nil
}

func (c *TimeSeriesClient) Put(ctx context.Context, src source.Source, points ...client.DataPoint) error {
	if len(points) == 0 {
		return nil
	}
	db, ts, err := c.db(src)
	if err != nil {
		return err
	}
	stmt, err := InsertStatement(ts.Database, points)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, stmt)
	return err
}

// QueryStatement 区间左闭右开
func QueryStatement(database string, q client.TsdbQuery) (string, error) {
	table, err := qualify(database, q.Metric)
	if err != nil {
		return "", err
	}
	if !q.End.IsZero() && !q.Start.Before(q.End) {
		return "", fmt.Errorf("%w: query start must be before end", plugin.ErrInvalidArgument)
	}
	stmt := fmt.Sprintf("SELECT ts, value FROM %s WHERE ts >= %d", table, q.Start.UnixMilli())
	if !q.End.IsZero() {
		stmt += fmt.Sprintf(" AND ts < %d", q.End.UnixMilli())
	}
	stmt += " ORDER BY ts"
	if q.Limit > 0 {
		stmt += fmt.Sprintf(" LIMIT %d", q.Limit)
	}
	return stmt, nil
}

func (c *TimeSeriesClient) Query(ctx context.Context, src source.Source, q client.TsdbQuery) ([]client.DataPoint, error) {
	db, ts, err := c.db(src)
	if err != nil {
		return nil, err
	}
	stmt, err := QueryStatement(ts.Database, q)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []client.DataPoint
	for rows.Next() {
		var (
			at    time.Time
			value sql.NullFloat64
		)
		if err := rows.Scan(&at, &value); err != nil {
			return nil, fmt.Errorf("failed to scan point: %w", err)
		}
		points = append(points, client.DataPoint{Metric: q.Metric, Timestamp: at, Value: value.Float64})
	}
	return points, rows.Err()
}
