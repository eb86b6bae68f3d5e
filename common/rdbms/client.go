package rdbms

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/longkeyy/go-dsloader/common/client"
	"github.com/longkeyy/go-dsloader/common/logger"
	"github.com/longkeyy/go-dsloader/common/plugin"
	"github.com/longkeyy/go-dsloader/common/source"
)

// Client 关系型客户端基类，实现 client.SQLClient。
// 每个 DSN 只打开一个 *sql.DB，由插件自身持有。
type Client struct {
	factory ConnFactory
	dialect Dialect

	mu    sync.Mutex
	conns map[string]*sql.DB

	log          logger.PluginLogger
	queryTimeout time.Duration
}

var _ client.SQLClient = (*Client)(nil)

func NewClient(factory ConnFactory, dialect Dialect) *Client {
	return &Client{
		factory: factory,
		dialect: dialect,
		conns:   make(map[string]*sql.DB),
		log:     logger.Nop().Plugin(),
	}
}

// Init 读取插件设置：queryTimeout
func (c *Client) Init(env *plugin.Env) error {
	if env.Logger != nil {
		c.log = env.Logger
	}
	if env.Settings != nil {
		c.queryTimeout = env.Settings.GetDuration("queryTimeout", 0)
	}
	return nil
}

// Dialect 当前方言
func (c *Client) Dialect() Dialect {
	return c.dialect
}

// DB 返回数据源对应的连接，首次使用时打开
func (c *Client) DB(src source.Source) (*sql.DB, error) {
	rdbms, err := source.As[*source.RdbmsSource](src)
	if err != nil {
		return nil, err
	}
	dsn, err := c.factory.DSN(rdbms)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if db, ok := c.conns[dsn]; ok {
		return db, nil
	}
	db, err := c.factory.Open(dsn)
	if err != nil {
		return nil, err
	}
	c.conns[dsn] = db
	c.log.Debug("Opened connection", zap.String("dialect", c.dialect.Name()))
	return db, nil
}

// Close 关闭所有已打开的连接
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for dsn, db := range c.conns {
		errs = append(errs, db.Close())
		delete(c.conns, dsn)
	}
	return errors.Join(errs...)
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.queryTimeout > 0 {
		if _, ok := ctx.Deadline(); !ok {
			return context.WithTimeout(ctx, c.queryTimeout)
		}
	}
	return context.WithCancel(ctx)
}

func (c *Client) TestCon(ctx context.Context, src source.Source) (bool, error) {
	db, err := c.DB(src)
	if err != nil {
		return false, err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return false, fmt.Errorf("failed to ping %s: %w", c.dialect.Name(), err)
	}
	var one any
	if err := db.QueryRowContext(ctx, c.dialect.TestSQL()).Scan(&one); err != nil {
		return false, fmt.Errorf("test query failed: %w", err)
	}
	return true, nil
}

func (c *Client) ExecuteQuery(ctx context.Context, src source.Source, query string, args ...any) ([]map[string]any, error) {
	db, err := c.DB(src)
	if err != nil {
		return nil, err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()
	return ScanMaps(rows)
}

func (c *Client) ExecuteSQLWithoutResultSet(ctx context.Context, src source.Source, stmt string, args ...any) error {
	db, err := c.DB(src)
	if err != nil {
		return err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if _, err := db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to execute statement: %w", err)
	}
	return nil
}

func (c *Client) queryStrings(ctx context.Context, src source.Source, query string, args ...any) ([]string, error) {
	db, err := c.DB(src)
	if err != nil {
		return nil, err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()
	return ScanStrings(rows)
}

func (c *Client) GetAllDatabases(ctx context.Context, src source.Source) ([]string, error) {
	return c.queryStrings(ctx, src, c.dialect.DatabasesSQL())
}

// GetTableList schema 为空时使用数据源配置的 schema
func (c *Client) GetTableList(ctx context.Context, src source.Source, schema string) ([]string, error) {
	query, args := c.dialect.TablesSQL(schemaOf(src, schema))
	return c.queryStrings(ctx, src, query, args...)
}

func (c *Client) GetColumnMetaData(ctx context.Context, src source.Source, schema, table string) ([]client.ColumnMeta, error) {
	if table == "" {
		return nil, fmt.Errorf("%w: table name is empty", plugin.ErrInvalidArgument)
	}
	db, err := c.DB(src)
	if err != nil {
		return nil, err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	query, args := c.dialect.ColumnsSQL(schemaOf(src, schema), table)
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns of %s: %w", table, err)
	}
	defer rows.Close()
	return scanColumns(rows)
}

func schemaOf(src source.Source, schema string) string {
	if schema != "" {
		return schema
	}
	if r, ok := src.(*source.RdbmsSource); ok {
		return r.Schema
	}
	return ""
}
