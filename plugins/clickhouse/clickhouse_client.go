package clickhouse

import (
	"database/sql"
	"fmt"
	"net/url"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/longkeyy/go-dsloader/common/plugin"
	"github.com/longkeyy/go-dsloader/common/rdbms"
	"github.com/longkeyy/go-dsloader/common/source"
)

// DefaultPort ClickHouse 原生协议端口
const DefaultPort = 9000

// DSN 转换 jdbc:clickhouse://host:port/db 为 clickhouse-go 的 DSN
func DSN(src *source.RdbmsSource) (string, error) {
	u, err := rdbms.ParseJdbcURL(src.URL)
	if err != nil {
		return "", err
	}
	if u.Scheme != "clickhouse" {
		return "", fmt.Errorf("%w: invalid ClickHouse URL: %s", plugin.ErrInvalidSource, src.URL)
	}

	dsn := &url.URL{
		Scheme: "clickhouse",
		Host:   u.HostPort(DefaultPort),
		Path:   "/" + u.Database,
	}
	if src.Username != "" {
		dsn.User = url.UserPassword(src.Username, src.Password)
	}
	params := url.Values{}
	for k, v := range u.Params {
		params.Set(k, v)
	}
	dsn.RawQuery = params.Encode()
	return dsn.String(), nil
}

func open(dsn string) (*sql.DB, error) {
	options, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", plugin.ErrInvalidSource, err)
	}
	return clickhouse.OpenDB(options), nil
}

var factory = rdbms.FuncFactory{
	DSNFunc:  DSN,
	OpenFunc: open,
}

func NewSQLClient() any {
	return rdbms.NewClient(factory, rdbms.ClickHouse)
}
