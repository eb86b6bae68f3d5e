package rdbms

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/longkeyy/go-dsloader/common/plugin"
)

// JdbcURL 解析后的 JDBC 形式连接串
type JdbcURL struct {
	Scheme   string
	Host     string
	Port     int
	Database string
	Params   map[string]string
}

// HostPort host:port，未指定端口时使用 defaultPort
func (u *JdbcURL) HostPort(defaultPort int) string {
	port := u.Port
	if port == 0 {
		port = defaultPort
	}
	return u.Host + ":" + strconv.Itoa(port)
}

// Query 将参数编码为按键排序的查询串
func (u *JdbcURL) Query() string {
	if len(u.Params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(u.Params))
	for k := range u.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(u.Params[k])
	}
	return b.String()
}

// ParseJdbcURL 解析 jdbc:<scheme>://host[:port][/database][?k=v&...] 以及
// SQL Server 的 jdbc:sqlserver://host:port;DatabaseName=db;k=v 形式，jdbc: 前缀可省略
func ParseJdbcURL(raw string) (*JdbcURL, error) {
	s := strings.TrimPrefix(strings.TrimSpace(raw), "jdbc:")

	idx := strings.Index(s, "://")
	if idx <= 0 {
		return nil, fmt.Errorf("%w: invalid JDBC URL: %s", plugin.ErrInvalidSource, raw)
	}
	u := &JdbcURL{Scheme: s[:idx], Params: make(map[string]string)}
	rest := s[idx+3:]

	// sqlserver 使用分号分隔参数
	if semi := strings.Index(rest, ";"); semi != -1 {
		for _, kv := range strings.Split(rest[semi+1:], ";") {
			if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
				if strings.EqualFold(k, "DatabaseName") || strings.EqualFold(k, "database") {
					u.Database = v
					continue
				}
				u.Params[k] = v
			}
		}
		rest = rest[:semi]
	}

	if q := strings.Index(rest, "?"); q != -1 {
		for _, kv := range strings.Split(rest[q+1:], "&") {
			if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
				u.Params[k] = v
			}
		}
		rest = rest[:q]
	}

	if slash := strings.Index(rest, "/"); slash != -1 {
		if db := rest[slash+1:]; db != "" {
			u.Database = db
		}
		rest = rest[:slash]
	}

	if rest == "" {
		return nil, fmt.Errorf("%w: missing host in %s", plugin.ErrInvalidSource, raw)
	}
	host, port, hasPort := strings.Cut(rest, ":")
	u.Host = host
	if hasPort {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid port in %s", plugin.ErrInvalidSource, raw)
		}
		u.Port = p
	}
	return u, nil
}

// MySQLDSN 转换 jdbc:mysql:// 或 jdbc:oceanbase:// 为 go-sql-driver DSN；已是 DSN 时原样返回
func MySQLDSN(jdbcURL, username, password string) (string, error) {
	if strings.Contains(jdbcURL, "@tcp(") {
		return jdbcURL, nil
	}
	u, err := ParseJdbcURL(jdbcURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "mysql", "oceanbase", "mariadb", "doris", "starrocks":
	default:
		return "", fmt.Errorf("%w: unsupported JDBC URL protocol: %s", plugin.ErrInvalidSource, jdbcURL)
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		username, password, u.HostPort(3306), u.Database)
	if q := u.Query(); q != "" {
		dsn += "&" + q
	}
	return dsn, nil
}

// PostgresDSN 转换 jdbc:postgresql:// 为 pgx 的 key=value DSN
func PostgresDSN(jdbcURL, username, password string) (string, error) {
	if !strings.Contains(jdbcURL, "://") && strings.Contains(jdbcURL, "host=") {
		return jdbcURL, nil
	}
	u, err := ParseJdbcURL(jdbcURL)
	if err != nil {
		return "", err
	}
	if u.Scheme != "postgresql" && u.Scheme != "postgres" {
		return "", fmt.Errorf("%w: invalid PostgreSQL JDBC URL: %s", plugin.ErrInvalidSource, jdbcURL)
	}

	port := u.Port
	if port == 0 {
		port = 5432
	}
	params := map[string]string{"sslmode": "disable"}
	for k, v := range u.Params {
		params[k] = v
	}

	parts := []string{
		"host=" + u.Host,
		"port=" + strconv.Itoa(port),
		"user=" + pgQuote(username),
		"password=" + pgQuote(password),
		"dbname=" + u.Database,
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	return strings.Join(parts, " "), nil
}

func pgQuote(v string) string {
	if v == "" {
		return "''"
	}
	if !strings.ContainsAny(v, " '\\") {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// SQLServerDSN 转换 jdbc:sqlserver://host:port;DatabaseName=db 为 sqlserver:// URL
func SQLServerDSN(jdbcURL, username, password string) (string, error) {
	if strings.HasPrefix(jdbcURL, "sqlserver://") && strings.Contains(jdbcURL, "@") {
		return jdbcURL, nil
	}
	u, err := ParseJdbcURL(jdbcURL)
	if err != nil {
		return "", err
	}
	if u.Scheme != "sqlserver" {
		return "", fmt.Errorf("%w: invalid SQL Server JDBC URL: %s", plugin.ErrInvalidSource, jdbcURL)
	}

	query := url.Values{}
	if u.Database != "" {
		query.Set("database", u.Database)
	}
	for k, v := range u.Params {
		query.Set(k, v)
	}
	dsn := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(username, password),
		Host:     u.HostPort(1433),
		RawQuery: query.Encode(),
	}
	return dsn.String(), nil
}

// OracleTarget 解析 jdbc:oracle:thin:@host:port/service 或 @host:port:sid
type OracleTarget struct {
	Host    string
	Port    int
	Service string
	SID     string
}

func ParseOracleURL(jdbcURL string) (*OracleTarget, error) {
	s := strings.TrimSpace(jdbcURL)
	switch {
	case strings.HasPrefix(s, "jdbc:oracle:thin:@//"):
		s = strings.TrimPrefix(s, "jdbc:oracle:thin:@//")
	case strings.HasPrefix(s, "jdbc:oracle:thin:@"):
		s = strings.TrimPrefix(s, "jdbc:oracle:thin:@")
	case strings.HasPrefix(s, "oracle://"):
		s = strings.TrimPrefix(s, "oracle://")
		if at := strings.LastIndex(s, "@"); at != -1 {
			s = s[at+1:]
		}
	default:
		return nil, fmt.Errorf("%w: invalid Oracle JDBC URL: %s", plugin.ErrInvalidSource, jdbcURL)
	}

	t := &OracleTarget{Port: 1521}
	hostPort := s
	if slash := strings.Index(s, "/"); slash != -1 {
		hostPort, t.Service = s[:slash], s[slash+1:]
	}

	parts := strings.Split(hostPort, ":")
	t.Host = parts[0]
	if len(parts) > 1 && parts[1] != "" {
		p, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("%w: invalid port in %s", plugin.ErrInvalidSource, jdbcURL)
		}
		t.Port = p
	}
	if len(parts) > 2 && t.Service == "" {
		t.SID = parts[2]
	}
	if t.Host == "" || (t.Service == "" && t.SID == "") {
		return nil, fmt.Errorf("%w: Oracle URL needs host and service or SID: %s", plugin.ErrInvalidSource, jdbcURL)
	}
	return t, nil
}

// SQLitePath 转换 jdbc:sqlite:path 为文件路径
func SQLitePath(jdbcURL string) (string, error) {
	p := strings.TrimPrefix(strings.TrimSpace(jdbcURL), "jdbc:sqlite:")
	if p == "" {
		return "", fmt.Errorf("%w: invalid SQLite JDBC URL: %s", plugin.ErrInvalidSource, jdbcURL)
	}
	return p, nil
}

// DatabendDSN 转换 jdbc:databend://host:port/db 为 databend-go DSN
func DatabendDSN(jdbcURL, username, password string) (string, error) {
	u, err := ParseJdbcURL(jdbcURL)
	if err != nil {
		return "", err
	}
	if u.Scheme != "databend" {
		return "", fmt.Errorf("%w: invalid Databend URL: %s", plugin.ErrInvalidSource, jdbcURL)
	}
	dsn := &url.URL{
		Scheme: "databend",
		User:   url.UserPassword(username, password),
		Host:   u.HostPort(8000),
		Path:   "/" + u.Database,
	}
	params := url.Values{}
	for k, v := range u.Params {
		params.Set(k, v)
	}
	if _, ok := u.Params["sslmode"]; !ok {
		params.Set("sslmode", "disable")
	}
	dsn.RawQuery = params.Encode()
	return dsn.String(), nil
}
