package restful

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/longkeyy/go-dsloader/common/client"
	"github.com/longkeyy/go-dsloader/common/conncache"
	"github.com/longkeyy/go-dsloader/common/logger"
	"github.com/longkeyy/go-dsloader/common/plugin"
	"github.com/longkeyy/go-dsloader/common/source"
)

const (
	DefaultTimeout  = 30 * time.Second
	DefaultRetryMax = 3
)

type clientKey struct {
	timeout  time.Duration
	retryMax int
}

// HttpClient REST 客户端，按超时与重试参数复用 retryablehttp.Client
type HttpClient struct {
	clients *conncache.Cache[clientKey, *retryablehttp.Client]
	log     logger.PluginLogger

	retryWaitMin time.Duration
	retryWaitMax time.Duration
}

var _ client.HttpClient = (*HttpClient)(nil)

func NewHttpClient() any {
	return &HttpClient{
		clients:      conncache.New[clientKey, *retryablehttp.Client](nil),
		log:          logger.Nop().Plugin(),
		retryWaitMin: time.Second,
		retryWaitMax: 30 * time.Second,
	}
}

// Init 读取插件设置：retryWaitMin、retryWaitMax
func (c *HttpClient) Init(env *plugin.Env) error {
	if env.Logger != nil {
		c.log = env.Logger
	}
	if env.Settings != nil {
		c.retryWaitMin = env.Settings.GetDuration("retryWaitMin", c.retryWaitMin)
		c.retryWaitMax = env.Settings.GetDuration("retryWaitMax", c.retryWaitMax)
	}
	return nil
}

// leveledLogger 将 retryablehttp 日志转到插件日志器
type leveledLogger struct {
	log logger.PluginLogger
}

func fields(keysAndValues []interface{}) []zap.Field {
	out := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		out = append(out, zap.Any(fmt.Sprint(keysAndValues[i]), keysAndValues[i+1]))
	}
	return out
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, fields(keysAndValues)...)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, fields(keysAndValues)...)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, fields(keysAndValues)...)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warn(msg, fields(keysAndValues)...)
}

func (c *HttpClient) httpClient(rs *source.RestfulSource) (*retryablehttp.Client, error) {
	key := clientKey{timeout: rs.Timeout, retryMax: rs.RetryMax}
	if key.timeout <= 0 {
		key.timeout = DefaultTimeout
	}
	if key.retryMax == 0 {
		key.retryMax = DefaultRetryMax
	} else if key.retryMax < 0 {
		key.retryMax = 0
	}
	return c.clients.Get(key, func() (*retryablehttp.Client, error) {
		rc := retryablehttp.NewClient()
		rc.RetryMax = key.retryMax
		rc.RetryWaitMin = c.retryWaitMin
		rc.RetryWaitMax = c.retryWaitMax
		rc.HTTPClient.Timeout = key.timeout
		rc.Logger = leveledLogger{log: c.log}
		// 重试耗尽后返回最后一次响应，而不是错误
		rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
		return rc, nil
	})
}

// BuildURL 拼接基础地址、路径与查询参数，路径衔接处只保留一个 /
func BuildURL(base, path string, params map[string]string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: invalid restful url %q", plugin.ErrInvalidSource, base)
	}
	if path != "" {
		rel, err := url.Parse(path)
		if err != nil {
			return "", fmt.Errorf("%w: invalid path %q: %w", plugin.ErrInvalidArgument, path, err)
		}
		u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(rel.Path, "/")
		if rel.RawQuery != "" {
			u.RawQuery = joinQuery(u.RawQuery, rel.RawQuery)
		}
	}
	if len(params) > 0 {
		q := u.Query()
		for k, v := range params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func joinQuery(a, b string) string {
	if a == "" {
		return b
	}
	return a + "&" + b
}

func (c *HttpClient) do(ctx context.Context, src source.Source, method string, req client.HttpRequest) (*client.HttpResponse, error) {
	rs, err := source.As[*source.RestfulSource](src)
	if err != nil {
		return nil, err
	}
	target, err := BuildURL(rs.URL, req.Path, req.Params)
	if err != nil {
		return nil, err
	}
	rc, err := c.httpClient(rs)
	if err != nil {
		return nil, err
	}

	var body any
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	r, err := retryablehttp.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", method, err)
	}
	for k, v := range rs.Headers {
		r.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		r.Header.Set(k, v)
	}
	if len(req.Body) > 0 && r.Header.Get("Content-Type") == "" {
		r.Header.Set("Content-Type", "application/json")
	}

	resp, err := rc.Do(r)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response of %s %s: %w", method, target, err)
	}
	return &client.HttpResponse{
		StatusCode: resp.StatusCode,
		Content:    content,
		Header:     resp.Header,
	}, nil
}

// TestCon 基础地址可达且未返回 5xx 即视为连通
func (c *HttpClient) TestCon(ctx context.Context, src source.Source) (bool, error) {
	resp, err := c.do(ctx, src, http.MethodGet, client.HttpRequest{})
	if err != nil {
		return false, err
	}
	return resp.StatusCode < http.StatusInternalServerError, nil
}

func (c *HttpClient) Get(ctx context.Context, src source.Source, req client.HttpRequest) (*client.HttpResponse, error) {
	return c.do(ctx, src, http.MethodGet, req)
}

func (c *HttpClient) Post(ctx context.Context, src source.Source, req client.HttpRequest) (*client.HttpResponse, error) {
	return c.do(ctx, src, http.MethodPost, req)
}

func (c *HttpClient) Put(ctx context.Context, src source.Source, req client.HttpRequest) (*client.HttpResponse, error) {
	return c.do(ctx, src, http.MethodPut, req)
}

func (c *HttpClient) Delete(ctx context.Context, src source.Source, req client.HttpRequest) (*client.HttpResponse, error) {
	return c.do(ctx, src, http.MethodDelete, req)
}
