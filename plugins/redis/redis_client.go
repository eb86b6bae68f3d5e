package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/longkeyy/go-dsloader/common/client"
	"github.com/longkeyy/go-dsloader/common/conncache"
	"github.com/longkeyy/go-dsloader/common/logger"
	"github.com/longkeyy/go-dsloader/common/plugin"
	"github.com/longkeyy/go-dsloader/common/source"
)

const (
	// DefaultKeysLimit Keys 未指定 limit 时返回的键数上限
	DefaultKeysLimit = 1000
	scanBatch        = 100
)

// KeyValueClient Redis 客户端，按连接参数复用 *redis.Client
type KeyValueClient struct {
	clients *conncache.Cache[source.RedisSource, *redis.Client]
	log     logger.PluginLogger
}

var _ client.KeyValueClient = (*KeyValueClient)(nil)

func NewKeyValueClient() any {
	return &KeyValueClient{
		clients: conncache.New[source.RedisSource, *redis.Client](func(c *redis.Client) error { return c.Close() }),
		log:     logger.Nop().Plugin(),
	}
}

func (c *KeyValueClient) Init(env *plugin.Env) error {
	if env.Logger != nil {
		c.log = env.Logger
	}
	return nil
}

// Options 由数据源描述构建连接参数
func Options(rs *source.RedisSource) (*redis.Options, error) {
	if rs.Addr == "" {
		return nil, fmt.Errorf("%w: redis address is empty", plugin.ErrInvalidSource)
	}
	if rs.DB < 0 {
		return nil, fmt.Errorf("%w: redis db must not be negative", plugin.ErrInvalidSource)
	}
	return &redis.Options{
		Addr:     rs.Addr,
		Password: rs.Password,
		DB:       rs.DB,
	}, nil
}

func (c *KeyValueClient) conn(src source.Source) (*redis.Client, error) {
	rs, err := source.As[*source.RedisSource](src)
	if err != nil {
		return nil, err
	}
	opts, err := Options(rs)
	if err != nil {
		return nil, err
	}
	return c.clients.Get(*rs, func() (*redis.Client, error) {
		return redis.NewClient(opts), nil
	})
}

func (c *KeyValueClient) TestCon(ctx context.Context, src source.Source) (bool, error) {
	rc, err := c.conn(src)
	if err != nil {
		return false, err
	}
	if err := rc.Ping(ctx).Err(); err != nil {
		return false, fmt.Errorf("连接 Redis 失败: %w", err)
	}
	return true, nil
}

// Get 键不存在时返回 ok=false 且无错误
func (c *KeyValueClient) Get(ctx context.Context, src source.Source, key string) (string, bool, error) {
	rc, err := c.conn(src)
	if err != nil {
		return "", false, err
	}
	v, err := rc.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Set ttl 为 0 时不过期
func (c *KeyValueClient) Set(ctx context.Context, src source.Source, key, value string, ttl time.Duration) error {
	if key == "" {
		return fmt.Errorf("%w: key is empty", plugin.ErrInvalidArgument)
	}
	if ttl < 0 {
		return fmt.Errorf("%w: ttl must not be negative", plugin.ErrInvalidArgument)
	}
	rc, err := c.conn(src)
	if err != nil {
		return err
	}
	return rc.Set(ctx, key, value, ttl).Err()
}

func (c *KeyValueClient) Delete(ctx context.Context, src source.Source, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	rc, err := c.conn(src)
	if err != nil {
		return 0, err
	}
	return rc.Del(ctx, keys...).Result()
}

// Keys 使用 SCAN 遍历，不阻塞服务端
func (c *KeyValueClient) Keys(ctx context.Context, src source.Source, pattern string, limit int) ([]string, error) {
	if pattern == "" {
		pattern = "*"
	}
	if limit <= 0 {
		limit = DefaultKeysLimit
	}
	rc, err := c.conn(src)
	if err != nil {
		return nil, err
	}

	var out []string
	iter := rc.Scan(ctx, 0, pattern, scanBatch).Iterator()
	for len(out) < limit && iter.Next(ctx) {
		out = append(out, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
