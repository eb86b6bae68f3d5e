// Package conncache 插件内部按数据源复用原生客户端
package conncache

import (
	"errors"
	"sync"
)

// Cache 按 key 缓存原生客户端，同一 key 只打开一次；打开失败不缓存
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	clients map[K]V
	closeFn func(V) error
}

// New 创建缓存，closeFn 为 nil 时 Close 只清空缓存
func New[K comparable, V any](closeFn func(V) error) *Cache[K, V] {
	return &Cache[K, V]{
		clients: make(map[K]V),
		closeFn: closeFn,
	}
}

// Get 返回 key 对应的客户端，不存在时调用 open 创建
func (c *Cache[K, V]) Get(key K, open func() (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.clients[key]; ok {
		return v, nil
	}
	v, err := open()
	if err != nil {
		var zero V
		return zero, err
	}
	c.clients[key] = v
	return v, nil
}

// Evict 移除并关闭 key 对应的客户端，用于连接失效后重建
func (c *Cache[K, V]) Evict(key K) error {
	c.mu.Lock()
	v, ok := c.clients[key]
	delete(c.clients, key)
	c.mu.Unlock()

	if !ok || c.closeFn == nil {
		return nil
	}
	return c.closeFn(v)
}

// Len 当前缓存的客户端数量
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.clients)
}

// Close 关闭全部客户端
func (c *Cache[K, V]) Close() error {
	c.mu.Lock()
	clients := c.clients
	c.clients = make(map[K]V)
	c.mu.Unlock()

	if c.closeFn == nil {
		return nil
	}
	var errs []error
	for _, v := range clients {
		if err := c.closeFn(v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
