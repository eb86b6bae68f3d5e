package conncache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type conn struct {
	addr   string
	closed bool
}

func TestGetOpensOncePerKey(t *testing.T) {
	var opened atomic.Int32
	c := New[string, *conn](func(c *conn) error {
		c.closed = true
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Get("a:1", func() (*conn, error) {
				opened.Add(1)
				return &conn{addr: "a:1"}, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), opened.Load())
	assert.Equal(t, 1, c.Len())

	first, err := c.Get("a:1", nil)
	require.NoError(t, err)

	require.NoError(t, c.Close())
	assert.True(t, first.closed)
	assert.Zero(t, c.Len())
}

func TestOpenFailureNotCached(t *testing.T) {
	c := New[string, *conn](nil)

	_, err := c.Get("b", func() (*conn, error) { return nil, errors.New("refused") })
	require.Error(t, err)
	assert.Zero(t, c.Len())

	v, err := c.Get("b", func() (*conn, error) { return &conn{addr: "b"}, nil })
	require.NoError(t, err)
	assert.Equal(t, "b", v.addr)
}

func TestEvict(t *testing.T) {
	c := New[string, *conn](func(c *conn) error {
		c.closed = true
		return errors.New("already closed")
	})
	v, err := c.Get("k", func() (*conn, error) { return &conn{}, nil })
	require.NoError(t, err)

	require.Error(t, c.Evict("k"))
	assert.True(t, v.closed)
	require.NoError(t, c.Evict("missing"))
	assert.Zero(t, c.Len())
}
