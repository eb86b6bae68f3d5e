package objstore

import (
	"bytes"
	"context"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/longkeyy/go-dsloader/common/plugin"
	"github.com/longkeyy/go-dsloader/common/source"
)

// memoryBucket 内存存储桶，语义与 ListObjectsV2 一致
type memoryBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (b *memoryBucket) Ping(ctx context.Context) error { return nil }

func (b *memoryBucket) Head(ctx context.Context, key string) (Object, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[key]
	if !ok {
		return Object{}, os.ErrNotExist
	}
	return Object{Key: key, Size: int64(len(data))}, nil
}

func (b *memoryBucket) List(ctx context.Context, prefix, delimiter string) (Listing, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out Listing
	seen := map[string]bool{}
	keys := make([]string, 0, len(b.objects))
	for k := range b.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		rest := strings.TrimPrefix(k, prefix)
		if delimiter != "" {
			if i := strings.Index(rest, delimiter); i >= 0 {
				pre := prefix + rest[:i+len(delimiter)]
				if !seen[pre] {
					seen[pre] = true
					out.Prefixes = append(out.Prefixes, pre)
				}
				continue
			}
		}
		out.Objects = append(out.Objects, Object{Key: k, Size: int64(len(b.objects[k]))})
	}
	return out, nil
}

func (b *memoryBucket) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[key]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *memoryBucket) Put(ctx context.Context, key string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	return nil
}

func (b *memoryBucket) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	return nil
}

func newTestClient(t *testing.T) (*FileClient, *memoryBucket, *int) {
	t.Helper()
	bucket := &memoryBucket{objects: map[string][]byte{}}
	opened := 0
	c := NewFileClient(source.S3, func(src *source.ObjectStoreSource) (Bucket, error) {
		opened++
		return bucket, nil
	})
	return c, bucket, &opened
}

func testSource() *source.ObjectStoreSource {
	return &source.ObjectStoreSource{Type: source.S3, Endpoint: "http://127.0.0.1:9000", Bucket: "data"}
}

func TestKey(t *testing.T) {
	assert.Equal(t, "", Key("/"))
	assert.Equal(t, "", Key(""))
	assert.Equal(t, "a/b.txt", Key("/a//b.txt"))
	assert.Equal(t, "a/b", Key("a/b/"))
}

func TestFileClientWriteListOpen(t *testing.T) {
	ctx := context.Background()
	c, _, opened := newTestClient(t)
	src := testSource()

	require.NoError(t, c.Write(ctx, src, "/logs/2024/a.log", strings.NewReader("hello")))
	require.NoError(t, c.Write(ctx, src, "/logs/b.log", strings.NewReader("world!")))
	require.NoError(t, c.Mkdir(ctx, src, "/logs/empty"))

	ok, err := c.IsExists(ctx, src, "/logs")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = c.IsExists(ctx, src, "/logs/b.log")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = c.IsExists(ctx, src, "/missing")
	require.NoError(t, err)
	assert.False(t, ok)

	entries, err := c.List(ctx, src, "/logs")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "/logs/2024", entries[0].Path)
	assert.True(t, entries[0].IsDir)
	assert.Equal(t, "empty", entries[1].Name)
	assert.True(t, entries[1].IsDir)
	assert.Equal(t, "b.log", entries[2].Name)
	assert.Equal(t, int64(6), entries[2].Size)

	// 空目录下只有占位对象
	entries, err = c.List(ctx, src, "/logs/empty")
	require.NoError(t, err)
	assert.Empty(t, entries)

	r, err := c.Open(ctx, src, "/logs/2024/a.log")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "hello", string(data))

	assert.Equal(t, 1, *opened)
}

func TestFileClientDelete(t *testing.T) {
	ctx := context.Background()
	c, bucket, _ := newTestClient(t)
	src := testSource()

	require.NoError(t, c.Write(ctx, src, "/d/x", strings.NewReader("1")))
	require.NoError(t, c.Write(ctx, src, "/d/sub/y", strings.NewReader("2")))

	err := c.Delete(ctx, src, "/d", false)
	require.ErrorIs(t, err, plugin.ErrInvalidArgument)

	require.NoError(t, c.Delete(ctx, src, "/d/x", false))
	_, ok := bucket.objects["d/x"]
	assert.False(t, ok)

	require.NoError(t, c.Delete(ctx, src, "/d", true))
	assert.Empty(t, bucket.objects)

	require.NoError(t, c.Mkdir(ctx, src, "/e"))
	require.NoError(t, c.Delete(ctx, src, "/e", false))
	assert.Empty(t, bucket.objects)
}

func TestFileClientRejectsInvalidSource(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestClient(t)

	_, err := c.TestCon(ctx, &source.ObjectStoreSource{Type: source.OSS, Bucket: "b"})
	require.ErrorIs(t, err, plugin.ErrInvalidSource)

	_, err = c.TestCon(ctx, &source.ObjectStoreSource{Type: source.S3})
	require.ErrorIs(t, err, plugin.ErrInvalidSource)

	_, err = c.TestCon(ctx, &source.RedisSource{Addr: "x"})
	require.ErrorIs(t, err, plugin.ErrInvalidSource)

	err = c.Write(ctx, testSource(), "/", strings.NewReader(""))
	require.ErrorIs(t, err, plugin.ErrInvalidArgument)
}
