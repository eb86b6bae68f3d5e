// Package objstore 在对象存储之上提供目录语义的文件客户端，OSS 与 S3 共用
package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/longkeyy/go-dsloader/common/client"
	"github.com/longkeyy/go-dsloader/common/conncache"
	"github.com/longkeyy/go-dsloader/common/logger"
	"github.com/longkeyy/go-dsloader/common/plugin"
	"github.com/longkeyy/go-dsloader/common/source"
)

// Delimiter 对象键中的目录分隔符
const Delimiter = "/"

// Object 对象元数据
type Object struct {
	Key     string
	Size    int64
	ModTime time.Time
}

// Listing 一次列举的结果；Prefixes 为带结尾分隔符的公共前缀
type Listing struct {
	Objects  []Object
	Prefixes []string
}

// Bucket 单个存储桶上的原子操作，由各 SDK 适配
type Bucket interface {
	Ping(ctx context.Context) error
	// Head 对象不存在时返回 os.ErrNotExist
	Head(ctx context.Context, key string) (Object, error)
	// List 列举全部分页；delimiter 为空时递归列举
	List(ctx context.Context, prefix, delimiter string) (Listing, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Put(ctx context.Context, key string, r io.Reader) error
	Delete(ctx context.Context, key string) error
}

// OpenFunc 依据描述创建存储桶适配器
type OpenFunc func(src *source.ObjectStoreSource) (Bucket, error)

// FileClient 对象存储文件客户端
type FileClient struct {
	typ     source.Type
	open    OpenFunc
	buckets *conncache.Cache[source.ObjectStoreSource, Bucket]
	log     logger.PluginLogger
}

var _ client.FileClient = (*FileClient)(nil)

// NewFileClient typ 为该插件接受的数据源类型
func NewFileClient(typ source.Type, open OpenFunc) *FileClient {
	return &FileClient{
		typ:     typ,
		open:    open,
		buckets: conncache.New[source.ObjectStoreSource, Bucket](nil),
		log:     logger.Nop().Plugin(),
	}
}

func (c *FileClient) Init(env *plugin.Env) error {
	if env.Logger != nil {
		c.log = env.Logger
	}
	return nil
}

func (c *FileClient) bucket(src source.Source) (Bucket, error) {
	cfg, err := source.As[*source.ObjectStoreSource](src)
	if err != nil {
		return nil, err
	}
	if cfg.Type != c.typ {
		return nil, fmt.Errorf("%w: expected source type %s, got %s", plugin.ErrInvalidSource, c.typ, cfg.Type)
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: bucket is empty", plugin.ErrInvalidSource)
	}
	return c.buckets.Get(*cfg, func() (Bucket, error) {
		return c.open(cfg)
	})
}

// Key 将文件路径转换为对象键，根目录为空串
func Key(p string) string {
	return strings.TrimPrefix(path.Clean(Delimiter+p), Delimiter)
}

func dirPrefix(key string) string {
	if key == "" {
		return ""
	}
	return key + Delimiter
}

func (c *FileClient) TestCon(ctx context.Context, src source.Source) (bool, error) {
	b, err := c.bucket(src)
	if err != nil {
		return false, err
	}
	if err := b.Ping(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (c *FileClient) IsExists(ctx context.Context, src source.Source, p string) (bool, error) {
	b, err := c.bucket(src)
	if err != nil {
		return false, err
	}
	key := Key(p)
	if key == "" {
		return true, nil
	}
	if _, err := b.Head(ctx, key); err == nil {
		return true, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}

	listing, err := b.List(ctx, dirPrefix(key), Delimiter)
	if err != nil {
		return false, err
	}
	return len(listing.Objects) > 0 || len(listing.Prefixes) > 0, nil
}

func (c *FileClient) List(ctx context.Context, src source.Source, p string) ([]client.FileStatus, error) {
	b, err := c.bucket(src)
	if err != nil {
		return nil, err
	}
	key := Key(p)
	if key != "" {
		if obj, err := b.Head(ctx, key); err == nil {
			return []client.FileStatus{fileStatus(obj)}, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	prefix := dirPrefix(key)
	listing, err := b.List(ctx, prefix, Delimiter)
	if err != nil {
		return nil, err
	}
	out := make([]client.FileStatus, 0, len(listing.Prefixes)+len(listing.Objects))
	for _, pre := range listing.Prefixes {
		name := strings.TrimSuffix(strings.TrimPrefix(pre, prefix), Delimiter)
		out = append(out, client.FileStatus{
			Path:  Delimiter + strings.TrimSuffix(pre, Delimiter),
			Name:  name,
			IsDir: true,
		})
	}
	for _, obj := range listing.Objects {
		// 目录占位对象
		if obj.Key == prefix {
			continue
		}
		out = append(out, fileStatus(obj))
	}
	return out, nil
}

func fileStatus(obj Object) client.FileStatus {
	return client.FileStatus{
		Path:    Delimiter + obj.Key,
		Name:    path.Base(obj.Key),
		Size:    obj.Size,
		ModTime: obj.ModTime,
	}
}

func (c *FileClient) Open(ctx context.Context, src source.Source, p string) (io.ReadCloser, error) {
	b, err := c.bucket(src)
	if err != nil {
		return nil, err
	}
	key := Key(p)
	if key == "" {
		return nil, fmt.Errorf("%w: cannot open bucket root", plugin.ErrInvalidArgument)
	}
	return b.Get(ctx, key)
}

func (c *FileClient) Write(ctx context.Context, src source.Source, p string, r io.Reader) error {
	b, err := c.bucket(src)
	if err != nil {
		return err
	}
	key := Key(p)
	if key == "" {
		return fmt.Errorf("%w: cannot write bucket root", plugin.ErrInvalidArgument)
	}
	return b.Put(ctx, key, r)
}

// Delete 对象直接删除；目录非递归删除时只允许空目录
func (c *FileClient) Delete(ctx context.Context, src source.Source, p string, recursive bool) error {
	b, err := c.bucket(src)
	if err != nil {
		return err
	}
	key := Key(p)
	if key != "" {
		if _, err := b.Head(ctx, key); err == nil {
			return b.Delete(ctx, key)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	prefix := dirPrefix(key)
	listing, err := b.List(ctx, prefix, "")
	if err != nil {
		return err
	}
	if !recursive {
		for _, obj := range listing.Objects {
			if obj.Key != prefix {
				return fmt.Errorf("%w: directory %s is not empty", plugin.ErrInvalidArgument, p)
			}
		}
	}
	for _, obj := range listing.Objects {
		if err := b.Delete(ctx, obj.Key); err != nil {
			return fmt.Errorf("delete %s: %w", obj.Key, err)
		}
	}
	return nil
}

// Mkdir 写入以分隔符结尾的空占位对象
func (c *FileClient) Mkdir(ctx context.Context, src source.Source, p string) error {
	b, err := c.bucket(src)
	if err != nil {
		return err
	}
	key := Key(p)
	if key == "" {
		return nil
	}
	return b.Put(ctx, dirPrefix(key), strings.NewReader(""))
}
