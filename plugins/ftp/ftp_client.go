package ftp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/longkeyy/go-dsloader/common/client"
	"github.com/longkeyy/go-dsloader/common/logger"
	"github.com/longkeyy/go-dsloader/common/plugin"
	"github.com/longkeyy/go-dsloader/common/source"
)

// FileClient FTP/SFTP 文件客户端。会话有状态且不可并发使用，每次操作单独登录
type FileClient struct {
	dial DialFunc
	log  logger.PluginLogger
}

var _ client.FileClient = (*FileClient)(nil)

func NewFileClient() any {
	return &FileClient{
		dial: Login,
		log:  logger.Nop().Plugin(),
	}
}

func (c *FileClient) Init(env *plugin.Env) error {
	if env.Logger != nil {
		c.log = env.Logger
	}
	return nil
}

func (c *FileClient) session(ctx context.Context, src source.Source) (FtpHelper, error) {
	fs, err := source.As[*source.FtpSource](src)
	if err != nil {
		return nil, err
	}
	if fs.Host == "" {
		return nil, fmt.Errorf("%w: ftp host is empty", plugin.ErrInvalidSource)
	}
	if fs.Timeout <= 0 {
		copied := *fs
		copied.Timeout = DefaultTimeout
		fs = &copied
	}
	return c.dial(ctx, fs)
}

func (c *FileClient) logout(h FtpHelper) {
	if err := h.Logout(); err != nil {
		c.log.Debug("FTP logout failed", zap.Error(err))
	}
}

func (c *FileClient) TestCon(ctx context.Context, src source.Source) (bool, error) {
	h, err := c.session(ctx, src)
	if err != nil {
		return false, err
	}
	c.logout(h)
	return true, nil
}

func (c *FileClient) IsExists(ctx context.Context, src source.Source, p string) (bool, error) {
	h, err := c.session(ctx, src)
	if err != nil {
		return false, err
	}
	defer c.logout(h)

	if _, err := h.Stat(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (c *FileClient) List(ctx context.Context, src source.Source, p string) ([]client.FileStatus, error) {
	h, err := c.session(ctx, src)
	if err != nil {
		return nil, err
	}
	defer c.logout(h)

	st, err := h.Stat(p)
	if err != nil {
		return nil, err
	}
	if !st.IsDir {
		return []client.FileStatus{st}, nil
	}
	return h.List(p)
}

// sessionReader 读取结束时一并退出会话
type sessionReader struct {
	io.ReadCloser
	done func()
}

func (r *sessionReader) Close() error {
	err := r.ReadCloser.Close()
	r.done()
	return err
}

func (c *FileClient) Open(ctx context.Context, src source.Source, p string) (io.ReadCloser, error) {
	h, err := c.session(ctx, src)
	if err != nil {
		return nil, err
	}
	rc, err := h.GetInputStream(p)
	if err != nil {
		c.logout(h)
		return nil, err
	}
	return &sessionReader{ReadCloser: rc, done: func() { c.logout(h) }}, nil
}

// Write 覆盖写入，父目录不存在时逐级创建
func (c *FileClient) Write(ctx context.Context, src source.Source, p string, r io.Reader) error {
	h, err := c.session(ctx, src)
	if err != nil {
		return err
	}
	defer c.logout(h)

	if err := mkdirAll(h, path.Dir(cleanPath(p))); err != nil {
		return err
	}
	return h.Put(p, r)
}

func (c *FileClient) Delete(ctx context.Context, src source.Source, p string, recursive bool) error {
	h, err := c.session(ctx, src)
	if err != nil {
		return err
	}
	defer c.logout(h)

	st, err := h.Stat(p)
	if err != nil {
		return err
	}
	if !st.IsDir {
		return h.Remove(p)
	}
	if !recursive {
		return h.RemoveDir(p)
	}
	return removeAll(h, cleanPath(p))
}

func (c *FileClient) Mkdir(ctx context.Context, src source.Source, p string) error {
	h, err := c.session(ctx, src)
	if err != nil {
		return err
	}
	defer c.logout(h)
	return mkdirAll(h, cleanPath(p))
}

// mkdirAll 逐级创建目录，已存在的目录跳过
func mkdirAll(h FtpHelper, dir string) error {
	if dir == "/" {
		return nil
	}
	current := ""
	for _, part := range strings.Split(strings.Trim(dir, "/"), "/") {
		current += "/" + part
		st, err := h.Stat(current)
		if err == nil {
			if !st.IsDir {
				return fmt.Errorf("%w: %s exists and is not a directory", plugin.ErrInvalidArgument, current)
			}
			continue
		}
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err := h.MakeDir(current); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", current, err)
		}
	}
	return nil
}

func removeAll(h FtpHelper, dir string) error {
	entries, err := h.List(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir {
			if err := removeAll(h, e.Path); err != nil {
				return err
			}
			continue
		}
		if err := h.Remove(e.Path); err != nil {
			return err
		}
	}
	return h.RemoveDir(dir)
}
