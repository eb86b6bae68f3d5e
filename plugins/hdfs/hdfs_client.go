package hdfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/colinmarc/hdfs/v2"
	"github.com/colinmarc/hdfs/v2/hadoopconf"
	"go.uber.org/zap"

	"github.com/longkeyy/go-dsloader/common/client"
	"github.com/longkeyy/go-dsloader/common/conncache"
	"github.com/longkeyy/go-dsloader/common/kerberos"
	"github.com/longkeyy/go-dsloader/common/logger"
	"github.com/longkeyy/go-dsloader/common/plugin"
	"github.com/longkeyy/go-dsloader/common/source"
)

// DefaultNamenodePrincipal 未配置 dfs.namenode.kerberos.principal 时使用的服务名
const DefaultNamenodePrincipal = "nn/_HOST"

// FileClient HDFS 文件客户端
type FileClient struct {
	clients *conncache.Cache[string, *hdfs.Client]
	log     logger.PluginLogger
}

var _ client.FileClient = (*FileClient)(nil)

func NewFileClient() any {
	return &FileClient{
		clients: conncache.New[string, *hdfs.Client](func(c *hdfs.Client) error { return c.Close() }),
		log:     logger.Nop().Plugin(),
	}
}

func (c *FileClient) Init(env *plugin.Env) error {
	if env.Logger != nil {
		c.log = env.Logger
	}
	return nil
}

func (c *FileClient) Close() error {
	return c.clients.Close()
}

// clientOptions 由 Hadoop 配置项与 defaultFS 组装客户端选项，defaultFS 优先
func clientOptions(src *source.HdfsSource) (hdfs.ClientOptions, error) {
	conf := hadoopconf.HadoopConf{}
	for k, v := range src.Config {
		conf[k] = v
	}
	options := hdfs.ClientOptionsFromConf(conf)

	if src.DefaultFS != "" {
		fs := strings.TrimPrefix(src.DefaultFS, "hdfs://")
		fs = strings.TrimSuffix(fs, "/")
		options.Addresses = strings.Split(fs, ",")
	}
	if len(options.Addresses) == 0 {
		return options, fmt.Errorf("%w: hdfs needs defaultFS or dfs.namenode.rpc-address", plugin.ErrInvalidSource)
	}
	options.User = src.User

	options.KerberosClient = nil
	if src.Kerberos.Enabled() {
		if options.KerberosServicePrincipleName == "" {
			options.KerberosServicePrincipleName = DefaultNamenodePrincipal
		}
	}
	return options, nil
}

func cacheKey(src *source.HdfsSource) string {
	principal := ""
	if src.Kerberos.Enabled() {
		principal = src.Kerberos.Principal
	}
	return strings.Join([]string{src.DefaultFS, src.User, principal}, "|")
}

func (c *FileClient) fs(src source.Source) (*hdfs.Client, error) {
	hs, err := source.As[*source.HdfsSource](src)
	if err != nil {
		return nil, err
	}
	return c.clients.Get(cacheKey(hs), func() (*hdfs.Client, error) {
		options, err := clientOptions(hs)
		if err != nil {
			return nil, err
		}
		if hs.Kerberos.Enabled() {
			kc, err := kerberos.Login(hs.Kerberos)
			if err != nil {
				return nil, err
			}
			options.KerberosClient = kc
		}

		cl, err := hdfs.NewClient(options)
		if err != nil {
			return nil, fmt.Errorf("failed to connect namenode %v: %w", options.Addresses, err)
		}
		c.log.Info("HDFS client created",
			zap.Strings("namenodes", options.Addresses),
			zap.String("user", options.User))
		return cl, nil
	})
}

func (c *FileClient) TestCon(ctx context.Context, src source.Source) (bool, error) {
	fs, err := c.fs(src)
	if err != nil {
		return false, err
	}
	if _, err := fs.StatFs(); err != nil {
		return false, fmt.Errorf("hdfs statfs failed: %w", err)
	}
	return true, nil
}

func (c *FileClient) IsExists(ctx context.Context, src source.Source, p string) (bool, error) {
	fs, err := c.fs(src)
	if err != nil {
		return false, err
	}
	if _, err := fs.Stat(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (c *FileClient) List(ctx context.Context, src source.Source, p string) ([]client.FileStatus, error) {
	fs, err := c.fs(src)
	if err != nil {
		return nil, err
	}
	info, err := fs.Stat(p)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []client.FileStatus{toStatus(path.Dir(p), info)}, nil
	}

	entries, err := fs.ReadDir(p)
	if err != nil {
		return nil, err
	}
	out := make([]client.FileStatus, 0, len(entries))
	for _, e := range entries {
		out = append(out, toStatus(p, e))
	}
	return out, nil
}

func toStatus(dir string, info os.FileInfo) client.FileStatus {
	return client.FileStatus{
		Path:    path.Join(dir, info.Name()),
		Name:    info.Name(),
		Size:    info.Size(),
		IsDir:   info.IsDir(),
		ModTime: info.ModTime(),
	}
}

func (c *FileClient) Open(ctx context.Context, src source.Source, p string) (io.ReadCloser, error) {
	fs, err := c.fs(src)
	if err != nil {
		return nil, err
	}
	return fs.Open(p)
}

// Write 覆盖写入，父目录不存在时自动创建
func (c *FileClient) Write(ctx context.Context, src source.Source, p string, r io.Reader) error {
	fs, err := c.fs(src)
	if err != nil {
		return err
	}
	if err := fs.MkdirAll(path.Dir(p), 0o755); err != nil {
		return err
	}
	if err := fs.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	w, err := fs.Create(p)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("write %s: %w", p, err)
	}
	return w.Close()
}

func (c *FileClient) Delete(ctx context.Context, src source.Source, p string, recursive bool) error {
	fs, err := c.fs(src)
	if err != nil {
		return err
	}
	if recursive {
		return fs.RemoveAll(p)
	}
	return fs.Remove(p)
}

func (c *FileClient) Mkdir(ctx context.Context, src source.Source, p string) error {
	fs, err := c.fs(src)
	if err != nil {
		return err
	}
	return fs.MkdirAll(p, 0o755)
}
