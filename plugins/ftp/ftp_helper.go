package ftp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/longkeyy/go-dsloader/common/client"
	"github.com/longkeyy/go-dsloader/common/plugin"
	"github.com/longkeyy/go-dsloader/common/source"
)

// FtpHelper FTP 与 SFTP 的共同操作，一个实例对应一次登录会话
type FtpHelper interface {
	// Stat 路径不存在时返回 os.ErrNotExist
	Stat(p string) (client.FileStatus, error)
	List(dir string) ([]client.FileStatus, error)
	GetInputStream(p string) (io.ReadCloser, error)
	Put(p string, r io.Reader) error
	Remove(p string) error
	RemoveDir(p string) error
	MakeDir(p string) error
	Logout() error
}

// DialFunc 建立会话
type DialFunc func(ctx context.Context, src *source.FtpSource) (FtpHelper, error)

// Login 按协议建立会话
func Login(ctx context.Context, src *source.FtpSource) (FtpHelper, error) {
	switch strings.ToLower(src.Protocol) {
	case "", source.ProtocolFTP:
		return loginStandard(ctx, src)
	case source.ProtocolSFTP:
		return loginSftp(src)
	default:
		return nil, fmt.Errorf("%w: unknown ftp protocol %q", plugin.ErrInvalidSource, src.Protocol)
	}
}

// StandardFtpHelper 标准 FTP 协议
type StandardFtpHelper struct {
	conn *ftp.ServerConn
}

func loginStandard(ctx context.Context, src *source.FtpSource) (*StandardFtpHelper, error) {
	if strings.EqualFold(src.ConnectMode, source.ConnectModePORT) {
		return nil, plugin.Unsupported("ftp active (PORT) mode")
	}

	address := src.Address()
	conn, err := ftp.Dial(address,
		ftp.DialWithTimeout(src.Timeout),
		ftp.DialWithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to FTP server %s: %w", address, err)
	}
	if err := conn.Login(src.Username, src.Password); err != nil {
		conn.Quit()
		return nil, fmt.Errorf("failed to login to FTP server: %w", err)
	}
	return &StandardFtpHelper{conn: conn}, nil
}

func (h *StandardFtpHelper) Stat(p string) (client.FileStatus, error) {
	p = cleanPath(p)
	if p == "/" {
		return client.FileStatus{Path: "/", Name: "/", IsDir: true}, nil
	}
	entries, err := h.conn.List(path.Dir(p))
	if err != nil {
		return client.FileStatus{}, err
	}
	name := path.Base(p)
	for _, e := range entries {
		if e.Name == name {
			return ftpStatus(path.Dir(p), e), nil
		}
	}
	return client.FileStatus{}, fmt.Errorf("%s: %w", p, os.ErrNotExist)
}

func (h *StandardFtpHelper) List(dir string) ([]client.FileStatus, error) {
	dir = cleanPath(dir)
	entries, err := h.conn.List(dir)
	if err != nil {
		return nil, err
	}
	out := make([]client.FileStatus, 0, len(entries))
	for _, e := range entries {
		if e.Name == "." || e.Name == ".." {
			continue
		}
		out = append(out, ftpStatus(dir, e))
	}
	return out, nil
}

func ftpStatus(dir string, e *ftp.Entry) client.FileStatus {
	return client.FileStatus{
		Path:    path.Join(dir, e.Name),
		Name:    e.Name,
		Size:    int64(e.Size),
		IsDir:   e.Type == ftp.EntryTypeFolder,
		ModTime: e.Time,
	}
}

func (h *StandardFtpHelper) GetInputStream(p string) (io.ReadCloser, error) {
	resp, err := h.conn.Retr(cleanPath(p))
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve file %s: %w", p, err)
	}
	return resp, nil
}

func (h *StandardFtpHelper) Put(p string, r io.Reader) error {
	return h.conn.Stor(cleanPath(p), r)
}

func (h *StandardFtpHelper) Remove(p string) error {
	return h.conn.Delete(cleanPath(p))
}

func (h *StandardFtpHelper) RemoveDir(p string) error {
	return h.conn.RemoveDir(cleanPath(p))
}

func (h *StandardFtpHelper) MakeDir(p string) error {
	return h.conn.MakeDir(cleanPath(p))
}

func (h *StandardFtpHelper) Logout() error {
	return h.conn.Quit()
}

// SftpHelper SFTP 协议
type SftpHelper struct {
	sshClient  *ssh.Client
	sftpClient *sftp.Client
}

func loginSftp(src *source.FtpSource) (*SftpHelper, error) {
	config := &ssh.ClientConfig{
		User: src.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(src.Password),
		},
		// TODO: 支持 known_hosts 校验主机密钥
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         src.Timeout,
	}

	address := src.Address()
	sshClient, err := ssh.Dial("tcp", address, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SSH server %s: %w", address, err)
	}
	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, fmt.Errorf("failed to create SFTP client: %w", err)
	}
	return &SftpHelper{sshClient: sshClient, sftpClient: sftpClient}, nil
}

func (h *SftpHelper) Stat(p string) (client.FileStatus, error) {
	p = cleanPath(p)
	info, err := h.sftpClient.Stat(p)
	if err != nil {
		return client.FileStatus{}, err
	}
	return sftpStatus(path.Dir(p), info), nil
}

func (h *SftpHelper) List(dir string) ([]client.FileStatus, error) {
	dir = cleanPath(dir)
	entries, err := h.sftpClient.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := make([]client.FileStatus, 0, len(entries))
	for _, e := range entries {
		out = append(out, sftpStatus(dir, e))
	}
	return out, nil
}

func sftpStatus(dir string, info os.FileInfo) client.FileStatus {
	return client.FileStatus{
		Path:    path.Join(dir, info.Name()),
		Name:    info.Name(),
		Size:    info.Size(),
		IsDir:   info.IsDir(),
		ModTime: info.ModTime(),
	}
}

func (h *SftpHelper) GetInputStream(p string) (io.ReadCloser, error) {
	f, err := h.sftpClient.Open(cleanPath(p))
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", p, err)
	}
	return f, nil
}

func (h *SftpHelper) Put(p string, r io.Reader) error {
	f, err := h.sftpClient.Create(cleanPath(p))
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (h *SftpHelper) Remove(p string) error {
	return h.sftpClient.Remove(cleanPath(p))
}

func (h *SftpHelper) RemoveDir(p string) error {
	return h.sftpClient.RemoveDirectory(cleanPath(p))
}

func (h *SftpHelper) MakeDir(p string) error {
	return h.sftpClient.Mkdir(cleanPath(p))
}

func (h *SftpHelper) Logout() error {
	var errs []error
	if err := h.sftpClient.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := h.sshClient.Close(); err != nil && !errors.Is(err, io.EOF) {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	p = path.Clean(p)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// DefaultTimeout 描述中未设置超时时的连接超时
const DefaultTimeout = 60 * time.Second
