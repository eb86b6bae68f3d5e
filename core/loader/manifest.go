package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/go-version"
	"gopkg.in/yaml.v3"

	"github.com/longkeyy/go-dsloader/common/pathutil"
	"github.com/longkeyy/go-dsloader/common/plugin"
)

// SharedLibraryExt Go 插件共享库后缀
const SharedLibraryExt = ".so"

// ReadManifest 读取插件目录下的 plugin.yaml，文件不存在时返回 nil, nil
func ReadManifest(dir string) (*plugin.Manifest, error) {
	content, err := os.ReadFile(filepath.Join(dir, plugin.ManifestFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m plugin.Manifest
	if err := yaml.Unmarshal(content, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", plugin.ManifestFile, err)
	}
	return &m, nil
}

// CheckHostVersion 校验宿主版本是否满足描述文件中的 hostVersion 约束
func CheckHostVersion(m *plugin.Manifest, host string) error {
	if m == nil || m.HostVersion == "" {
		return nil
	}
	constraint, err := version.NewConstraint(m.HostVersion)
	if err != nil {
		return fmt.Errorf("invalid hostVersion %q: %w", m.HostVersion, err)
	}
	hv, err := version.NewVersion(host)
	if err != nil {
		return fmt.Errorf("invalid host version %q: %w", host, err)
	}
	if !constraint.Check(hv) {
		return fmt.Errorf("host version %s does not satisfy %s", host, m.HostVersion)
	}
	return nil
}

// libraryFile 插件共享库在目录内的相对路径，不存在时返回空串
func libraryFile(dir, name string, m *plugin.Manifest) string {
	rel := name + SharedLibraryExt
	if m != nil && m.Library != "" {
		rel = m.Library
	}
	if info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(rel))); err == nil && !info.IsDir() {
		return rel
	}
	return ""
}

// InstalledPlugin 插件根目录下的一个插件
type InstalledPlugin struct {
	Name     string
	Dir      string
	Manifest *plugin.Manifest
	Library  string
	// Err 描述文件读取失败的原因
	Err error
}

// Installed 列出插件根目录下的全部插件目录，按名字排序
func Installed(root string) ([]InstalledPlugin, error) {
	root = pathutil.RemoveMultiSeparator(root)
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read plugin root %s: %w", root, err)
	}

	var out []InstalledPlugin
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := pathutil.Join(root, e.Name())
		m, err := ReadManifest(dir)
		out = append(out, InstalledPlugin{
			Name:     e.Name(),
			Dir:      dir,
			Manifest: m,
			Library:  libraryFile(dir, e.Name(), m),
			Err:      err,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
