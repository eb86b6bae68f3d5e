package loader

import (
	_ "crypto/sha256"
	_ "crypto/sha512"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/opencontainers/go-digest"

	"github.com/longkeyy/go-dsloader/common/pathutil"
	"github.com/longkeyy/go-dsloader/common/plugin"
	"github.com/longkeyy/go-dsloader/version"
)

// Verify 对插件目录做严格校验，不加载插件。
// 要求描述文件存在、名字一致、宿主版本满足约束、所列文件摘要全部匹配、共享库已登记摘要。
func Verify(root, name string) (*plugin.Manifest, error) {
	dir := pathutil.Join(root, name)
	if err := checkDir(dir); err != nil {
		return nil, err
	}
	m, err := ReadManifest(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", plugin.ErrIntegrity, err)
	}
	if err := verifyStrict(dir, name, m, nil, version.Version); err != nil {
		return m, err
	}
	return m, nil
}

func verifyStrict(dir, name string, m *plugin.Manifest, category *plugin.Category, host string) error {
	if m == nil {
		return fmt.Errorf("%w: %s is missing %s", plugin.ErrIntegrity, name, plugin.ManifestFile)
	}
	if m.Name != name {
		return fmt.Errorf("%w: manifest name %q does not match plugin %q", plugin.ErrIntegrity, m.Name, name)
	}
	if category != nil && !m.Declares(*category) {
		return fmt.Errorf("%w: plugin %s does not declare category %s", plugin.ErrIntegrity, name, *category)
	}
	if err := CheckHostVersion(m, host); err != nil {
		return fmt.Errorf("%w: %w", plugin.ErrIntegrity, err)
	}
	if len(m.Files) == 0 {
		return fmt.Errorf("%w: manifest of %s lists no file digests", plugin.ErrIntegrity, name)
	}

	if lib := libraryFile(dir, name, m); lib != "" {
		if _, ok := m.Files[lib]; !ok {
			return fmt.Errorf("%w: library %s has no digest in manifest", plugin.ErrIntegrity, lib)
		}
	}

	files := make([]string, 0, len(m.Files))
	for f := range m.Files {
		files = append(files, f)
	}
	sort.Strings(files)
	for _, f := range files {
		if err := verifyFile(dir, f, m.Files[f]); err != nil {
			return err
		}
	}
	return nil
}

func verifyFile(dir, rel, want string) error {
	clean := path.Clean(rel)
	if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("%w: file %s escapes plugin directory", plugin.ErrIntegrity, rel)
	}

	expected, err := digest.Parse(want)
	if err != nil {
		return fmt.Errorf("%w: invalid digest for %s: %w", plugin.ErrIntegrity, rel, err)
	}

	f, err := os.Open(filepath.Join(dir, filepath.FromSlash(clean)))
	if err != nil {
		return fmt.Errorf("%w: %w", plugin.ErrIntegrity, err)
	}
	defer f.Close()

	verifier := expected.Verifier()
	if _, err := io.Copy(verifier, f); err != nil {
		return fmt.Errorf("%w: read %s: %w", plugin.ErrIntegrity, rel, err)
	}
	if !verifier.Verified() {
		return fmt.Errorf("%w: digest mismatch for %s", plugin.ErrIntegrity, rel)
	}
	return nil
}
