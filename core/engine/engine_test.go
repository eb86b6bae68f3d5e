package engine

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/longkeyy/go-dsloader/common/client"
	"github.com/longkeyy/go-dsloader/common/plugin"
	"github.com/longkeyy/go-dsloader/common/source"
)

type fakeHttp struct {
	tested int
}

func (f *fakeHttp) TestCon(ctx context.Context, src source.Source) (bool, error) {
	f.tested++
	rs, ok := src.(*source.RestfulSource)
	return ok && rs.URL == "http://api.local", nil
}

func (f *fakeHttp) Get(ctx context.Context, src source.Source, req client.HttpRequest) (*client.HttpResponse, error) {
	return &client.HttpResponse{StatusCode: 200}, nil
}

func (f *fakeHttp) Post(ctx context.Context, src source.Source, req client.HttpRequest) (*client.HttpResponse, error) {
	return f.Get(ctx, src, req)
}

func (f *fakeHttp) Put(ctx context.Context, src source.Source, req client.HttpRequest) (*client.HttpResponse, error) {
	return f.Get(ctx, src, req)
}

func (f *fakeHttp) Delete(ctx context.Context, src source.Source, req client.HttpRequest) (*client.HttpResponse, error) {
	return f.Get(ctx, src, req)
}

var linked = &fakeHttp{}

func init() {
	plugin.Register("restful", plugin.Http, func() any { return linked })
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewEngine("1.4.0").Command()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestTypesListsSourceTable(t *testing.T) {
	out, err := run(t, "types", "--plugin-root", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "mysql5")
	assert.Contains(t, out, "MySQL8")
	assert.Contains(t, out, "restful")
}

func TestPluginsMergesInstalledAndLinked(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ftp", plugin.ManifestFile), "name: ftp\nversion: 2.1.0\n")

	out, err := run(t, "plugins", "--plugin-root", root)
	require.NoError(t, err)
	assert.Contains(t, out, "ftp")
	assert.Contains(t, out, "2.1.0")
	assert.Contains(t, out, "installed")
	assert.Contains(t, out, "restful")
	assert.Contains(t, out, "not installed")
}

func TestVerifyPluginDirectory(t *testing.T) {
	root := t.TempDir()
	content := "host=localhost\n"
	writeFile(t, filepath.Join(root, "ftp", "conf", "ftp.properties"), content)
	writeFile(t, filepath.Join(root, "ftp", plugin.ManifestFile),
		"name: ftp\nversion: 2.1.0\nhostVersion: \">= 1.0\"\nfiles:\n  conf/ftp.properties: "+digest.FromString(content).String()+"\n")

	out, err := run(t, "verify", "ftp", "--plugin-root", root)
	require.NoError(t, err)
	assert.Contains(t, out, "ftp 2.1.0: 1 file(s) verified")

	writeFile(t, filepath.Join(root, "ftp", "conf", "ftp.properties"), "tampered\n")
	_, err = run(t, "verify", "ftp", "--plugin-root", root)
	require.ErrorIs(t, err, plugin.ErrIntegrity)
}

func TestProbeUsesPrimaryCategory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "restful"), 0o755))
	file := filepath.Join(t.TempDir(), "source.json")
	writeFile(t, file, `{"sourceType": 47, "parameter": {"url": "http://api.local"}}`)

	before := linked.tested
	out, err := run(t, "probe", "-f", file, "--plugin-root", root)
	require.NoError(t, err)
	assert.Contains(t, out, "connection ok")
	assert.Equal(t, before+1, linked.tested)
}

func TestProbeRejectsUndeclaredCategory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "restful"), 0o755))
	file := filepath.Join(t.TempDir(), "source.json")
	writeFile(t, file, `{"sourceType": 47, "parameter": {"url": "http://api.local"}}`)

	_, err := run(t, "probe", "-f", file, "--category", "sql", "--plugin-root", root)
	require.ErrorIs(t, err, plugin.ErrUnsupportedOperation)
}

func TestProbeRequiresFile(t *testing.T) {
	_, err := run(t, "probe", "--plugin-root", t.TempDir())
	require.Error(t, err)
}
