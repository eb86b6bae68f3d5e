package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/longkeyy/go-dsloader/common/client"
	"github.com/longkeyy/go-dsloader/common/config"
	"github.com/longkeyy/go-dsloader/common/logger"
	"github.com/longkeyy/go-dsloader/common/plugin"
	"github.com/longkeyy/go-dsloader/common/source"
	"github.com/longkeyy/go-dsloader/core/loader"
)

func renderTable(w io.Writer, headers []string, rows [][]string) error {
	t := tablewriter.NewTable(w)
	t.Header(headers)
	for _, row := range rows {
		if err := t.Append(row); err != nil {
			return err
		}
	}
	return t.Render()
}

func joinCategories(categories []plugin.Category) string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.String()
	}
	return strings.Join(names, ",")
}

func (e *Engine) typesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the supported source types and the plugin serving each",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var rows [][]string
			for _, entry := range e.registry.SourceTable().Entries() {
				rows = append(rows, []string{
					strconv.Itoa(int(entry.Type)),
					entry.Name,
					entry.PluginName,
					joinCategories(entry.Categories),
				})
			}
			return renderTable(cmd.OutOrStdout(), []string{"Type", "Name", "Plugin", "Categories"}, rows)
		},
	}
}

// pluginRow 同时展示插件根目录中的插件与编译期链接的入口
type pluginRow struct {
	name      string
	version   string
	libraries string
	linked    []plugin.Category
	status    string
}

func (e *Engine) pluginRows() ([]pluginRow, error) {
	rows := make(map[string]*pluginRow)
	row := func(name string) *pluginRow {
		if r, ok := rows[name]; ok {
			return r
		}
		r := &pluginRow{name: name, status: "linked"}
		rows[name] = r
		return r
	}

	installed, err := loader.Installed(e.settings.PluginRoot)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	for _, p := range installed {
		r := row(p.Name)
		r.status = "installed"
		if p.Manifest != nil {
			r.version = p.Manifest.Version
		}
		r.libraries = p.Library
		if p.Err != nil {
			r.status = "invalid manifest: " + p.Err.Error()
		}
	}
	for _, name := range e.entrypoints.Plugins() {
		r := row(name)
		r.linked = e.entrypoints.Categories(name)
		if r.status == "linked" {
			r.status = "not installed"
		}
	}

	out := make([]pluginRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out, nil
}

func (e *Engine) pluginsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List plugins under the plugin root and the linked entry points",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := e.pluginRows()
			if err != nil {
				return err
			}
			writef(cmd.OutOrStdout(), "plugin root: %s\n", e.settings.PluginRoot)
			var cells [][]string
			for _, r := range rows {
				cells = append(cells, []string{r.name, r.version, r.libraries, joinCategories(r.linked), r.status})
			}
			return renderTable(cmd.OutOrStdout(), []string{"Plugin", "Version", "Library", "Linked", "Status"}, cells)
		},
	}
}

func (e *Engine) verifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <plugin>",
		Short: "Verify a plugin directory against its manifest without loading it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loader.Verify(e.settings.PluginRoot, args[0])
			if err != nil {
				return err
			}
			writef(cmd.OutOrStdout(), "%s %s: %d file(s) verified\n", m.Name, m.Version, len(m.Files))
			return nil
		},
	}
}

func (e *Engine) probeCommand() *cobra.Command {
	var (
		file     string
		category string
		timeout  = DefaultProbeTimeout
	)
	cmd := &cobra.Command{
		Use:   "probe -f <source.json>",
		Short: "Load the client for a source description and test connectivity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.FromFile(file)
			if err != nil {
				return fmt.Errorf("%w: %w", plugin.ErrInvalidSource, err)
			}
			src, err := source.FromConfiguration(conf)
			if err != nil {
				return err
			}
			ok, err := e.probe(cmd.Context(), src, category, timeout)
			e.registry.LogStats(logger.NewMetricsLoggerWith(logger.ComponentWithName("Engine")))
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("connection test for %s failed", src.SourceType())
			}
			writef(cmd.OutOrStdout(), "%s: connection ok\n", src.SourceType())
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON source description: {\"sourceType\": n, \"parameter\": {...}}")
	cmd.Flags().StringVar(&category, "category", "", "client category, defaults to the type's primary category")
	cmd.Flags().DurationVar(&timeout, "timeout", timeout, "connectivity test timeout")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// probe 按类别取客户端并执行 TestCon
func (e *Engine) probe(ctx context.Context, src source.Source, category string, timeout time.Duration) (bool, error) {
	entry, err := e.registry.SourceTable().Resolve(src.SourceType())
	if err != nil {
		return false, err
	}
	cat := entry.Primary()
	if category != "" {
		if cat, err = plugin.ParseCategory(category); err != nil {
			return false, err
		}
	}

	instance, err := e.registry.Client(cat, src.SourceType())
	if err != nil {
		return false, err
	}
	tester, ok := instance.(client.Tester)
	if !ok {
		return false, fmt.Errorf("%w: %T has no TestCon", plugin.ErrContractViolation, instance)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger.App().Info("Testing connection",
		zap.String("type", src.SourceType().String()),
		zap.String("category", cat.String()),
		zap.String("plugin", entry.PluginName))
	return tester.TestCon(ctx, src)
}
