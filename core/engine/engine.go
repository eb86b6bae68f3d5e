package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/longkeyy/go-dsloader/common/config"
	"github.com/longkeyy/go-dsloader/common/logger"
	"github.com/longkeyy/go-dsloader/common/plugin"
	"github.com/longkeyy/go-dsloader/core/registry"
)

const (
	FlagConfig     = "config"
	FlagPluginRoot = "plugin-root"
	FlagStrict     = "strict"
	FlagLogLevel   = "log-level"
)

// DefaultProbeTimeout probe 命令的连通性检查超时
const DefaultProbeTimeout = 30 * time.Second

// Engine 命令行入口，持有一次进程运行的设置与客户端注册表
type Engine struct {
	version string

	configPath string
	pluginRoot string
	strict     bool
	logLevel   string

	settings    *config.Settings
	registry    *registry.ClientRegistry
	entrypoints plugin.EntrypointRegistry
}

func NewEngine(version string) *Engine {
	return &Engine{
		version:     version,
		entrypoints: plugin.Entrypoints(),
	}
}

// Command 构建根命令
func (e *Engine) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dsloader [sub-command]",
		Short: "Plugin-based client loader for external data sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: e.setup,
		Version:           e.version,
		SilenceUsage:      true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&e.configPath, FlagConfig, "", "TOML settings file")
	flags.StringVar(&e.pluginRoot, FlagPluginRoot, "", "plugin root directory (default <cwd>/pluginLibs/)")
	flags.BoolVar(&e.strict, FlagStrict, false, "verify plugin manifests and digests before loading")
	flags.StringVar(&e.logLevel, FlagLogLevel, "", "log level: debug, info, warn, error")

	cmd.AddCommand(e.typesCommand())
	cmd.AddCommand(e.pluginsCommand())
	cmd.AddCommand(e.verifyCommand())
	cmd.AddCommand(e.probeCommand())
	return cmd
}

// setup 加载设置、初始化日志并创建注册表；命令行参数优先于文件和环境变量
func (e *Engine) setup(cmd *cobra.Command, args []string) error {
	overrides := map[string]any{
		"plugin_root": e.pluginRoot,
		"log.level":   e.logLevel,
	}
	if cmd.Flags().Changed(FlagStrict) {
		overrides["strict_verify"] = e.strict
	}

	settings, err := config.LoadSettings(e.configPath, overrides)
	if err != nil {
		return err
	}
	if err := logger.Initialize(&settings.Log); err != nil {
		return err
	}

	e.settings = settings
	e.registry = registry.New(
		registry.WithSettings(settings),
		registry.WithLogger(logger.GetLogger()),
	)

	logger.App().Debug("Settings loaded",
		zap.String("pluginRoot", settings.PluginRoot),
		zap.Bool("strictVerify", settings.StrictVerify))
	return nil
}

// Settings 已加载的设置，PersistentPreRunE 之前为 nil
func (e *Engine) Settings() *config.Settings {
	return e.settings
}

// Registry 本次运行的客户端注册表
func (e *Engine) Registry() *registry.ClientRegistry {
	return e.registry
}

func Main(ver string) {
	e := NewEngine(ver)
	err := e.Command().ExecuteContext(context.Background())
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func writef(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
