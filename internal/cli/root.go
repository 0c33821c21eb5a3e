package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/bootimgpack/bootimg/internal/branding"
	"github.com/bootimgpack/bootimg/internal/config"
	"github.com/bootimgpack/bootimg/internal/detect"
	"github.com/bootimgpack/bootimg/internal/toolkit"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

// Global flags.
var (
	toolkitFlag   string
	toolsRootFlag string
	logLevelFlag  string
)

var logger = log.Default()

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` finds the vendor toolchain that understands a boot image by trial:
each registered unpack tool is run against the image in a scratch directory,
and the first one that yields a kernel and a ramdisk init script wins.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.Load()
		return setupLogger(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&toolkitFlag, "toolkit", "", "Toolkit document (.xml or .yaml); defaults to the toolkit config key")
	rootCmd.PersistentFlags().StringVar(&toolsRootFlag, "tools-root", "", "Directory tool paths are relative to; defaults to the toolkit's directory")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level (debug, info, warn, error)")
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		logger.Error(err.Error())
	}
	return err
}

func setupLogger(cmd *cobra.Command) error {
	name := logLevelFlag
	if name == "" {
		name = config.LogLevel()
	}
	level, err := log.ParseLevel(strings.ToLower(name))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", name, err)
	}

	logger = log.NewWithOptions(cmd.ErrOrStderr(), log.Options{
		Prefix: branding.CLIName(),
		Level:  level,
	})
	log.SetDefault(logger)
	return nil
}

// toolkitPath returns the toolkit document selected by flag or config.
func toolkitPath() string {
	if toolkitFlag != "" {
		return toolkitFlag
	}
	return config.ToolkitPath()
}

// loadToolkit loads the registry named by --toolkit or the config file.
func loadToolkit() (*toolkit.Registry, error) {
	root := toolsRootFlag
	if root == "" {
		root = config.Get(config.KeyToolsRoot)
	}
	path := toolkitPath()
	reg, err := toolkit.Load(path, root)
	if err != nil {
		return nil, err
	}
	logger.Debug("toolkit loaded", "path", path, "types", reg.Len(), "root", reg.ToolsRoot())
	for _, o := range reg.Overridden() {
		logger.Warn("duplicate toolkit type, later entry wins", "type", o.Type, "dropped", o.Unpack)
	}
	return reg, nil
}

// attemptTimeout returns flagValue when set, otherwise the configured timeout.
func attemptTimeout(flagValue time.Duration) time.Duration {
	if flagValue > 0 {
		return flagValue
	}
	return config.AttemptTimeout()
}

// detectorOptions returns the options shared by every command that probes.
func detectorOptions(timeout time.Duration, strict bool) []detect.Option {
	return []detect.Option{
		detect.WithLogger(logger),
		detect.WithTimeout(attemptTimeout(timeout)),
		detect.WithScratchBase(config.ScratchBase()),
		detect.WithRequireZeroExit(strict),
	}
}
