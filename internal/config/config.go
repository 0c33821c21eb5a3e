package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bootimgpack/bootimg/internal/branding"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Recognized configuration keys.
const (
	KeyToolkit        = "toolkit"
	KeyToolsRoot      = "tools_root"
	KeyAttemptTimeout = "attempt_timeout"
	KeyLogLevel       = "log_level"
	KeyScratchDir     = "scratch_dir"
)

// Defaults applied when a key is unset.
const (
	DefaultToolkitFile    = "toolkit.xml"
	DefaultToolsDir       = "tools"
	DefaultAttemptTimeout = 60 * time.Second
	DefaultLogLevel       = "info"
)

// Keys lists every key understood by Set, in display order.
var Keys = []string{
	KeyToolkit,
	KeyToolsRoot,
	KeyAttemptTimeout,
	KeyLogLevel,
	KeyScratchDir,
}

// Dir returns the path to the config directory (~/.bootimg/).
// BOOTIMG_HOME overrides the location.
func Dir() string {
	if v := os.Getenv(branding.EnvVar("HOME")); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.bootimg/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes Viper to read from the config file and environment.
func Load() {
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.AutomaticEnv()

	viper.SetDefault(KeyAttemptTimeout, DefaultAttemptTimeout.String())
	viper.SetDefault(KeyLogLevel, DefaultLogLevel)

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if !isKnownKey(key) {
		return fmt.Errorf("unknown config key %q (known keys: %v)", key, Keys)
	}
	if key == KeyAttemptTimeout {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, value, err)
		}
	}

	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, value)

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// ToolsRoot returns the directory tool paths in the toolkit are relative to.
// Falls back to the directory holding the toolkit document, then ~/.bootimg/tools.
func ToolsRoot() string {
	if v := Get(KeyToolsRoot); v != "" {
		return v
	}
	if v := Get(KeyToolkit); v != "" {
		return filepath.Dir(v)
	}
	return filepath.Join(Dir(), DefaultToolsDir)
}

// ToolkitPath returns the path of the toolkit document.
func ToolkitPath() string {
	if v := Get(KeyToolkit); v != "" {
		return v
	}
	return filepath.Join(ToolsRoot(), DefaultToolkitFile)
}

// AttemptTimeout returns the per-attempt timeout for unpack probes.
// Unparseable or non-positive values fall back to DefaultAttemptTimeout.
func AttemptTimeout() time.Duration {
	d, err := time.ParseDuration(Get(KeyAttemptTimeout))
	if err != nil || d <= 0 {
		return DefaultAttemptTimeout
	}
	return d
}

// LogLevel returns the configured log level name.
func LogLevel() string {
	if v := Get(KeyLogLevel); v != "" {
		return v
	}
	return DefaultLogLevel
}

// ScratchBase returns the parent directory for scratch directories.
// Empty means the OS temp dir.
func ScratchBase() string {
	return Get(KeyScratchDir)
}

func isKnownKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}
