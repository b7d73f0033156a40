package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const EnvPrefix = "CONSOLE"

// DefaultConfigPath is $HOME/.config/conductor-console/config.yml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "conductor-console", "config.yml"), nil
}

// Load layers the YAML file at path (or the default path when empty) and
// CONSOLE_* environment variables over Default(). A missing file is not an
// error. The result is validated.
func Load(path string) (Config, error) {
	defaults := Default()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("app-name", defaults.AppName)
	v.SetDefault("app-version", defaults.AppVersion)
	v.SetDefault("data-path", defaults.DataPath)
	v.SetDefault("port", defaults.Port)
	v.SetDefault("request-timeout", defaults.RequestTimeout)
	v.SetDefault("log-level", defaults.LogLevel)
	v.SetDefault("event-retention-days", defaults.EventRetentionDays)
	v.SetDefault("event-cleanup-interval", defaults.EventCleanupInterval)
	v.SetDefault("kubeconfig", defaults.Kubeconfig)
	v.SetDefault("operator-namespace", defaults.OperatorNamespace)
	v.SetDefault("default-page-size", defaults.DefaultPageSize)

	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
