package config

import (
	"fmt"
	"os"
	"time"

	"github.com/garunski/conductor-console/pkg/console/eventfeed"
	"github.com/garunski/conductor-console/pkg/console/kube"
)

// Config holds all console configuration
type Config struct {
	// Application metadata
	AppName    string `mapstructure:"app-name"`
	AppVersion string `mapstructure:"app-version"`

	// Storage configuration
	DataPath string `mapstructure:"data-path"`

	// Server configuration
	Port           string        `mapstructure:"port"`
	RequestTimeout time.Duration `mapstructure:"request-timeout"`

	// Logging configuration
	LogLevel string `mapstructure:"log-level"`

	// Event retention
	EventRetentionDays   int           `mapstructure:"event-retention-days"`
	EventCleanupInterval time.Duration `mapstructure:"event-cleanup-interval"`

	// Kubernetes configuration
	Kubeconfig        string `mapstructure:"kubeconfig"`
	OperatorNamespace string `mapstructure:"operator-namespace"`

	// Event feed paging
	DefaultPageSize int `mapstructure:"default-page-size"`
}

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Default returns a Config with default values
func Default() Config {
	return Config{
		AppName:              "conductor-console",
		AppVersion:           getEnvOrDefault("VERSION", "dev"),
		DataPath:             getEnvOrDefault("BADGER_DATA_PATH", "/data/badger"),
		Port:                 getEnvOrDefault("PORT", "8081"),
		RequestTimeout:       parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		EventRetentionDays:   parseIntOrDefault("EVENT_RETENTION_DAYS", 7),
		EventCleanupInterval: parseDurationOrDefault("EVENT_CLEANUP_INTERVAL", 1*time.Hour),
		Kubeconfig:           os.Getenv("KUBECONFIG"),
		OperatorNamespace:    getEnvOrDefault("OPERATOR_NAMESPACE", kube.DefaultOperatorNamespace),
		DefaultPageSize:      eventfeed.DefaultPageSize,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.AppName == "" {
		return fmt.Errorf("AppName cannot be empty")
	}
	if c.DataPath == "" {
		return fmt.Errorf("DataPath cannot be empty")
	}
	if c.Port == "" {
		return fmt.Errorf("Port cannot be empty")
	}
	if c.EventRetentionDays < 0 {
		return fmt.Errorf("EventRetentionDays cannot be negative")
	}
	if c.EventCleanupInterval <= 0 {
		return fmt.Errorf("EventCleanupInterval must be positive")
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("RequestTimeout cannot be negative")
	}
	if c.DefaultPageSize <= 0 {
		return fmt.Errorf("DefaultPageSize must be positive")
	}
	if !logLevels[c.LogLevel] {
		return fmt.Errorf("LogLevel %q must be one of debug, info, warn, error", c.LogLevel)
	}
	return nil
}

// Debug reports whether development logging is requested.
func (c *Config) Debug() bool {
	return c.LogLevel == "debug"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}
