package config

import (
	"fmt"
	"time"
)

// Builder provides a fluent interface for building console configuration.
type Builder struct {
	config Config
}

// NewBuilder creates a new configuration builder with default values.
func NewBuilder() *Builder {
	return &Builder{
		config: Default(),
	}
}

// From starts the builder from an existing configuration.
func From(cfg Config) *Builder {
	return &Builder{config: cfg}
}

func (b *Builder) WithAppName(name string) *Builder {
	b.config.AppName = name
	return b
}

func (b *Builder) WithAppVersion(version string) *Builder {
	b.config.AppVersion = version
	return b
}

// WithDataPath sets the badger data directory.
func (b *Builder) WithDataPath(path string) *Builder {
	b.config.DataPath = path
	return b
}

func (b *Builder) WithPort(port string) *Builder {
	b.config.Port = port
	return b
}

func (b *Builder) WithRequestTimeout(d time.Duration) *Builder {
	b.config.RequestTimeout = d
	return b
}

func (b *Builder) WithLogLevel(level string) *Builder {
	b.config.LogLevel = level
	return b
}

// WithEventRetentionDays sets how long events are kept. Zero keeps them forever.
func (b *Builder) WithEventRetentionDays(days int) *Builder {
	b.config.EventRetentionDays = days
	return b
}

func (b *Builder) WithEventCleanupInterval(interval time.Duration) *Builder {
	b.config.EventCleanupInterval = interval
	return b
}

func (b *Builder) WithKubeconfig(path string) *Builder {
	b.config.Kubeconfig = path
	return b
}

func (b *Builder) WithOperatorNamespace(namespace string) *Builder {
	b.config.OperatorNamespace = namespace
	return b
}

func (b *Builder) WithDefaultPageSize(n int) *Builder {
	b.config.DefaultPageSize = n
	return b
}

// Build returns the configured Config and validates it.
func (b *Builder) Build() (Config, error) {
	if err := b.config.Validate(); err != nil {
		return Config{}, err
	}
	return b.config, nil
}

// MustBuild returns the configured Config and panics if validation fails.
func (b *Builder) MustBuild() Config {
	cfg, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("invalid configuration: %v", err))
	}
	return cfg
}
