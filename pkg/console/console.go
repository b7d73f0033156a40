package console

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/garunski/conductor-console/pkg/console/config"
	"github.com/garunski/conductor-console/pkg/console/server"
)

// NewLogger builds the console logger for the configured level. Debug uses
// zap's development encoder.
func NewLogger(cfg config.Config) (logr.Logger, error) {
	var zapCfg zap.Config
	if cfg.Debug() {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
		level, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return logr.Logger{}, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
		}
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}

	zapLog, err := zapCfg.Build()
	if err != nil {
		return logr.Logger{}, fmt.Errorf("failed to create logger: %w", err)
	}
	return zapr.NewLogger(zapLog), nil
}

// Run starts the console with the given configuration
// It handles the complete lifecycle: initialization, startup, and shutdown
func Run(ctx context.Context, cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := NewLogger(cfg)
	if err != nil {
		return err
	}

	logger.Info("Starting console", "appName", cfg.AppName, "version", cfg.AppVersion)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv, err := server.NewServer(&cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Error(err, "failed to close server")
		}
	}()

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	if err := srv.WaitForShutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	return nil
}
