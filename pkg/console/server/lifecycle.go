package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/garunski/conductor-console/pkg/console/events"
)

func (s *Server) Start(ctx context.Context) error {
	if s.config.Kubeconfig != "" {
		s.discover()
	}
	s.refreshConnectionGauge()

	go s.startMaintenance(ctx)

	go func() {
		s.logger.Info("Starting HTTP server", "port", s.config.Port)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error(err, "HTTP server error")
		}
	}()

	return nil
}

func (s *Server) WaitForShutdown(ctx context.Context) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-sigChan:
		s.logger.Info("Shutting down...")
		return s.Shutdown(context.Background())
	case <-ctx.Done():
		s.logger.Info("Shutting down due to context cancellation...")
		return s.Shutdown(context.Background())
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, DefaultShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info("Shutdown complete")
	return nil
}

// discover registers the contexts of the configured kubeconfig.
func (s *Server) discover() {
	found, err := s.connections.DiscoverKubernetes(s.config.Kubeconfig)
	if err != nil {
		s.logger.Error(err, "failed to discover Kubernetes contexts", "kubeconfig", s.config.Kubeconfig)
		events.StoreEventSafe(s.eventStore, s.logger, events.Error("kubernetes/discovery", "discover", "Kubernetes discovery failed", err))
		return
	}
	s.logger.Info("Discovered Kubernetes contexts", "count", len(found))
	events.StoreEventSafe(s.eventStore, s.logger, events.Success("kubernetes/discovery", "discover", fmt.Sprintf("Discovered %d Kubernetes context(s)", len(found))))
}

// startMaintenance removes expired events and refreshes the connection gauge
// on every tick. A retention of zero keeps events forever.
func (s *Server) startMaintenance(ctx context.Context) {
	ticker := time.NewTicker(s.config.EventCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanupEvents(time.Now())
			s.refreshConnectionGauge()
		}
	}
}

func (s *Server) cleanupEvents(now time.Time) {
	if s.config.EventRetentionDays <= 0 {
		return
	}
	before := now.AddDate(0, 0, -s.config.EventRetentionDays)
	if err := s.eventStore.CleanupOldEvents(before); err != nil {
		s.logger.Error(err, "failed to cleanup old events")
	}
}

func (s *Server) refreshConnectionGauge() {
	if s.metrics == nil || s.connections == nil {
		return
	}
	s.metrics.SetConnectionCounts(s.connections.CountByStatus())
}
