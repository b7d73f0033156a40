package server

import (
	"fmt"
	"net/http"

	"github.com/go-logr/logr"

	"github.com/garunski/conductor-console/pkg/console/api"
	"github.com/garunski/conductor-console/pkg/console/config"
	"github.com/garunski/conductor-console/pkg/console/connections"
	"github.com/garunski/conductor-console/pkg/console/database"
	"github.com/garunski/conductor-console/pkg/console/events"
	"github.com/garunski/conductor-console/pkg/console/kube"
	"github.com/garunski/conductor-console/pkg/console/metrics"
)

type Server struct {
	config      *config.Config
	logger      logr.Logger
	db          *database.DB
	eventStore  events.EventStorage
	connections *connections.Storage
	checker     *kube.Checker
	metrics     *metrics.Metrics
	handler     *api.Handler
	httpServer  *http.Server
}

// NewServer creates a new server instance. Kubernetes support is optional:
// without any cluster configuration the API still serves and the Kubernetes
// routes answer with an error.
func NewServer(cfg *config.Config, logger logr.Logger) (*Server, error) {
	m := metrics.New()

	storage, err := NewStorageComponents(cfg, logger, m)
	if err != nil {
		return nil, err
	}
	return newServer(cfg, logger, m, storage), nil
}

func newServer(cfg *config.Config, logger logr.Logger, m *metrics.Metrics, storage *StorageComponents) *Server {
	s := &Server{
		config:      cfg,
		logger:      logger,
		db:          storage.DB,
		eventStore:  storage.EventStore,
		connections: storage.Connections,
		metrics:     m,
	}

	opts := []api.HandlerOption{
		api.WithDatabase(storage.DB),
		api.WithMetrics(m),
		api.WithKubeconfig(cfg.Kubeconfig),
	}
	checker, err := NewKubeChecker(cfg, logger, storage.EventStore)
	if err != nil {
		logger.Info("Kubernetes not available, cluster actions disabled", "error", err)
	} else {
		s.checker = checker
		opts = append(opts, api.WithKubeChecker(checker))
	}

	s.handler = api.NewHandler(storage.EventStore, storage.Connections, logger, cfg.AppVersion, opts...)
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           s.handler.SetupRoutes(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       cfg.RequestTimeout,
	}
	return s
}

// Handler returns the routed API handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) KubernetesEnabled() bool {
	return s.checker != nil
}

func (s *Server) Close() error {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}
	return nil
}
