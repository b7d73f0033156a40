package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-logr/logr"

	"github.com/garunski/conductor-console/pkg/console/connections"
	apperrors "github.com/garunski/conductor-console/pkg/console/errors"
	"github.com/garunski/conductor-console/pkg/console/events"
	"github.com/garunski/conductor-console/pkg/console/kube"
	"github.com/garunski/conductor-console/pkg/console/metrics"
)

// ConnectionService is the connection store plus kubeconfig discovery.
type ConnectionService interface {
	connections.ConnectionStore
	DiscoverKubernetes(path string) ([]connections.Connection, error)
}

// KubeChecker runs actions against a Kubernetes connection.
type KubeChecker interface {
	Ping(ctx context.Context, conn connections.Connection) (*kube.PingResult, error)
	OperatorStatus(ctx context.Context, conn connections.Connection) (*kube.OperatorStatus, error)
	SetOperator(ctx context.Context, conn connections.Connection, enabled bool) error
	FlushMeshSync(ctx context.Context, conn connections.Connection) (int, error)
}

// DatabaseChecker is the slice of the database used by readiness checks.
type DatabaseChecker interface {
	Count(prefix string) (int, error)
}

type Handler struct {
	logger      logr.Logger
	version     string
	eventStore  events.EventStorage
	connections ConnectionService
	checker     KubeChecker
	metrics     *metrics.Metrics
	db          DatabaseChecker
	kubeconfig  string
}

type HandlerOption func(*Handler)

func WithKubeChecker(checker KubeChecker) HandlerOption {
	return func(h *Handler) {
		h.checker = checker
	}
}

func WithMetrics(m *metrics.Metrics) HandlerOption {
	return func(h *Handler) {
		h.metrics = m
	}
}

func WithDatabase(db DatabaseChecker) HandlerOption {
	return func(h *Handler) {
		h.db = db
	}
}

// WithKubeconfig sets the kubeconfig scanned when a discovery request does
// not name one.
func WithKubeconfig(path string) HandlerOption {
	return func(h *Handler) {
		h.kubeconfig = path
	}
}

func NewHandler(eventStore events.EventStorage, connStore ConnectionService, logger logr.Logger, version string, opts ...HandlerOption) *Handler {
	h := &Handler{
		logger:      logger,
		version:     version,
		eventStore:  eventStore,
		connections: connStore,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) parseJSONRequest(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil {
		if syntaxErr, ok := err.(*json.SyntaxError); ok {
			return fmt.Errorf("%w: invalid request body: JSON syntax error at position %d: %w", apperrors.ErrInvalidRequest, syntaxErr.Offset, syntaxErr)
		}
		if unmarshalTypeErr, ok := err.(*json.UnmarshalTypeError); ok {
			return fmt.Errorf("%w: invalid request body: JSON type error for field %s: expected %s, got %s", apperrors.ErrInvalidRequest, unmarshalTypeErr.Field, unmarshalTypeErr.Type, unmarshalTypeErr.Value)
		}
		return fmt.Errorf("%w: invalid request body: %w", apperrors.ErrInvalidRequest, err)
	}
	return nil
}

func (h *Handler) recordEvent(event events.Event) {
	events.StoreEventSafe(h.eventStore, h.logger, event)
}
