package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes"
	kubefake "k8s.io/client-go/kubernetes/fake"

	"github.com/garunski/conductor-console/pkg/console/connections"
	"github.com/garunski/conductor-console/pkg/console/database"
	"github.com/garunski/conductor-console/pkg/console/events"
	"github.com/garunski/conductor-console/pkg/console/kube"
	"github.com/garunski/conductor-console/pkg/console/metrics"
)

type testEnv struct {
	handler     *Handler
	router      http.Handler
	db          *database.DB
	eventStore  *events.Storage
	connections *connections.Storage
	clientset   *kubefake.Clientset
	metrics     *metrics.Metrics
}

type testHandlerConfig struct {
	noEventStore bool
	noChecker    bool
	kubeconfig   string
	objects      []runtime.Object
}

type testHandlerOption func(*testHandlerConfig)

func WithNilEventStore() testHandlerOption {
	return func(cfg *testHandlerConfig) {
		cfg.noEventStore = true
	}
}

func WithNilChecker() testHandlerOption {
	return func(cfg *testHandlerConfig) {
		cfg.noChecker = true
	}
}

func WithTestKubeconfig(path string) testHandlerOption {
	return func(cfg *testHandlerConfig) {
		cfg.kubeconfig = path
	}
}

func WithClusterObjects(objects ...runtime.Object) testHandlerOption {
	return func(cfg *testHandlerConfig) {
		cfg.objects = append(cfg.objects, objects...)
	}
}

func newTestEnv(t *testing.T, opts ...testHandlerOption) *testEnv {
	t.Helper()
	cfg := testHandlerConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	logger := logr.Discard()
	db, err := database.NewTestDB(t)
	if err != nil {
		t.Fatalf("NewTestDB() error = %v", err)
	}
	connStore, err := connections.NewStorage(db, logger)
	if err != nil {
		t.Fatalf("connections.NewStorage() error = %v", err)
	}

	env := &testEnv{
		db:          db,
		eventStore:  events.NewStorage(db, logger),
		connections: connStore,
		clientset:   kubefake.NewSimpleClientset(cfg.objects...),
		metrics:     metrics.New(),
	}

	handlerOpts := []HandlerOption{
		WithDatabase(db),
		WithMetrics(env.metrics),
		WithKubeconfig(cfg.kubeconfig),
	}
	if !cfg.noChecker {
		factory := func(connections.Connection) (kubernetes.Interface, error) {
			return env.clientset, nil
		}
		handlerOpts = append(handlerOpts, WithKubeChecker(kube.NewChecker(factory, "", logger, env.eventStore)))
	}

	var eventStore events.EventStorage = env.eventStore
	if cfg.noEventStore {
		eventStore = nil
	}
	env.handler = NewHandler(eventStore, connStore, logger, "test-version", handlerOpts...)
	env.router = env.handler.SetupRoutes()
	return env
}

func (e *testEnv) do(t *testing.T, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			if err := json.NewEncoder(&buf).Encode(b); err != nil {
				t.Fatalf("failed to encode request body: %v", err)
			}
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("response is not valid JSON: %v\n%s", err, w.Body.String())
	}
}

func (e *testEnv) saveConnection(t *testing.T, c connections.Connection) connections.Connection {
	t.Helper()
	saved, err := e.connections.Save(c)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	return saved
}

func newRecorderFor(h *Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.SetupRoutes().ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}
