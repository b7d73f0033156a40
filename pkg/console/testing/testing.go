package testing

import (
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"k8s.io/client-go/kubernetes"

	"github.com/garunski/conductor-console/pkg/console/connections"
	"github.com/garunski/conductor-console/pkg/console/database"
	"github.com/garunski/conductor-console/pkg/console/events"
	"github.com/garunski/conductor-console/pkg/console/kube"
)

// NewTestLogger creates a test logger
func NewTestLogger() logr.Logger {
	zapLog, _ := zap.NewDevelopment()
	return zapr.NewLogger(zapLog)
}

// NewTestDB creates an in-memory test database
func NewTestDB(t testing.TB) *database.DB {
	t.Helper()
	db, err := database.NewTestDB(t)
	if err != nil {
		t.Fatalf("failed to create test DB: %v", err)
	}
	return db
}

// NewTestEventStore creates a test event store on db
func NewTestEventStore(db *database.DB) *events.Storage {
	return events.NewStorage(db, logr.Discard())
}

// NewTestConnectionStore creates a test connection store on db
func NewTestConnectionStore(t testing.TB, db *database.DB) *connections.Storage {
	t.Helper()
	store, err := connections.NewStorage(db, logr.Discard())
	if err != nil {
		t.Fatalf("failed to create connection store: %v", err)
	}
	return store
}

// NewTestKubeChecker returns a checker that hands out clientset for every
// connection.
func NewTestKubeChecker(clientset kubernetes.Interface, eventStore events.EventStorage) *kube.Checker {
	return kube.NewChecker(func(connections.Connection) (kubernetes.Interface, error) {
		return clientset, nil
	}, "", logr.Discard(), eventStore)
}
