package server

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/garunski/conductor-console/pkg/console/config"
	"github.com/garunski/conductor-console/pkg/console/connections"
	"github.com/garunski/conductor-console/pkg/console/database"
	"github.com/garunski/conductor-console/pkg/console/events"
	"github.com/garunski/conductor-console/pkg/console/metrics"
)

// StorageComponents holds all storage-related components
type StorageComponents struct {
	DB          *database.DB
	EventStore  events.EventStorage
	Connections *connections.Storage
}

// NewStorageComponents opens the database and builds the event and
// connection stores on top of it. Stored events are counted by m.
func NewStorageComponents(cfg *config.Config, logger logr.Logger, m *metrics.Metrics) (*StorageComponents, error) {
	logger.Info("Opening BadgerDB", "path", cfg.DataPath)
	db, err := database.NewDB(cfg.DataPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}
	return newStorageComponents(db, logger, m)
}

func newStorageComponents(db *database.DB, logger logr.Logger, m *metrics.Metrics) (*StorageComponents, error) {
	connStore, err := connections.NewStorage(db, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to load connections: %w", err)
	}
	total := 0
	for _, n := range connStore.CountByStatus() {
		total += n
	}
	logger.Info("Connection storage initialized", "count", total)

	var eventStore events.EventStorage = events.NewStorage(db, logger)
	if m != nil {
		eventStore = m.InstrumentEventStorage(eventStore)
	}
	logger.Info("Event storage initialized")

	return &StorageComponents{
		DB:          db,
		EventStore:  eventStore,
		Connections: connStore,
	}, nil
}
