package metrics

import "github.com/garunski/conductor-console/pkg/console/events"

type instrumentedEventStorage struct {
	events.EventStorage
	metrics *Metrics
}

// InstrumentEventStorage counts every event successfully stored through s.
func (m *Metrics) InstrumentEventStorage(s events.EventStorage) events.EventStorage {
	return &instrumentedEventStorage{EventStorage: s, metrics: m}
}

func (s *instrumentedEventStorage) StoreEvent(event events.Event) error {
	if err := s.EventStorage.StoreEvent(event); err != nil {
		return err
	}
	s.metrics.ObserveEvent(event.Severity)
	return nil
}

func (s *instrumentedEventStorage) StoreEventsBatch(batch []events.Event) error {
	if err := s.EventStorage.StoreEventsBatch(batch); err != nil {
		return err
	}
	for _, event := range batch {
		s.metrics.ObserveEvent(event.Severity)
	}
	return nil
}
