package events

import (
	"encoding/json"
	"time"

	apperrors "github.com/garunski/conductor-console/pkg/console/errors"
)

// CleanupOldEvents deletes every event last updated before the cutoff.
// Undecodable entries go too. Keys are removed DefaultBatchSize at a time; a
// failed batch falls back to single deletes.
func (s *Storage) CleanupOldEvents(before time.Time) error {
	var expired []string
	err := s.db.Iterate(keyPrefix, false, func(key string, data []byte) error {
		var event Event
		if err := json.Unmarshal(data, &event); err != nil || event.UpdatedAt.Before(before) {
			expired = append(expired, key)
		}
		return nil
	})
	if err != nil {
		return apperrors.WrapStorage(err, "failed to scan events for cleanup")
	}

	deleted := 0
	for start := 0; start < len(expired); start += DefaultBatchSize {
		batch := expired[start:min(start+DefaultBatchSize, len(expired))]
		err := s.db.BatchDelete(batch)
		if err == nil {
			deleted += len(batch)
			continue
		}
		s.logger.Error(err, "failed to batch delete events", "count", len(batch))
		for _, key := range batch {
			if err := s.db.Delete(key); err != nil {
				s.logger.Error(err, "failed to delete event", "key", key)
				continue
			}
			deleted++
		}
	}

	s.logger.Info("Cleaned up old events", "deleted", deleted, "expired", len(expired), "before", before)
	return nil
}
