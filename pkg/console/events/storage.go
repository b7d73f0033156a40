package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/garunski/conductor-console/pkg/console/database"
	apperrors "github.com/garunski/conductor-console/pkg/console/errors"
)

type Storage struct {
	db     *database.DB
	logger logr.Logger
	ids    *idSource
	now    func() time.Time
}

func NewStorage(db *database.DB, logger logr.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
		ids:    newIDSource(),
		now:    time.Now,
	}
}

// stamp returns the current time in UTC truncated to the second, so the
// RFC3339 form of every stored timestamp has the same width and sorts
// lexicographically.
func (s *Storage) stamp() time.Time {
	return s.now().UTC().Truncate(time.Second)
}

func (s *Storage) prepare(event *Event) {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = s.stamp()
	} else {
		event.CreatedAt = event.CreatedAt.UTC().Truncate(time.Second)
	}
	if event.UpdatedAt.IsZero() {
		event.UpdatedAt = event.CreatedAt
	} else {
		event.UpdatedAt = event.UpdatedAt.UTC().Truncate(time.Second)
	}
	if event.ID == "" {
		event.ID = s.ids.New(event.CreatedAt)
	}
	event.Severity = NormalizeSeverity(event.Severity)
	event.Status = NormalizeStatus(event.Status)
}

func (s *Storage) StoreEvent(event Event) error {
	s.prepare(&event)

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := s.db.Set(eventKey(event.ID), data); err != nil {
		return apperrors.WrapStorage(err, "failed to store event")
	}

	return nil
}

func (s *Storage) StoreEventsBatch(events []Event) error {
	if len(events) == 0 {
		return nil
	}

	batchItems := make(map[string][]byte, len(events))

	for _, event := range events {
		s.prepare(&event)

		data, err := json.Marshal(event)
		if err != nil {
			s.logger.Error(err, "failed to marshal event in batch", "eventID", event.ID)
			continue
		}

		batchItems[eventKey(event.ID)] = data
	}

	if err := s.db.BatchSet(batchItems); err != nil {
		return apperrors.WrapStorage(err, "failed to store events batch")
	}

	return nil
}

func (s *Storage) GetEvent(id string) (Event, error) {
	data, err := s.db.Get(eventKey(id))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return Event{}, fmt.Errorf("%w: event %s", apperrors.ErrNotFound, id)
		}
		return Event{}, err
	}

	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return Event{}, apperrors.WrapStorage(err, "failed to unmarshal event "+id)
	}
	return event, nil
}

func (s *Storage) loadAll() ([]Event, error) {
	allItems, err := s.db.List(keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	events := make([]Event, 0, len(allItems))
	for key, data := range allItems {
		var event Event
		if err := json.Unmarshal(data, &event); err != nil {
			s.logger.Error(err, "failed to unmarshal event", "key", key)
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

func (f EventFilters) matches(event Event) bool {
	if len(f.Severities) > 0 {
		found := false
		for _, severity := range f.Severities {
			if event.Severity == severity {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Status != "" && event.Status != f.Status {
		return false
	}
	if f.Category != "" && event.Category != f.Category {
		return false
	}
	if f.ResourceKey != "" && event.ResourceKey != f.ResourceKey {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(event.Description), needle) &&
			!strings.Contains(strings.ToLower(event.Action), needle) {
			return false
		}
	}
	if !f.Since.IsZero() && event.UpdatedAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && event.UpdatedAt.After(f.Until) {
		return false
	}
	return true
}

func (s *Storage) ListEvents(filters EventFilters) (*EventPage, error) {
	all, err := s.loadAll()
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(all))
	for _, event := range all {
		if filters.matches(event) {
			events = append(events, event)
		}
	}

	sort.Slice(events, func(i, j int) bool {
		if !events[i].UpdatedAt.Equal(events[j].UpdatedAt) {
			return events[i].UpdatedAt.After(events[j].UpdatedAt)
		}
		return events[i].ID > events[j].ID
	})

	page := filters.Page
	if page < 1 {
		page = 1
	}
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	result := &EventPage{
		Events:     []Event{},
		Page:       page,
		PageSize:   pageSize,
		TotalCount: len(events),
	}

	if page-1 > len(events)/pageSize {
		return result, nil
	}
	offset := (page - 1) * pageSize
	if offset >= len(events) {
		return result, nil
	}
	end := offset + pageSize
	if end > len(events) {
		end = len(events)
	}
	result.Events = events[offset:end]

	return result, nil
}

func (s *Storage) UpdateStatus(id string, status Status) (Event, error) {
	if !status.Valid() {
		return Event{}, fmt.Errorf("%w: unknown event status %q", apperrors.ErrInvalid, status)
	}

	event, err := s.GetEvent(id)
	if err != nil {
		return Event{}, err
	}

	event.Status = status
	event.UpdatedAt = s.stamp()

	data, err := json.Marshal(event)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := s.db.Set(eventKey(id), data); err != nil {
		return Event{}, apperrors.WrapStorage(err, "failed to update event status")
	}
	return event, nil
}

func (s *Storage) DeleteEvent(id string) error {
	if _, err := s.db.Get(eventKey(id)); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("%w: event %s", apperrors.ErrNotFound, id)
		}
		return err
	}
	return s.db.Delete(eventKey(id))
}

func (s *Storage) CountByStatus() (StatusCounts, error) {
	all, err := s.loadAll()
	if err != nil {
		return StatusCounts{}, err
	}

	var counts StatusCounts
	for _, event := range all {
		switch event.Status {
		case StatusRead:
			counts.Read++
		default:
			counts.Unread++
		}
	}
	counts.Total = len(all)
	return counts, nil
}
