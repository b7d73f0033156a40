package events

import "time"

// EventStorage defines the interface for event storage operations.
type EventStorage interface {
	// StoreEvent stores a single event
	StoreEvent(event Event) error

	// StoreEventsBatch stores multiple events in a batch operation
	StoreEventsBatch(events []Event) error

	// GetEvent retrieves a single event by ID
	GetEvent(id string) (Event, error)

	// ListEvents returns one page of events matching the provided filters
	ListEvents(filters EventFilters) (*EventPage, error)

	// UpdateStatus marks an event read or unread
	UpdateStatus(id string, status Status) (Event, error)

	// DeleteEvent deletes a specific event by ID
	DeleteEvent(id string) error

	// CountByStatus returns read/unread totals
	CountByStatus() (StatusCounts, error)

	// CleanupOldEvents removes events last updated before the specified time
	CleanupOldEvents(before time.Time) error
}

// Ensure *Storage implements EventStorage interface
var _ EventStorage = (*Storage)(nil)
