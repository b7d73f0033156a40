package events

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/go-logr/logr"

	"github.com/garunski/conductor-console/pkg/console/database"
	apperrors "github.com/garunski/conductor-console/pkg/console/errors"
)

func setupTestEventDB(t *testing.T) (*database.DB, *Storage) {
	db, err := database.NewTestDB(t)
	if err != nil {
		t.Fatalf("failed to create test DB: %v", err)
	}
	storage := NewStorage(db, logr.Discard())
	return db, storage
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestStorage_StoreEvent_Defaults(t *testing.T) {
	_, storage := setupTestEventDB(t)

	if err := storage.StoreEvent(Event{Description: "cluster registered"}); err != nil {
		t.Fatalf("StoreEvent() error = %v", err)
	}

	page, err := storage.ListEvents(EventFilters{})
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(page.Events) != 1 {
		t.Fatalf("ListEvents() returned %d events, want 1", len(page.Events))
	}

	event := page.Events[0]
	if event.ID == "" {
		t.Error("StoreEvent() should assign an ID")
	}
	if event.Severity != SeverityInfo {
		t.Errorf("Severity = %v, want %v", event.Severity, SeverityInfo)
	}
	if event.Status != StatusUnread {
		t.Errorf("Status = %v, want %v", event.Status, StatusUnread)
	}
	if event.CreatedAt.IsZero() || !event.UpdatedAt.Equal(event.CreatedAt) {
		t.Errorf("timestamps not stamped: created=%v updated=%v", event.CreatedAt, event.UpdatedAt)
	}
	if event.UpdatedAt.Nanosecond() != 0 {
		t.Errorf("UpdatedAt should be truncated to the second, got %v", event.UpdatedAt)
	}
}

func TestStorage_StoreEvent_TrimsBlankSeverity(t *testing.T) {
	_, storage := setupTestEventDB(t)

	if err := storage.StoreEvent(Event{Severity: "  ", Status: " ", Description: "x"}); err != nil {
		t.Fatalf("StoreEvent() error = %v", err)
	}
	page, _ := storage.ListEvents(EventFilters{})
	if page.Events[0].Severity != DefaultSeverity || page.Events[0].Status != DefaultStatus {
		t.Errorf("blank values not defaulted: %+v", page.Events[0])
	}
}

func TestStorage_ListEvents_OrderAndPaging(t *testing.T) {
	_, storage := setupTestEventDB(t)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		event := Info("k8s/dev", "ping", "event")
		event.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := storage.StoreEvent(event); err != nil {
			t.Fatalf("StoreEvent() error = %v", err)
		}
	}

	first, err := storage.ListEvents(EventFilters{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if first.TotalCount != 25 {
		t.Errorf("TotalCount = %d, want 25", first.TotalCount)
	}
	if len(first.Events) != 10 {
		t.Fatalf("page 1 len = %d, want 10", len(first.Events))
	}
	if !first.Events[0].UpdatedAt.Equal(base.Add(24 * time.Minute)) {
		t.Errorf("newest event should come first, got %v", first.Events[0].UpdatedAt)
	}
	for i := 1; i < len(first.Events); i++ {
		if first.Events[i].UpdatedAt.After(first.Events[i-1].UpdatedAt) {
			t.Fatalf("events not sorted descending at %d", i)
		}
	}

	third, err := storage.ListEvents(EventFilters{Page: 3, PageSize: 10})
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(third.Events) != 5 {
		t.Errorf("page 3 len = %d, want 5", len(third.Events))
	}

	beyond, err := storage.ListEvents(EventFilters{Page: 9, PageSize: 10})
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(beyond.Events) != 0 {
		t.Errorf("page past the end len = %d, want 0", len(beyond.Events))
	}
	if beyond.Events == nil {
		t.Error("page past the end should encode as an empty list, not null")
	}
}

func TestStorage_ListEvents_Filters(t *testing.T) {
	_, storage := setupTestEventDB(t)

	fixtures := []Event{
		Error("k8s/prod", "ping", "Kubernetes ping failed", errors.New("timeout")),
		Warning("k8s/prod", "operator", "Operator disabled"),
		Info("k8s/dev", "discover", "Discovered context kind-dev"),
	}
	fixtures[2].Category = "connection"
	if err := storage.StoreEventsBatch(fixtures); err != nil {
		t.Fatalf("StoreEventsBatch() error = %v", err)
	}

	tests := []struct {
		name    string
		filters EventFilters
		want    int
	}{
		{"no filters", EventFilters{}, 3},
		{"severity", EventFilters{Severities: []Severity{SeverityError}}, 1},
		{"multiple severities", EventFilters{Severities: []Severity{SeverityError, SeverityWarning}}, 2},
		{"resource", EventFilters{ResourceKey: "k8s/prod"}, 2},
		{"category", EventFilters{Category: "connection"}, 1},
		{"search description", EventFilters{Search: "PING"}, 1},
		{"search action", EventFilters{Search: "operator"}, 1},
		{"status", EventFilters{Status: StatusRead}, 0},
		{"until past", EventFilters{Until: time.Now().Add(-48 * time.Hour)}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := storage.ListEvents(tt.filters)
			if err != nil {
				t.Fatalf("ListEvents() error = %v", err)
			}
			if page.TotalCount != tt.want {
				t.Errorf("TotalCount = %d, want %d", page.TotalCount, tt.want)
			}
		})
	}
}

func TestStorage_UpdateStatus(t *testing.T) {
	_, storage := setupTestEventDB(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	storage.now = fixedClock(created)

	if err := storage.StoreEvent(Info("k8s/dev", "ping", "ok")); err != nil {
		t.Fatalf("StoreEvent() error = %v", err)
	}
	page, _ := storage.ListEvents(EventFilters{})
	id := page.Events[0].ID

	storage.now = fixedClock(created.Add(time.Hour))
	updated, err := storage.UpdateStatus(id, StatusRead)
	if err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if updated.Status != StatusRead {
		t.Errorf("Status = %v, want read", updated.Status)
	}
	if !updated.UpdatedAt.Equal(created.Add(time.Hour)) {
		t.Errorf("UpdatedAt = %v, want bumped", updated.UpdatedAt)
	}

	stored, err := storage.GetEvent(id)
	if err != nil {
		t.Fatalf("GetEvent() error = %v", err)
	}
	if stored.Status != StatusRead {
		t.Errorf("stored Status = %v, want read", stored.Status)
	}
}

func TestStorage_UpdateStatus_Errors(t *testing.T) {
	_, storage := setupTestEventDB(t)

	if _, err := storage.UpdateStatus("missing", StatusRead); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("UpdateStatus(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := storage.UpdateStatus("any", Status("archived")); !errors.Is(err, apperrors.ErrInvalid) {
		t.Errorf("UpdateStatus(bad status) error = %v, want ErrInvalid", err)
	}
}

func TestStorage_DeleteEvent(t *testing.T) {
	_, storage := setupTestEventDB(t)

	if err := storage.StoreEvent(Info("k8s/dev", "ping", "ok")); err != nil {
		t.Fatalf("StoreEvent() error = %v", err)
	}
	page, _ := storage.ListEvents(EventFilters{})
	id := page.Events[0].ID

	if err := storage.DeleteEvent(id); err != nil {
		t.Fatalf("DeleteEvent() error = %v", err)
	}
	if _, err := storage.GetEvent(id); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("GetEvent() after delete error = %v, want ErrNotFound", err)
	}
	if err := storage.DeleteEvent(id); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("second DeleteEvent() error = %v, want ErrNotFound", err)
	}
}

func TestStorage_CountByStatus(t *testing.T) {
	_, storage := setupTestEventDB(t)

	read := Info("a", "b", "c")
	read.Status = StatusRead
	if err := storage.StoreEventsBatch([]Event{read, Info("a", "b", "c"), Info("a", "b", "c")}); err != nil {
		t.Fatalf("StoreEventsBatch() error = %v", err)
	}

	counts, err := storage.CountByStatus()
	if err != nil {
		t.Fatalf("CountByStatus() error = %v", err)
	}
	if counts.Read != 1 || counts.Unread != 2 || counts.Total != 3 {
		t.Errorf("CountByStatus() = %+v, want read=1 unread=2 total=3", counts)
	}
}

func TestStorage_CleanupOldEvents(t *testing.T) {
	db, storage := setupTestEventDB(t)

	now := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	old := Info("a", "b", "old")
	old.CreatedAt = now.AddDate(0, 0, -30)
	recent := Info("a", "b", "recent")
	recent.CreatedAt = now.AddDate(0, 0, -1)
	if err := storage.StoreEventsBatch([]Event{old, recent}); err != nil {
		t.Fatalf("StoreEventsBatch() error = %v", err)
	}
	if err := db.Set(keyPrefix+"corrupt", []byte("{not json")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if err := storage.CleanupOldEvents(now.AddDate(0, 0, -7)); err != nil {
		t.Fatalf("CleanupOldEvents() error = %v", err)
	}

	count, err := db.Count(keyPrefix)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("remaining events = %d, want 1", count)
	}
	page, _ := storage.ListEvents(EventFilters{})
	if page.Events[0].Description != "recent" {
		t.Errorf("remaining event = %q, want recent", page.Events[0].Description)
	}
}

func TestStorage_ClosedDB(t *testing.T) {
	db, storage := setupTestEventDB(t)
	db.Close()

	if err := storage.StoreEvent(Info("a", "b", "c")); !errors.Is(err, apperrors.ErrStorage) {
		t.Errorf("StoreEvent() on closed DB error = %v, want ErrStorage", err)
	}
}

func TestStorage_ListEvents_PageBeyondEnd(t *testing.T) {
	_, storage := setupTestEventDB(t)
	for i := 0; i < 5; i++ {
		if err := storage.StoreEvent(Info("k8s/dev", "ping", "event")); err != nil {
			t.Fatalf("StoreEvent() error = %v", err)
		}
	}

	for _, page := range []int{2, math.MaxInt/100 + 2, math.MaxInt} {
		got, err := storage.ListEvents(EventFilters{Page: page, PageSize: 100})
		if err != nil {
			t.Fatalf("ListEvents(page=%d) error = %v", page, err)
		}
		if len(got.Events) != 0 || got.TotalCount != 5 || got.Page != page {
			t.Errorf("ListEvents(page=%d) = %d events, total %d, page %d", page, len(got.Events), got.TotalCount, got.Page)
		}
	}
}
