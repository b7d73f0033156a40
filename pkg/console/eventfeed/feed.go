package eventfeed

import (
	"slices"
	"sync"

	"dario.cat/mergo"
	"github.com/go-logr/logr"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/garunski/conductor-console/pkg/console/events"
)

// Feed is a normalized, recency-ordered cache of event records plus the view
// cursor used to page through them. All mutations are serialized.
type Feed struct {
	mu       sync.Mutex
	logger   logr.Logger
	records  map[string]Record
	order    []string
	view     View
	initial  View
	collator *collate.Collator

	// generation moves when the collection is replaced by a view reset or
	// an applied first page. Loads and rollbacks begun under an older
	// generation are dropped.
	generation uint64
	// reloads numbers first-page loads so only the latest one applies.
	reloads uint64
	loads      singleflight.Group
}

func New(logger logr.Logger) *Feed {
	return NewWithPageSize(logger, DefaultPageSize)
}

// NewWithPageSize returns a feed whose initial view requests pageSize records per page.
func NewWithPageSize(logger logr.Logger, pageSize int) *Feed {
	initial := InitialView()
	if pageSize > 0 {
		initial.PageSize = pageSize
	}
	return &Feed{
		logger:   logger,
		records:  make(map[string]Record),
		view:     initial.clone(),
		initial:  initial,
		collator: collate.New(language.Und),
	}
}

// SetEvents replaces the whole collection. An empty list means there is
// nothing more to page through.
func (f *Feed) SetEvents(records []Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setEventsLocked(records)
}

// PushEvents merges records into the collection without removing anything.
func (f *Feed) PushEvents(records []Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushEventsLocked(records)
}

func (f *Feed) setEventsLocked(records []Record) {
	f.records = make(map[string]Record, len(records))
	f.order = nil
	f.upsertLocked(records)
	if len(records) == 0 {
		f.view.HasMore = false
	}
}

func (f *Feed) pushEventsLocked(records []Record) {
	f.upsertLocked(records)
	if len(records) == 0 {
		f.view.HasMore = false
	}
}

// PushEvent inserts a single live event, filling in a blank severity or status.
func (f *Feed) PushEvent(record Record) {
	record.Severity = events.NormalizeSeverity(record.Severity)
	record.Status = events.NormalizeStatus(record.Status)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.upsertLocked([]Record{record})
}

// UpdateEvent merges the non-zero fields of changes into the record with the
// given id. It reports whether the record was present.
func (f *Feed) UpdateEvent(id string, changes Record) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updateLocked(id, changes)
}

func (f *Feed) updateLocked(id string, changes Record) bool {
	current, ok := f.records[id]
	if !ok {
		return false
	}

	changes.ID = ""
	if current.Metadata != nil {
		current.Metadata = cloneMetadata(current.Metadata)
	}
	if changes.Metadata != nil {
		changes.Metadata = cloneMetadata(changes.Metadata)
	}
	if err := mergo.Merge(&current, changes, mergo.WithOverride); err != nil {
		f.logger.Error(err, "failed to merge event changes", "id", id)
		return false
	}
	current.ID = id
	f.records[id] = current
	f.sortLocked()
	return true
}

// DeleteEvent removes the record with the given id and reports whether it existed.
func (f *Feed) DeleteEvent(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deleteLocked(id)
}

func (f *Feed) deleteLocked(id string) bool {
	if _, ok := f.records[id]; !ok {
		return false
	}
	delete(f.records, id)
	f.order = slices.DeleteFunc(f.order, func(existing string) bool { return existing == id })
	return true
}

// ClearEvents empties the collection and leaves the view as it is.
func (f *Feed) ClearEvents() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = make(map[string]Record)
	f.order = nil
}

// ClearCurrentView resets the view to InitialView and empties the collection.
func (f *Feed) ClearCurrentView() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.view = f.initial.clone()
	f.records = make(map[string]Record)
	f.order = nil
	f.generation++
}

func (f *Feed) SetCurrentView(view View) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.view = view.clone()
	f.generation++
}

func (f *Feed) CurrentView() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.view.clone()
}

// Events returns every record, most recently updated first.
func (f *Feed) Events() []Record {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Record, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.records[id])
	}
	return out
}

func (f *Feed) EventByID(id string) (Record, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[id]
	return record, ok
}

func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

func (f *Feed) upsertLocked(records []Record) {
	changed := false
	for _, record := range records {
		if record.ID == "" {
			f.logger.V(1).Info("dropping event without id", "description", record.Description)
			continue
		}
		if _, exists := f.records[record.ID]; !exists {
			f.order = append(f.order, record.ID)
		}
		f.records[record.ID] = record
		changed = true
	}
	if changed {
		f.sortLocked()
	}
}

// sortLocked orders records with an updated_at value newest first. Records
// without one have no defined order and stay in the slot they occupy.
func (f *Feed) sortLocked() {
	slots := make([]int, 0, len(f.order))
	dated := make([]string, 0, len(f.order))
	for i, id := range f.order {
		if f.records[id].UpdatedAt != "" {
			slots = append(slots, i)
			dated = append(dated, id)
		}
	}

	slices.SortStableFunc(dated, func(a, b string) int {
		return f.collator.CompareString(f.records[b].UpdatedAt, f.records[a].UpdatedAt)
	})

	for i, slot := range slots {
		f.order[slot] = dated[i]
	}
}

func cloneMetadata(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
