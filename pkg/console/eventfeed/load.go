package eventfeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/garunski/conductor-console/pkg/console/events"
)

// ErrStaleLoad is returned when a page arrives after the view it was
// requested for has been reset.
var ErrStaleLoad = errors.New("stale event page")

// LoadPage fetches one page and applies it. Page 1 (or lower) replaces the
// collection; later pages are merged. The view records the page and filters
// only after a successful fetch, so a failed page can be retried and leaves
// other loads in flight untouched. Of several concurrent first-page loads
// only the most recently started one is applied.
func (f *Feed) LoadPage(ctx context.Context, fetcher Fetcher, page int, filters Filters) error {
	f.mu.Lock()
	generation := f.generation
	var reload uint64
	if page <= 1 {
		f.reloads++
		reload = f.reloads
	}
	f.mu.Unlock()

	result, err := f.fetch(ctx, fetcher, generation, page, filters)
	if err != nil {
		f.logger.Error(err, "failed to load events", "page", page)
		return fmt.Errorf("load events page %d: %w", page, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if generation != f.generation || (page <= 1 && reload != f.reloads) {
		f.logger.V(1).Info("discarding stale event page", "page", page)
		return fmt.Errorf("%w: page %d", ErrStaleLoad, page)
	}

	var records []Record
	if result != nil {
		records = result.Events
	}

	// a late page never moves the cursor backwards for the same filters
	if page <= 1 || page > f.view.Page || !reflect.DeepEqual(f.view.Filters, filters) {
		f.view.Page = page
	}
	f.view.Filters = filters.clone()

	if page <= 1 {
		f.generation++
		f.setEventsLocked(records)
		return nil
	}
	f.pushEventsLocked(records)
	return nil
}

// LoadNextPage loads the page after the current view's page using the
// current view's filters.
func (f *Feed) LoadNextPage(ctx context.Context, fetcher Fetcher) error {
	view := f.CurrentView()
	return f.LoadPage(ctx, fetcher, view.Page+1, view.Filters)
}

// fetch coalesces identical concurrent requests for the same generation.
func (f *Feed) fetch(ctx context.Context, fetcher Fetcher, generation uint64, page int, filters Filters) (*Page, error) {
	encoded, err := json.Marshal(filters)
	if err != nil {
		return fetcher.FetchEvents(ctx, page, filters.clone())
	}

	key := fmt.Sprintf("%d/%d/%s", generation, page, encoded)
	v, err, _ := f.loads.Do(key, func() (interface{}, error) {
		return fetcher.FetchEvents(ctx, page, filters.clone())
	})
	if err != nil {
		return nil, err
	}
	result, _ := v.(*Page)
	return result, nil
}

// ChangeStatus updates the local record before calling the mutator. If the
// mutator fails the previous status is put back, unless something else has
// changed the status or the collection has been replaced in the meantime.
func (f *Feed) ChangeStatus(ctx context.Context, mutator StatusMutator, id string, status events.Status) error {
	f.mu.Lock()
	snapshot, existed := f.records[id]
	generation := f.generation
	f.updateLocked(id, Record{Status: status})
	f.mu.Unlock()

	if err := mutator.UpdateEventStatus(ctx, id, status); err != nil {
		f.logger.Error(err, "failed to change event status", "id", id, "status", status)
		if existed {
			f.mu.Lock()
			if current, ok := f.records[id]; ok && current.Status == status && generation == f.generation {
				current.Status = snapshot.Status
				f.records[id] = current
			}
			f.mu.Unlock()
		}
		return fmt.Errorf("change status of event %s: %w", id, err)
	}
	return nil
}

// RemoveEvent drops the local record before calling the deleter and puts it
// back if the deleter fails, no newer copy has arrived and the collection has
// not been replaced since.
func (f *Feed) RemoveEvent(ctx context.Context, deleter Deleter, id string) error {
	f.mu.Lock()
	snapshot, existed := f.records[id]
	generation := f.generation
	f.deleteLocked(id)
	f.mu.Unlock()

	if err := deleter.DeleteEvent(ctx, id); err != nil {
		f.logger.Error(err, "failed to delete event", "id", id)
		if existed {
			f.mu.Lock()
			if _, ok := f.records[id]; !ok && generation == f.generation {
				f.upsertLocked([]Record{snapshot})
			}
			f.mu.Unlock()
		}
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	return nil
}
