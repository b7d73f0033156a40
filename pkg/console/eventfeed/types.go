package eventfeed

import (
	"context"
	"maps"

	"github.com/garunski/conductor-console/pkg/console/events"
)

const DefaultPageSize = 10

// Record is the client-side shape of an event. Only ID, Severity, Status and
// UpdatedAt mean anything to the feed; every other field is carried through.
type Record struct {
	ID          string                 `json:"id"`
	Severity    events.Severity        `json:"severity,omitempty"`
	Status      events.Status          `json:"status,omitempty"`
	Category    string                 `json:"category,omitempty"`
	Action      string                 `json:"action,omitempty"`
	Description string                 `json:"description,omitempty"`
	ResourceKey string                 `json:"resource_key,omitempty"`
	Error       string                 `json:"error,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt   string                 `json:"created_at,omitempty"`
	UpdatedAt   string                 `json:"updated_at,omitempty"`
}

// Filters is handed to the Fetcher untouched.
type Filters map[string]interface{}

func (f Filters) clone() Filters {
	if f == nil {
		return nil
	}
	return maps.Clone(f)
}

// View is the cursor describing what has been fetched so far.
type View struct {
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
	Filters  Filters `json:"filters"`
	HasMore  bool    `json:"has_more"`
}

// InitialView is the view a fresh or cleared feed starts from.
func InitialView() View {
	return View{
		Page:     1,
		PageSize: DefaultPageSize,
		Filters:  Filters{"initial": true},
		HasMore:  true,
	}
}

func (v View) clone() View {
	v.Filters = v.Filters.clone()
	return v
}

// Page is a fetch result. A nil Page or nil Events reads as an empty page.
type Page struct {
	Events []Record `json:"events"`
}

type Fetcher interface {
	FetchEvents(ctx context.Context, page int, filters Filters) (*Page, error)
}

type StatusMutator interface {
	UpdateEventStatus(ctx context.Context, id string, status events.Status) error
}

type Deleter interface {
	DeleteEvent(ctx context.Context, id string) error
}

// FetcherFunc adapts a plain function to Fetcher.
type FetcherFunc func(ctx context.Context, page int, filters Filters) (*Page, error)

func (f FetcherFunc) FetchEvents(ctx context.Context, page int, filters Filters) (*Page, error) {
	return f(ctx, page, filters)
}

type StatusMutatorFunc func(ctx context.Context, id string, status events.Status) error

func (f StatusMutatorFunc) UpdateEventStatus(ctx context.Context, id string, status events.Status) error {
	return f(ctx, id, status)
}

type DeleterFunc func(ctx context.Context, id string) error

func (f DeleterFunc) DeleteEvent(ctx context.Context, id string) error {
	return f(ctx, id)
}
