package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/garunski/conductor-console/pkg/console/eventfeed"
	"github.com/garunski/conductor-console/pkg/console/events"
)

const (
	defaultPageSize = eventfeed.DefaultPageSize

	eventsPath = "/api/events"
)

var (
	_ eventfeed.Fetcher       = (*Client)(nil)
	_ eventfeed.StatusMutator = (*Client)(nil)
	_ eventfeed.Deleter       = (*Client)(nil)
)

// FetchEvents requests one 1-based page of events. Every filter becomes a
// query parameter; slices repeat the key.
func (c *Client) FetchEvents(ctx context.Context, page int, filters eventfeed.Filters) (*eventfeed.Page, error) {
	query := encodeFilters(filters)
	query.Set("page", strconv.Itoa(page))
	if query.Get("pagesize") == "" {
		query.Set("pagesize", strconv.Itoa(c.pageSize))
	}

	var out eventfeed.Page
	if err := c.do(ctx, "GET", eventsPath, query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateEventStatus(ctx context.Context, id string, status events.Status) error {
	body := map[string]string{"status": string(status)}
	return c.do(ctx, "PUT", eventsPath+"/"+url.PathEscape(id)+"/status", nil, body, nil)
}

func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	return c.do(ctx, "DELETE", eventsPath+"/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) GetEvent(ctx context.Context, id string) (*events.Event, error) {
	var out events.Event
	if err := c.do(ctx, "GET", eventsPath+"/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) EventSummary(ctx context.Context) (events.StatusCounts, error) {
	var out events.StatusCounts
	err := c.do(ctx, "GET", eventsPath+"/summary", nil, nil, &out)
	return out, err
}

func encodeFilters(filters eventfeed.Filters) url.Values {
	query := url.Values{}
	for key, value := range filters {
		switch v := value.(type) {
		case nil:
		case string:
			if v != "" {
				query.Set(key, v)
			}
		case []string:
			for _, s := range v {
				query.Add(key, s)
			}
		case []events.Severity:
			for _, s := range v {
				query.Add(key, string(s))
			}
		case []interface{}:
			for _, s := range v {
				query.Add(key, fmt.Sprint(s))
			}
		case time.Time:
			if !v.IsZero() {
				query.Set(key, v.UTC().Format(time.RFC3339))
			}
		case fmt.Stringer:
			query.Set(key, v.String())
		default:
			query.Set(key, fmt.Sprint(v))
		}
	}
	return query
}
