package client

import (
	"context"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/garunski/conductor-console/pkg/console/connections"
	"github.com/garunski/conductor-console/pkg/console/kube"
)

const (
	connectionsPath = "/api/integrations/connections"

	deleteConcurrency = 4
)

// StatusUpdateResult lists the connections whose status changed and the
// per-id failures of a bulk update.
type StatusUpdateResult struct {
	Updated []string          `json:"updated"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// ListConnections requests one 0-based page of connections.
func (c *Client) ListConnections(ctx context.Context, opts connections.ListOptions) (*connections.Page, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(opts.Page))
	if opts.PageSize > 0 {
		query.Set("pagesize", strconv.Itoa(opts.PageSize))
	}
	if opts.Search != "" {
		query.Set("search", opts.Search)
	}
	if opts.Order != "" {
		query.Set("order", opts.Order)
	}
	if opts.Kind != "" {
		query.Set("kind", string(opts.Kind))
	}
	if opts.Status != "" {
		query.Set("status", string(opts.Status))
	}

	var out connections.Page
	if err := c.do(ctx, "GET", connectionsPath, query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateConnection(ctx context.Context, conn connections.Connection) (*connections.Connection, error) {
	var out connections.Connection
	if err := c.do(ctx, "POST", connectionsPath, nil, conn, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateConnectionStatus moves connections of one kind to new statuses. A
// partial failure returns the result with its Errors filled in; only a
// request where every update failed returns an error.
func (c *Client) UpdateConnectionStatus(ctx context.Context, kind connections.Kind, updates map[string]connections.Status) (*StatusUpdateResult, error) {
	var out StatusUpdateResult
	path := connectionsPath + "/" + url.PathEscape(string(kind)) + "/status"
	if err := c.do(ctx, "PUT", path, nil, updates, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteConnection(ctx context.Context, id string) error {
	return c.do(ctx, "DELETE", connectionsPath+"/"+url.PathEscape(id), nil, nil, nil)
}

// DeleteConnections deletes ids concurrently and returns the first failure.
func (c *Client) DeleteConnections(ctx context.Context, ids []string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(deleteConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			return c.DeleteConnection(gctx, id)
		})
	}
	return g.Wait()
}

func (c *Client) PingConnection(ctx context.Context, id string) (*kube.PingResult, error) {
	var out kube.PingResult
	if err := c.do(ctx, "GET", connectionsPath+"/kubernetes/"+url.PathEscape(id)+"/ping", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
