package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/time/rate"

	apperrors "github.com/garunski/conductor-console/pkg/console/errors"
)

const (
	DefaultTimeout = 30 * time.Second

	maxErrorBody = 64 << 10
)

// Client talks to the console HTTP API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     logr.Logger
	pageSize   int
	timeout    time.Duration
	limiter    *rate.Limiter
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithLogger(logger logr.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithPageSize sets the page size requested by FetchEvents.
func WithPageSize(n int) Option {
	return func(c *Client) {
		c.pageSize = n
	}
}

// WithRateLimit throttles outgoing requests.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, apperrors.WrapInvalid(err, "parse base URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: base URL %q must be http or https", apperrors.ErrInvalid, baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: http.DefaultClient,
		logger:     logr.Discard(),
		pageSize:   defaultPageSize,
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 && c.httpClient.Timeout != c.timeout {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c, nil
}

type errorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends a JSON request and decodes a JSON response into out when out is
// not nil. Non-2xx answers become errors wrapping the console sentinels.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return apperrors.WrapRemote(err, "rate limit")
		}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return apperrors.WrapInvalid(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.WrapRemote(err, method+" "+path)
	}
	defer resp.Body.Close()
	c.logger.V(1).Info("console request", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(method, path, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.WrapRemote(err, "decode response of "+method+" "+path)
	}
	return nil
}

func decodeError(method, path string, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body errorResponse
	message := strings.TrimSpace(string(data))
	if err := json.Unmarshal(data, &body); err == nil && body.Message != "" {
		message = body.Message
	}
	if len(body.Details) > 0 {
		keys := make([]string, 0, len(body.Details))
		for k := range body.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+body.Details[k])
		}
		message += " (" + strings.Join(parts, "; ") + ")"
	}

	cause := fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, message)
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %w", apperrors.ErrNotFound, cause)
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("%w: %w", apperrors.ErrInvalidTransition, cause)
	case resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: %w", apperrors.ErrInvalid, cause)
	default:
		return fmt.Errorf("%w: %w", apperrors.ErrRemote, cause)
	}
}

// IsNotFound reports whether err came from a 404 answer.
func IsNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound)
}
