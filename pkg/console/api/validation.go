package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/garunski/conductor-console/pkg/console/connections"
	apperrors "github.com/garunski/conductor-console/pkg/console/errors"
	"github.com/garunski/conductor-console/pkg/console/events"
)

func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key cannot be empty", apperrors.ErrInvalid)
	}
	if len(key) > maxKeyLength {
		return fmt.Errorf("%w: key must be %d characters or less", apperrors.ErrInvalid, maxKeyLength)
	}
	return nil
}

func ParseQueryParams(r *http.Request) (events.EventFilters, error) {
	return ParseEventQueryParams(r.URL.Query())
}

// ParseEventQueryParams reads event filters from a query string. Pages are
// 1-based; severity may be repeated or comma separated.
func ParseEventQueryParams(queryParams map[string][]string) (events.EventFilters, error) {
	filters := events.EventFilters{Page: 1, PageSize: events.DefaultPageSize}

	page, err := parseIntParam(queryParams, "page", 1, 1, 0)
	if err != nil {
		return filters, err
	}
	filters.Page = page

	pageSize, err := parseIntParam(queryParams, "pagesize", events.DefaultPageSize, 1, events.MaxPageSize)
	if err != nil {
		return filters, err
	}
	filters.PageSize = pageSize

	for _, raw := range splitValues(queryParams["severity"]) {
		severity := events.Severity(raw)
		if !severity.Valid() {
			return filters, fmt.Errorf("%w: invalid severity: %s", apperrors.ErrInvalidParameter, raw)
		}
		filters.Severities = append(filters.Severities, severity)
	}

	if statusStr := getFirstQueryParam(queryParams, "status"); statusStr != "" {
		status := events.Status(statusStr)
		if !status.Valid() {
			return filters, fmt.Errorf("%w: invalid status: %s (must be one of: read, unread)", apperrors.ErrInvalidParameter, statusStr)
		}
		filters.Status = status
	}

	if resource := getFirstQueryParam(queryParams, "resource"); resource != "" {
		if err := ValidateKey(resource); err != nil {
			return filters, fmt.Errorf("%w: invalid resource parameter: %w", apperrors.ErrInvalidParameter, err)
		}
		filters.ResourceKey = resource
	}

	filters.Category = getFirstQueryParam(queryParams, "category")
	filters.Search = strings.TrimSpace(getFirstQueryParam(queryParams, "search"))

	if filters.Since, err = parseTimeParam(queryParams, "since"); err != nil {
		return filters, err
	}
	if filters.Until, err = parseTimeParam(queryParams, "until"); err != nil {
		return filters, err
	}
	if !filters.Since.IsZero() && !filters.Until.IsZero() && filters.Until.Before(filters.Since) {
		return filters, fmt.Errorf("%w: until must not be before since", apperrors.ErrInvalidParameter)
	}

	return filters, nil
}

// ParseConnectionQueryParams reads connection list options. Pages are 0-based.
func ParseConnectionQueryParams(queryParams map[string][]string) (connections.ListOptions, error) {
	opts := connections.ListOptions{PageSize: connections.DefaultPageSize}

	page, err := parseIntParam(queryParams, "page", 0, 0, 0)
	if err != nil {
		return opts, err
	}
	opts.Page = page

	pageSize, err := parseIntParam(queryParams, "pagesize", connections.DefaultPageSize, 1, connections.MaxPageSize)
	if err != nil {
		return opts, err
	}
	opts.PageSize = pageSize

	opts.Search = strings.TrimSpace(getFirstQueryParam(queryParams, "search"))
	opts.Order = getFirstQueryParam(queryParams, "order")
	opts.Kind = connections.Kind(getFirstQueryParam(queryParams, "kind"))

	if statusStr := getFirstQueryParam(queryParams, "status"); statusStr != "" {
		status := connections.Status(statusStr)
		if !status.Valid() {
			return opts, fmt.Errorf("%w: invalid status: %s", apperrors.ErrInvalidParameter, statusStr)
		}
		opts.Status = status
	}

	return opts, nil
}

// parseIntParam returns def when key is absent. An upper bound of 0 means unbounded.
func parseIntParam(queryParams map[string][]string, key string, def, lower, upper int) (int, error) {
	raw := getFirstQueryParam(queryParams, key)
	if raw == "" {
		return def, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < lower {
		return 0, fmt.Errorf("%w: %s must be an integer of at least %d", apperrors.ErrInvalidParameter, key, lower)
	}
	if upper > 0 && value > upper {
		return 0, fmt.Errorf("%w: %s cannot exceed %d", apperrors.ErrInvalidParameter, key, upper)
	}
	return value, nil
}

func parseTimeParam(queryParams map[string][]string, key string) (time.Time, error) {
	raw := getFirstQueryParam(queryParams, key)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid %s parameter format (use RFC3339): %w", apperrors.ErrInvalidParameter, key, err)
	}
	return t, nil
}

func splitValues(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func getFirstQueryParam(queryParams map[string][]string, key string) string {
	if values, ok := queryParams[key]; ok && len(values) > 0 {
		return values[0]
	}
	return ""
}
