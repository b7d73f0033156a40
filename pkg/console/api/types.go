package api

import "time"

type HealthStatus struct {
	Status     string                     `json:"status"`
	Version    string                     `json:"version,omitempty"`
	Timestamp  time.Time                  `json:"timestamp"`
	Components map[string]ComponentStatus `json:"components,omitempty"`
}

type ComponentStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type EventStatusRequest struct {
	Status string `json:"status"`
}

// StatusUpdateResult reports a bulk connection status change. Errors is keyed
// by connection id.
type StatusUpdateResult struct {
	Updated []string          `json:"updated"`
	Errors  map[string]string `json:"errors,omitempty"`
}

type DiscoverRequest struct {
	Kubeconfig string `json:"kubeconfig,omitempty"`
}

type DiscoverResponse struct {
	Connections []ConnectionSummary `json:"connections"`
}

type ConnectionSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type OperatorRequest struct {
	Enabled *bool `json:"enabled"`
}

type FlushResponse struct {
	Deleted int `json:"deleted"`
}
