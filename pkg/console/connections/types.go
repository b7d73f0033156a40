package connections

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/garunski/conductor-console/pkg/console/errors"
)

type Kind string

const (
	KindKubernetes Kind = "kubernetes"
	KindPrometheus Kind = "prometheus"
	KindGrafana    Kind = "grafana"
	KindMeshery    Kind = "meshery"
)

type Status string

const (
	StatusDiscovered   Status = "discovered"
	StatusRegistered   Status = "registered"
	StatusConnected    Status = "connected"
	StatusIgnored      Status = "ignored"
	StatusMaintenance  Status = "maintenance"
	StatusDisconnected Status = "disconnected"
	StatusDeleted      Status = "deleted"
	StatusNotFound     Status = "not found"
)

var transitions = map[Status][]Status{
	StatusDiscovered:   {StatusRegistered, StatusIgnored, StatusNotFound, StatusDeleted},
	StatusRegistered:   {StatusConnected, StatusIgnored, StatusNotFound, StatusDeleted},
	StatusConnected:    {StatusDisconnected, StatusMaintenance, StatusIgnored, StatusNotFound, StatusDeleted},
	StatusDisconnected: {StatusConnected, StatusMaintenance, StatusIgnored, StatusNotFound, StatusDeleted},
	StatusMaintenance:  {StatusConnected, StatusDisconnected, StatusNotFound, StatusDeleted},
	StatusIgnored:      {StatusDiscovered, StatusRegistered, StatusDeleted},
	StatusNotFound:     {StatusDiscovered, StatusConnected, StatusDeleted},
	StatusDeleted:      {},
}

// Statuses lists every connection status in display order.
func Statuses() []Status {
	return []Status{
		StatusDiscovered, StatusRegistered, StatusConnected, StatusIgnored,
		StatusMaintenance, StatusDisconnected, StatusDeleted, StatusNotFound,
	}
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether a connection may move from one status to
// another. Staying in the same status is always allowed.
func CanTransition(from, to Status) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func checkTransition(from, to Status) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown connection status %q", apperrors.ErrInvalid, to)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidTransition, from, to)
	}
	return nil
}

type Connection struct {
	ID           string                 `json:"id" yaml:"id"`
	Name         string                 `json:"name" yaml:"name"`
	Kind         Kind                   `json:"kind" yaml:"kind"`
	Type         string                 `json:"type,omitempty" yaml:"type,omitempty"`
	SubType      string                 `json:"sub_type,omitempty" yaml:"sub_type,omitempty"`
	CredentialID string                 `json:"credential_id,omitempty" yaml:"credential_id,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Status       Status                 `json:"status" yaml:"status"`
	CreatedAt    time.Time              `json:"created_at" yaml:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at" yaml:"updated_at"`
}

// MetadataString returns a metadata value as a string, or "" when absent.
func (c Connection) MetadataString(key string) string {
	if c.Metadata == nil {
		return ""
	}
	if v, ok := c.Metadata[key].(string); ok {
		return v
	}
	return ""
}

func (c Connection) matches(search string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	for _, field := range []string{c.Name, string(c.Kind), c.Type, c.SubType} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

type ListOptions struct {
	Page     int
	PageSize int
	Search   string
	Order    string
	Kind     Kind
	Status   Status
}

type Page struct {
	Connections []Connection `json:"connections" yaml:"connections"`
	Page        int          `json:"page" yaml:"page"`
	PageSize    int          `json:"page_size" yaml:"page_size"`
	TotalCount  int          `json:"total_count" yaml:"total_count"`
}

const (
	DefaultPageSize = 25
	MaxPageSize     = 500
	DefaultOrder    = "updated_at desc"

	keyPrefix = "connections/"
)

func connectionKey(id string) string {
	return keyPrefix + id
}
