package events

import (
	"strings"
	"time"
)

type Severity string

const (
	SeverityEmergency Severity = "emergency"
	SeverityAlert     Severity = "alert"
	SeverityCritical  Severity = "critical"
	SeverityError     Severity = "error"
	SeverityWarning   Severity = "warning"
	SeverityInfo      Severity = "informational"
	SeverityDebug     Severity = "debug"
)

type Status string

const (
	StatusUnread Status = "unread"
	StatusRead   Status = "read"
)

const (
	DefaultSeverity = SeverityInfo
	DefaultStatus   = StatusUnread
)

var severities = []Severity{
	SeverityEmergency, SeverityAlert, SeverityCritical, SeverityError,
	SeverityWarning, SeverityInfo, SeverityDebug,
}

// Severities returns every known severity, most severe first.
func Severities() []Severity {
	out := make([]Severity, len(severities))
	copy(out, severities)
	return out
}

func (s Severity) Valid() bool {
	for _, known := range severities {
		if s == known {
			return true
		}
	}
	return false
}

func (s Status) Valid() bool {
	return s == StatusRead || s == StatusUnread
}

// NormalizeSeverity trims the value and falls back to DefaultSeverity when blank.
func NormalizeSeverity(s Severity) Severity {
	if trimmed := Severity(strings.TrimSpace(string(s))); trimmed != "" {
		return trimmed
	}
	return DefaultSeverity
}

// NormalizeStatus trims the value and falls back to DefaultStatus when blank.
func NormalizeStatus(s Status) Status {
	if trimmed := Status(strings.TrimSpace(string(s))); trimmed != "" {
		return trimmed
	}
	return DefaultStatus
}

type Event struct {
	ID          string                 `json:"id"`
	Severity    Severity               `json:"severity"`
	Status      Status                 `json:"status"`
	Category    string                 `json:"category,omitempty"`
	Action      string                 `json:"action,omitempty"`
	Description string                 `json:"description"`
	ResourceKey string                 `json:"resource_key,omitempty"`
	Error       string                 `json:"error,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

type EventFilters struct {
	Severities  []Severity
	Status      Status
	Category    string
	ResourceKey string
	Search      string
	Since       time.Time
	Until       time.Time
	Page        int
	PageSize    int
}

type EventPage struct {
	Events     []Event `json:"events"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
	TotalCount int     `json:"total_count"`
}

type StatusCounts struct {
	Unread int `json:"unread"`
	Read   int `json:"read"`
	Total  int `json:"total"`
}
