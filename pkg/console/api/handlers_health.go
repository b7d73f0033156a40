package api

import (
	"fmt"
	"net/http"
	"time"
)

const (
	statusHealthy     = "healthy"
	statusUnhealthy   = "unhealthy"
	statusAvailable   = "available"
	statusUnavailable = "unavailable"
	statusDisabled    = "disabled"
)

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	WriteJSONResponse(w, h.logger, http.StatusOK, HealthStatus{
		Status:    statusHealthy,
		Version:   h.version,
		Timestamp: time.Now(),
	})
}

// Readyz reports every backing component. Only the database and the
// connection store gate readiness; the event store and Kubernetes are
// informational.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:    statusHealthy,
		Version:   h.version,
		Timestamp: time.Now(),
		Components: map[string]ComponentStatus{
			"database":    h.databaseReadiness(),
			"eventStore":  h.eventStoreReadiness(),
			"connections": h.connectionsReadiness(),
			"kubernetes":  h.kubernetesReadiness(),
		},
	}
	for _, name := range []string{"database", "connections"} {
		if status.Components[name].Status == statusUnhealthy {
			status.Status = statusUnhealthy
		}
	}

	code := http.StatusOK
	if status.Status == statusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	WriteJSONResponse(w, h.logger, code, status)
}

func (h *Handler) databaseReadiness() ComponentStatus {
	if h.db == nil {
		return ComponentStatus{Status: statusUnhealthy, Message: "Database not initialized"}
	}
	keys, err := h.db.Count("")
	if err != nil {
		return ComponentStatus{Status: statusUnhealthy, Message: err.Error()}
	}
	return ComponentStatus{Status: statusHealthy, Message: fmt.Sprintf("%d keys", keys)}
}

func (h *Handler) eventStoreReadiness() ComponentStatus {
	if h.eventStore == nil {
		return ComponentStatus{Status: statusUnavailable, Message: "Event store not initialized"}
	}
	counts, err := h.eventStore.CountByStatus()
	if err != nil {
		return ComponentStatus{Status: statusUnavailable, Message: err.Error()}
	}
	return ComponentStatus{Status: statusAvailable, Message: fmt.Sprintf("%d unread", counts.Unread)}
}

func (h *Handler) connectionsReadiness() ComponentStatus {
	if h.connections == nil {
		return ComponentStatus{Status: statusUnhealthy, Message: "Connection store not initialized"}
	}
	total := 0
	for _, n := range h.connections.CountByStatus() {
		total += n
	}
	return ComponentStatus{Status: statusAvailable, Message: fmt.Sprintf("%d connections", total)}
}

func (h *Handler) kubernetesReadiness() ComponentStatus {
	if h.checker == nil {
		return ComponentStatus{Status: statusDisabled}
	}
	return ComponentStatus{Status: statusAvailable}
}
