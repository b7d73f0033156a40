package api

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/garunski/conductor-console/pkg/console/connections"
	apperrors "github.com/garunski/conductor-console/pkg/console/errors"
	"github.com/garunski/conductor-console/pkg/console/events"
)

func (h *Handler) requireConnections(w http.ResponseWriter) bool {
	if h.connections == nil {
		WriteError(w, h.logger, fmt.Errorf("%w: connection store not available", apperrors.ErrStorage))
		return false
	}
	return true
}

func (h *Handler) ListConnections(w http.ResponseWriter, r *http.Request) {
	if !h.requireConnections(w) {
		return
	}

	query := r.URL.Query()
	opts, err := ParseConnectionQueryParams(query)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	page, err := h.connections.List(opts)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	if getFirstQueryParam(query, "format") == "yaml" {
		WriteYAMLResponse(w, h.logger, page)
		return
	}
	WriteJSONResponse(w, h.logger, http.StatusOK, page)
}

func (h *Handler) CreateConnection(w http.ResponseWriter, r *http.Request) {
	if !h.requireConnections(w) {
		return
	}

	var conn connections.Connection
	if err := h.parseJSONRequest(r, &conn); err != nil {
		WriteError(w, h.logger, err)
		return
	}

	saved, err := h.connections.Save(conn)
	if err != nil {
		if !isClientError(err) {
			h.logger.Error(err, "failed to save connection", "name", conn.Name)
		}
		WriteError(w, h.logger, err)
		return
	}

	h.recordEvent(events.Success(connectionResource(saved), "register", "Connection "+saved.Name+" registered"))
	WriteJSONResponse(w, h.logger, http.StatusCreated, saved)
}

// UpdateConnectionStatus applies {id: status} to connections of one kind. It
// answers 200 when at least one connection changed, listing the failures
// alongside; when every update fails the first failure decides the status.
func (h *Handler) UpdateConnectionStatus(w http.ResponseWriter, r *http.Request) {
	if !h.requireConnections(w) {
		return
	}

	kind := connections.Kind(chi.URLParam(r, "kind"))
	if kind == "" {
		WriteError(w, h.logger, fmt.Errorf("%w: kind is required", apperrors.ErrMissingParameter))
		return
	}

	var updates map[string]connections.Status
	if err := h.parseJSONRequest(r, &updates); err != nil {
		WriteError(w, h.logger, err)
		return
	}
	if len(updates) == 0 {
		WriteError(w, h.logger, fmt.Errorf("%w: no connection status updates given", apperrors.ErrInvalidRequest))
		return
	}

	failures := h.connections.UpdateStatus(kind, updates)

	result := StatusUpdateResult{Updated: []string{}}
	ids := make([]string, 0, len(updates))
	for id := range updates {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var firstErr error
	for _, id := range ids {
		if err, failed := failures[id]; failed {
			if result.Errors == nil {
				result.Errors = make(map[string]string)
			}
			result.Errors[id] = err.Error()
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		result.Updated = append(result.Updated, id)
		h.recordEvent(events.Info(string(kind)+"/"+id, "status", "Connection status changed to "+string(updates[id])))
	}

	if len(result.Updated) == 0 {
		WriteErrorWithDetails(w, h.logger, firstErr, result.Errors)
		return
	}
	WriteJSONResponse(w, h.logger, http.StatusOK, result)
}

func (h *Handler) DeleteConnection(w http.ResponseWriter, r *http.Request) {
	if !h.requireConnections(w) {
		return
	}

	id := chi.URLParam(r, "id")
	if err := ValidateKey(id); err != nil {
		WriteError(w, h.logger, fmt.Errorf("%w: invalid connection id: %w", apperrors.ErrInvalidParameter, err))
		return
	}

	conn, err := h.connections.Get(id)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	if err := h.connections.Delete(id); err != nil {
		if !isClientError(err) {
			h.logger.Error(err, "failed to delete connection", "id", id)
		}
		WriteError(w, h.logger, err)
		return
	}

	h.recordEvent(events.Info(connectionResource(conn), "delete", "Connection "+conn.Name+" deleted"))
	WriteJSONResponse(w, h.logger, http.StatusOK, MessageResponse{Message: "Connection deleted"})
}

func connectionResource(conn connections.Connection) string {
	return string(conn.Kind) + "/" + conn.Name
}
