package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/garunski/conductor-console/pkg/console/errors"
	"github.com/garunski/conductor-console/pkg/console/events"
)

func (h *Handler) requireEventStore(w http.ResponseWriter) bool {
	if h.eventStore == nil {
		WriteError(w, h.logger, fmt.Errorf("%w: event store not available", apperrors.ErrEventStore))
		return false
	}
	return true
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	if !h.requireEventStore(w) {
		return
	}

	filters, err := ParseQueryParams(r)
	if err != nil {
		WriteError(w, h.logger, fmt.Errorf("%w: invalid query parameters: %w", apperrors.ErrInvalid, err))
		return
	}

	page, err := h.eventStore.ListEvents(filters)
	if err != nil {
		h.logger.Error(err, "failed to list events")
		WriteError(w, h.logger, err)
		return
	}

	WriteJSONResponse(w, h.logger, http.StatusOK, page)
}

func (h *Handler) EventSummary(w http.ResponseWriter, r *http.Request) {
	if !h.requireEventStore(w) {
		return
	}

	counts, err := h.eventStore.CountByStatus()
	if err != nil {
		h.logger.Error(err, "failed to count events")
		WriteError(w, h.logger, err)
		return
	}

	WriteJSONResponse(w, h.logger, http.StatusOK, counts)
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	if !h.requireEventStore(w) {
		return
	}

	var event events.Event
	if err := h.parseJSONRequest(r, &event); err != nil {
		WriteError(w, h.logger, err)
		return
	}
	if strings.TrimSpace(event.Description) == "" {
		WriteError(w, h.logger, fmt.Errorf("%w: description is required", apperrors.ErrMissingParameter))
		return
	}
	if event.Severity != "" && !event.Severity.Valid() {
		WriteError(w, h.logger, fmt.Errorf("%w: invalid severity: %s", apperrors.ErrInvalidParameter, event.Severity))
		return
	}
	if event.Status != "" && !event.Status.Valid() {
		WriteError(w, h.logger, fmt.Errorf("%w: invalid status: %s", apperrors.ErrInvalidParameter, event.Status))
		return
	}
	event.ID = ""

	if err := h.eventStore.StoreEvent(event); err != nil {
		h.logger.Error(err, "failed to store event")
		WriteError(w, h.logger, err)
		return
	}

	WriteJSONResponse(w, h.logger, http.StatusCreated, MessageResponse{Message: "Event stored"})
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	if !h.requireEventStore(w) {
		return
	}

	id := chi.URLParam(r, "id")
	if err := ValidateKey(id); err != nil {
		WriteError(w, h.logger, fmt.Errorf("%w: invalid event id: %w", apperrors.ErrInvalidParameter, err))
		return
	}

	event, err := h.eventStore.GetEvent(id)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	WriteJSONResponse(w, h.logger, http.StatusOK, event)
}

func (h *Handler) UpdateEventStatus(w http.ResponseWriter, r *http.Request) {
	if !h.requireEventStore(w) {
		return
	}

	id := chi.URLParam(r, "id")
	if err := ValidateKey(id); err != nil {
		WriteError(w, h.logger, fmt.Errorf("%w: invalid event id: %w", apperrors.ErrInvalidParameter, err))
		return
	}

	var req EventStatusRequest
	if err := h.parseJSONRequest(r, &req); err != nil {
		WriteError(w, h.logger, err)
		return
	}
	status := events.Status(req.Status)
	if !status.Valid() {
		WriteError(w, h.logger, fmt.Errorf("%w: invalid status: %q (must be one of: read, unread)", apperrors.ErrInvalidParameter, req.Status))
		return
	}

	event, err := h.eventStore.UpdateStatus(id, status)
	if err != nil {
		if !isClientError(err) {
			h.logger.Error(err, "failed to update event status", "id", id)
		}
		WriteError(w, h.logger, err)
		return
	}

	WriteJSONResponse(w, h.logger, http.StatusOK, event)
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if !h.requireEventStore(w) {
		return
	}

	id := chi.URLParam(r, "id")
	if err := ValidateKey(id); err != nil {
		WriteError(w, h.logger, fmt.Errorf("%w: invalid event id: %w", apperrors.ErrInvalidParameter, err))
		return
	}

	if err := h.eventStore.DeleteEvent(id); err != nil {
		if !isClientError(err) {
			h.logger.Error(err, "failed to delete event", "id", id)
		}
		WriteError(w, h.logger, err)
		return
	}

	WriteJSONResponse(w, h.logger, http.StatusOK, MessageResponse{Message: "Event deleted"})
}

func (h *Handler) CleanupEvents(w http.ResponseWriter, r *http.Request) {
	beforeStr := r.URL.Query().Get("before")
	if beforeStr == "" {
		WriteError(w, h.logger, fmt.Errorf("%w: before parameter is required", apperrors.ErrMissingParameter))
		return
	}

	before, err := time.Parse(time.RFC3339, beforeStr)
	if err != nil {
		WriteError(w, h.logger, fmt.Errorf("%w: invalid before parameter format (use RFC3339): %w", apperrors.ErrInvalidParameter, err))
		return
	}

	if !h.requireEventStore(w) {
		return
	}

	if err := h.eventStore.CleanupOldEvents(before); err != nil {
		h.logger.Error(err, "failed to cleanup events")
		WriteError(w, h.logger, err)
		return
	}

	WriteJSONResponse(w, h.logger, http.StatusOK, MessageResponse{Message: "Events cleaned up successfully"})
}

func isClientError(err error) bool {
	status := httpStatus(err)
	return status >= 400 && status < 500
}
