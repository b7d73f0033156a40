package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/garunski/conductor-console/pkg/console/connections"
	apperrors "github.com/garunski/conductor-console/pkg/console/errors"
	"github.com/garunski/conductor-console/pkg/console/events"
)

// kubeConnection resolves the {id} route parameter to a Kubernetes
// connection, writing the error response itself when it cannot.
func (h *Handler) kubeConnection(w http.ResponseWriter, r *http.Request) (connections.Connection, bool) {
	if h.checker == nil {
		WriteError(w, h.logger, fmt.Errorf("%w: kubernetes support is not configured", apperrors.ErrKubernetes))
		return connections.Connection{}, false
	}
	if !h.requireConnections(w) {
		return connections.Connection{}, false
	}

	id := chi.URLParam(r, "id")
	if err := ValidateKey(id); err != nil {
		WriteError(w, h.logger, fmt.Errorf("%w: invalid connection id: %w", apperrors.ErrInvalidParameter, err))
		return connections.Connection{}, false
	}

	conn, err := h.connections.Get(id)
	if err != nil {
		WriteError(w, h.logger, err)
		return connections.Connection{}, false
	}
	if conn.Kind != connections.KindKubernetes {
		WriteError(w, h.logger, fmt.Errorf("%w: connection %s is of kind %s", apperrors.ErrInvalid, id, conn.Kind))
		return connections.Connection{}, false
	}
	return conn, true
}

func (h *Handler) DiscoverKubernetes(w http.ResponseWriter, r *http.Request) {
	if !h.requireConnections(w) {
		return
	}

	var req DiscoverRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := h.parseJSONRequest(r, &req); err != nil && !errors.Is(err, io.EOF) {
			WriteError(w, h.logger, err)
			return
		}
	}
	path := req.Kubeconfig
	if path == "" {
		path = h.kubeconfig
	}
	if path == "" {
		WriteError(w, h.logger, fmt.Errorf("%w: kubeconfig is required", apperrors.ErrMissingParameter))
		return
	}

	found, err := h.connections.DiscoverKubernetes(path)
	if err != nil {
		h.recordEvent(events.Error("kubernetes/discovery", "discover", "Kubernetes discovery failed", err))
		WriteError(w, h.logger, err)
		return
	}

	resp := DiscoverResponse{Connections: make([]ConnectionSummary, 0, len(found))}
	for _, c := range found {
		resp.Connections = append(resp.Connections, ConnectionSummary{ID: c.ID, Name: c.Name, Status: string(c.Status)})
	}
	h.recordEvent(events.Success("kubernetes/discovery", "discover", fmt.Sprintf("Discovered %d Kubernetes context(s)", len(found))))
	WriteJSONResponse(w, h.logger, http.StatusOK, resp)
}

func (h *Handler) PingConnection(w http.ResponseWriter, r *http.Request) {
	conn, ok := h.kubeConnection(w, r)
	if !ok {
		return
	}

	result, err := h.checker.Ping(r.Context(), conn)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteJSONResponse(w, h.logger, http.StatusOK, result)
}

func (h *Handler) GetOperatorStatus(w http.ResponseWriter, r *http.Request) {
	conn, ok := h.kubeConnection(w, r)
	if !ok {
		return
	}

	status, err := h.checker.OperatorStatus(r.Context(), conn)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteJSONResponse(w, h.logger, http.StatusOK, status)
}

func (h *Handler) SetOperator(w http.ResponseWriter, r *http.Request) {
	conn, ok := h.kubeConnection(w, r)
	if !ok {
		return
	}

	var req OperatorRequest
	if err := h.parseJSONRequest(r, &req); err != nil {
		WriteError(w, h.logger, err)
		return
	}
	if req.Enabled == nil {
		WriteError(w, h.logger, fmt.Errorf("%w: enabled is required", apperrors.ErrMissingParameter))
		return
	}

	if err := h.checker.SetOperator(r.Context(), conn, *req.Enabled); err != nil {
		WriteError(w, h.logger, err)
		return
	}

	status, err := h.checker.OperatorStatus(r.Context(), conn)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteJSONResponse(w, h.logger, http.StatusOK, status)
}

func (h *Handler) FlushMeshSync(w http.ResponseWriter, r *http.Request) {
	conn, ok := h.kubeConnection(w, r)
	if !ok {
		return
	}

	deleted, err := h.checker.FlushMeshSync(r.Context(), conn)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteJSONResponse(w, h.logger, http.StatusOK, FlushResponse{Deleted: deleted})
}
