package api

import (
	"errors"
	"net/http"

	apperrors "github.com/garunski/conductor-console/pkg/console/errors"
)

// errorClass maps a sentinel to its HTTP status and wire code. The first
// matching class wins, so the more specific sentinels come first.
type errorClass struct {
	sentinel error
	status   int
	code     string
}

var errorClasses = []errorClass{
	{apperrors.ErrNotFound, http.StatusNotFound, "not_found"},
	{apperrors.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{apperrors.ErrMissingParameter, http.StatusBadRequest, "missing_parameter"},
	{apperrors.ErrInvalidParameter, http.StatusBadRequest, "invalid_parameter"},
	{apperrors.ErrInvalidRequest, http.StatusBadRequest, "invalid_request"},
	{apperrors.ErrInvalid, http.StatusBadRequest, "validation_error"},
	{apperrors.ErrStorage, http.StatusInternalServerError, "storage_error"},
	{apperrors.ErrKubernetes, http.StatusBadGateway, "kubernetes_error"},
	{apperrors.ErrEventStore, http.StatusServiceUnavailable, "event_store_unavailable"},
}

var internalError = errorClass{status: http.StatusInternalServerError, code: "internal_error"}

func classify(err error) errorClass {
	for _, c := range errorClasses {
		if errors.Is(err, c.sentinel) {
			return c
		}
	}
	return internalError
}

func httpStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return classify(err).status
}

func extractErrorCode(err error) string {
	if err == nil {
		return "unknown_error"
	}
	return classify(err).code
}
