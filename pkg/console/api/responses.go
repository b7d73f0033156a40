package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/go-logr/logr"
	"gopkg.in/yaml.v3"
)

// ErrorResponse is the body of every non-2xx response. Details carries
// per-item failures of bulk requests.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func writeBody(w http.ResponseWriter, logger logr.Logger, status int, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		logger.V(1).Info("failed to write response", "error", err)
	}
}

// WriteJSONResponse encodes data before writing the header, so an encoding
// failure still produces a well-formed 500.
func WriteJSONResponse(w http.ResponseWriter, logger logr.Logger, status int, data interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		logger.Error(err, "failed to encode JSON response")
		writeBody(w, logger, http.StatusInternalServerError, "application/json",
			[]byte(`{"error":"internal_error","message":"failed to encode response"}`+"\n"))
		return
	}
	writeBody(w, logger, status, "application/json", buf.Bytes())
}

// WriteYAMLResponse is the format=yaml variant of a 200 JSON response.
func WriteYAMLResponse(w http.ResponseWriter, logger logr.Logger, data interface{}) {
	out, err := yaml.Marshal(data)
	if err != nil {
		logger.Error(err, "failed to encode YAML response")
		WriteErrorResponse(w, logger, http.StatusInternalServerError, "internal_error", "failed to encode YAML response", nil)
		return
	}
	writeBody(w, logger, http.StatusOK, "application/yaml", out)
}

func WriteErrorResponse(w http.ResponseWriter, logger logr.Logger, status int, code string, message string, details map[string]string) {
	WriteJSONResponse(w, logger, status, ErrorResponse{
		Error:   code,
		Message: message,
		Details: details,
	})
}

func WriteError(w http.ResponseWriter, logger logr.Logger, err error) {
	WriteErrorWithDetails(w, logger, err, nil)
}

func WriteErrorWithDetails(w http.ResponseWriter, logger logr.Logger, err error, details map[string]string) {
	if err == nil {
		WriteErrorResponse(w, logger, http.StatusInternalServerError, "unknown_error", "An unknown error occurred", details)
		return
	}
	WriteErrorResponse(w, logger, httpStatus(err), extractErrorCode(err), err.Error(), details)
}
