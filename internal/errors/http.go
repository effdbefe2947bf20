// Package errors defines the JSON error envelope the status server
// returns for every non-2xx response.
package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"github.com/taxongrid/arraygen/pkg/plan"
)

// HTTPErrorResponse is the wire envelope for error responses.
type HTTPErrorResponse struct {
	Error HTTPError `json:"error"`
}

// HTTPError carries the machine-readable error body.
type HTTPError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	RequestID string         `json:"request_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// Standard error codes.
const (
	CodeNotFound           = "NOT_FOUND"
	CodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeInternal           = "INTERNAL_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// WriteError writes the envelope with the given status.
func WriteError(w http.ResponseWriter, status int, code, message, requestID string, details map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(HTTPErrorResponse{
		Error: HTTPError{
			Code:      code,
			Message:   message,
			RequestID: requestID,
			Details:   details,
		},
	})
}

// RespondWithError maps err onto a status and code, then writes the
// envelope.
func RespondWithError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, os.ErrNotExist):
		WriteError(w, http.StatusNotFound, CodeNotFound, "resource not found", "", nil)
	case errors.Is(err, plan.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, CodeInvalidInput, err.Error(), "", nil)
	default:
		WriteError(w, http.StatusInternalServerError, CodeInternal, err.Error(), "", nil)
	}
}

// NotFoundHandler serves the JSON envelope for unknown routes.
func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusNotFound, CodeNotFound, "route not found: "+r.URL.Path, "", nil)
}

// MethodNotAllowedHandler serves the JSON envelope for unsupported methods.
func MethodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, r.Method+" not allowed on "+r.URL.Path, "", nil)
}
