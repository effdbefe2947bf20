// Package middleware provides request ID propagation and panic recovery
// for the status server.
package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	apperrors "github.com/taxongrid/arraygen/internal/errors"
)

// ErrorResponse is the JSON envelope produced on recovered panics.
type ErrorResponse = apperrors.HTTPErrorResponse

type contextKey string

// requestIDKey carries the request ID through the request context.
const requestIDKey contextKey = "request_id"

// requestIDHeader is the inbound and outbound request ID header.
const requestIDHeader = "X-Request-ID"

// RequestID attaches a request ID to the context and response. An
// inbound X-Request-ID is honored so callers can correlate; otherwise
// one is generated.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the request ID from ctx, or "" when none is set.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// Recovery converts panics into 500 responses with the standard JSON
// envelope instead of tearing down the connection.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				writeErrorResponse(w,
					apperrors.CodeInternal,
					fmt.Sprintf("panic: %v", rec),
					GetRequestID(r.Context()),
					nil,
					http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// ErrorHandler is an alias for Recovery kept for route setup readability.
func ErrorHandler(next http.Handler) http.Handler {
	return Recovery(next)
}

// writeErrorResponse writes the standard envelope.
func writeErrorResponse(w http.ResponseWriter, code, message, requestID string, details map[string]any, status int) {
	apperrors.WriteError(w, status, code, message, requestID, details)
}
