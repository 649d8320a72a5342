// Package httperr defines the API error taxonomy and the single JSON error
// envelope every failure is normalized to at the HTTP boundary.
package httperr

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// Error is a client-visible API error with an HTTP status.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message)
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, message)
}

func Conflict(message string) *Error {
	return New(http.StatusConflict, message)
}

// envelope is the wire shape: {statusCode, message, timestamp, path}.
type envelope struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
	Path       string `json:"path,omitempty"`
}

// Write renders err as the JSON error envelope. Domain-identifiable
// failures (*Error) pass through with their status and message; anything
// else becomes a generic 500 that does not leak internals.
func Write(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	var apiErr *Error
	if errors.As(err, &apiErr) {
		status = apiErr.Status
		message = apiErr.Message
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{
		StatusCode: status,
		Message:    message,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Path:       r.URL.Path,
	})
}
