package server

import (
	"encoding/json"
	"net/http"
)

// ErrorType represents the category of an API error.
type ErrorType string

const (
	ErrorTypeNotAuthenticated ErrorType = "not_authenticated"
	ErrorTypeAccessDenied     ErrorType = "access_denied"
	ErrorTypeInvalidRequest   ErrorType = "invalid_request"
	ErrorTypeNotFound         ErrorType = "not_found"
	ErrorTypeServerError      ErrorType = "server_error"
)

// APIError is the JSON error payload. It never carries credential
// internals.
type APIError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
}

// ErrorResponse wraps an APIError for JSON serialization as the
// top-level error response.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// writeError serializes a uniform error envelope.
func writeError(w http.ResponseWriter, status int, typ ErrorType, message string) {
	writeJSON(w, status, ErrorResponse{Error: &APIError{Type: typ, Message: message}})
}

// writeJSON serializes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
