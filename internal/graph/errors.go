package graph

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx Graph response. Prefer the predicates over
// asserting on the type.
type APIError struct {
	operation  string
	statusCode int
	code       string
	message    string
}

func (e *APIError) Error() string {
	if e.code != "" {
		return fmt.Sprintf("%s: HTTP %d: [%s] %s", e.operation, e.statusCode, e.code, e.message)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.operation, e.statusCode, e.message)
}

func newAPIError(operation string, statusCode int, code, message string) *APIError {
	return &APIError{operation: operation, statusCode: statusCode, code: code, message: message}
}

// StatusCode returns the HTTP status code from the response.
func (e *APIError) StatusCode() int { return e.statusCode }

// Code returns the Graph error code, e.g. "itemNotFound".
func (e *APIError) Code() string { return e.code }

// Message returns the human-readable error message.
func (e *APIError) Message() string { return e.message }

// Operation returns a short description of the API call that failed.
func (e *APIError) Operation() string { return e.operation }

// IsNotFound reports whether err is an API error with HTTP 404 status.
func IsNotFound(err error) bool { return HasStatusCode(err, http.StatusNotFound) }

// IsUnauthorized reports whether err is an API error with HTTP 401 status.
func IsUnauthorized(err error) bool { return HasStatusCode(err, http.StatusUnauthorized) }

// IsThrottled reports whether Graph rejected the call with HTTP 429.
func IsThrottled(err error) bool { return HasStatusCode(err, http.StatusTooManyRequests) }

// HasStatusCode reports whether err is an API error whose HTTP status code matches.
func HasStatusCode(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.statusCode == code
}

// errorRS is the Graph error envelope.
type errorRS struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
