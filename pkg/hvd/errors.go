package hvd

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError represents a structured error envelope returned by the server.
// Its code and message take precedence over the raw HTTP status.
type APIError struct {
	Code    int    `json:"error_code"`
	Message string `json:"error"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("API request failed with %d: %s", e.Code, e.Message)
}

// StatusError represents a non-2xx HTTP response without a structured error
// body.
type StatusError struct {
	StatusCode int
	Status     string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	status := e.Status
	if status == "" {
		status = http.StatusText(e.StatusCode)
	}

	return fmt.Sprintf("request failed with %d: %s", e.StatusCode, status)
}

// Static errors for err113 compliance.
var (
	// ErrSessionOpen is returned by Open when a session is already active.
	ErrSessionOpen = errors.New("already in a session")

	// ErrSessionClosed is returned when a request is attempted outside a
	// session.
	ErrSessionClosed = errors.New("not in a session")

	// ErrNoDetails is returned by detail accessors before any snapshot has
	// been cached for the resource.
	ErrNoDetails = errors.New("no details fetched for resource")

	// ErrDetailNotFound is returned when a requested field is absent from
	// the cached snapshot.
	ErrDetailNotFound = errors.New("detail not found")

	// ErrNotRenamable is returned by Rename on kinds without a rename
	// capability.
	ErrNotRenamable = errors.New("resource kind cannot be renamed")

	// ErrNoStream is returned when a raw payload is requested from a
	// response that carries structured metadata instead.
	ErrNoStream = errors.New("no binary payload")

	// ErrMissingLocation is returned when an async response lacks the
	// creation-location header.
	ErrMissingLocation = errors.New("async response without operation location")

	ErrConfigRequired  = errors.New("config is required")
	ErrAddressRequired = errors.New("remote address is required")
)

// Error codes used by the hvd API.
const (
	ErrorCodeBadRequest   = 400
	ErrorCodeForbidden    = 403
	ErrorCodeNotFound     = 404
	ErrorCodeConflict     = 409
	ErrorCodePrecondition = 412
	ErrorCodeInternal     = 500
)

// IsNotFound checks if the error is a not-found API error.
func IsNotFound(err error) bool {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.Code == ErrorCodeNotFound
	}

	statusErr := &StatusError{}
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusNotFound
	}

	return false
}

// IsForbidden checks if the error is a forbidden API error.
func IsForbidden(err error) bool {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.Code == ErrorCodeForbidden
	}

	return false
}

// IsPreconditionFailed checks if the error is a concurrency-token mismatch.
func IsPreconditionFailed(err error) bool {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.Code == ErrorCodePrecondition
	}

	statusErr := &StatusError{}
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusPreconditionFailed
	}

	return false
}
