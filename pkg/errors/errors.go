// Package errors defines the error vocabulary shared by the catalog packages
// and how each error maps onto an HTTP status.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels for errors.Is checks. Constructors below wrap one of these so
// callers can branch on the kind without knowing the code.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrInternal       = errors.New("internal error")
	ErrBadGateway     = errors.New("bad gateway")
	ErrServiceUnavail = errors.New("service unavailable")
)

// sentinelStatus is checked in order, first match wins.
var sentinelStatus = []struct {
	target error
	status int
}{
	{ErrNotFound, http.StatusNotFound},
	{ErrInvalidInput, http.StatusBadRequest},
	{ErrBadGateway, http.StatusBadGateway},
	{ErrServiceUnavail, http.StatusServiceUnavailable},
}

// AppError is an error with a public code and message. Err holds the
// internal cause and is never serialized.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func newAppError(status int, code, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Status: status, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

// NotFound reports a missing resource by kind and id.
func NotFound(resource, id string) *AppError {
	return newAppError(http.StatusNotFound, "NOT_FOUND",
		fmt.Sprintf("%s with id %s not found", resource, id), ErrNotFound)
}

func InvalidInput(message string) *AppError {
	return newAppError(http.StatusBadRequest, "INVALID_INPUT", message, ErrInvalidInput)
}

// BadGateway reports a failed or invalid upstream response. code
// distinguishes the failure, e.g. "UPSTREAM_UNAVAILABLE"; cause stays
// reachable through errors.Is and errors.As.
func BadGateway(code, message string, cause error) *AppError {
	return newAppError(http.StatusBadGateway, code, message, errors.Join(ErrBadGateway, cause))
}

func ServiceUnavailable(code, message string) *AppError {
	return newAppError(http.StatusServiceUnavailable, code, message, ErrServiceUnavail)
}

// Internal hides err behind a generic message.
func Internal(err error) *AppError {
	return newAppError(http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred", err)
}

// Wrap prefixes err with message, keeping it unwrappable.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus maps err to a response status: an AppError anywhere in the
// chain wins, then the sentinels, then 500.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	for _, s := range sentinelStatus {
		if errors.Is(err, s.target) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}
