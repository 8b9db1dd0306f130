// Package errors defines the AppError type rendered into the API error envelope.
package errors

import (
	"errors"
	"net/http"
)

// AppError pairs a stable client-facing code and message with an HTTP status.
// Internal carries the cause for logs and never reaches the client.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// New declares an AppError. Services use it for their domain sentinels.
func New(code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, StatusCode: status}
}

var (
	ErrUnauthorized   = New("UNAUTHORIZED", "Authentication required", http.StatusUnauthorized)
	ErrForbidden      = New("FORBIDDEN", "Permission denied", http.StatusForbidden)
	ErrNotFound       = New("NOT_FOUND", "Resource not found", http.StatusNotFound)
	ErrBadRequest     = New("BAD_REQUEST", "Invalid request", http.StatusBadRequest)
	ErrConflict       = New("CONFLICT", "Resource already exists", http.StatusConflict)
	ErrCSRFInvalid    = New("CSRF_INVALID", "Invalid or missing CSRF token", http.StatusForbidden)
	ErrRateLimit      = New("RATE_LIMIT_EXCEEDED", "Too many requests, please slow down", http.StatusTooManyRequests)
	ErrInternalServer = New("INTERNAL_SERVER_ERROR", "Internal server error", http.StatusInternalServerError)
)

func (e *AppError) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.Internal == nil:
		return e.Message
	default:
		return e.Message + ": " + e.Internal.Error()
	}
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Internal
}

// Is matches on code and status, so copies made by WithInternal or WithMessage
// still satisfy errors.Is against the sentinel they came from.
func (e *AppError) Is(target error) bool {
	other, ok := target.(*AppError)
	if !ok || e == nil || other == nil {
		return false
	}
	return e.Code == other.Code && e.StatusCode == other.StatusCode
}

// WithInternal returns a copy carrying cause.
func (e *AppError) WithInternal(cause error) *AppError {
	if e == nil {
		return nil
	}
	out := *e
	out.Internal = cause
	return &out
}

// WithMessage returns a copy with a more specific client message.
func (e *AppError) WithMessage(message string) *AppError {
	if e == nil {
		return nil
	}
	out := *e
	out.Message = message
	return &out
}

// FromError finds the AppError in err's chain. Anything else becomes
// ErrInternalServer with err kept as the cause.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternalServer.WithInternal(err)
}

// NewBadRequest reports a malformed or invalid request body.
func NewBadRequest(message string) *AppError { return ErrBadRequest.WithMessage(message) }

// NewForbidden reports a denied operation with its reason.
func NewForbidden(message string) *AppError { return ErrForbidden.WithMessage(message) }
