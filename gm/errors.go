package gm

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind is the error field of a GM error response.
type ErrorKind string

const (
	ErrInvalidHttpMethod   ErrorKind = "invalid_http_method"
	ErrInvalidContentType  ErrorKind = "invalid_content_type"
	ErrInvalidSignature    ErrorKind = "invalid_signature"
	ErrInvalidRequest      ErrorKind = "invalid_request"
	ErrInvalidCommand      ErrorKind = "invalid_command"
	ErrInvalidArgs         ErrorKind = "invalid_args"
	ErrNetworkError        ErrorKind = "network_error"
	ErrDatabaseError       ErrorKind = "database_error"
	ErrIdempotencyConflict ErrorKind = "idempotency_conflict"
	ErrIdempotencyMismatch ErrorKind = "idempotency_mismatch"
	ErrTimeoutError        ErrorKind = "timeout_error"
	ErrMaintenanceError    ErrorKind = "maintenance_error"
	ErrThrottlingError     ErrorKind = "throttling_error"
	ErrInternalError       ErrorKind = "internal_error"
)

var statusByKind = map[ErrorKind]int{
	ErrInvalidHttpMethod:   http.StatusMethodNotAllowed,
	ErrInvalidContentType:  http.StatusUnsupportedMediaType,
	ErrInvalidSignature:    http.StatusUnauthorized,
	ErrInvalidRequest:      http.StatusBadRequest,
	ErrInvalidCommand:      http.StatusBadRequest,
	ErrInvalidArgs:         http.StatusBadRequest,
	ErrNetworkError:        http.StatusInternalServerError,
	ErrDatabaseError:       http.StatusInternalServerError,
	ErrIdempotencyConflict: http.StatusConflict,
	ErrIdempotencyMismatch: http.StatusUnprocessableEntity,
	ErrTimeoutError:        http.StatusInternalServerError,
	ErrMaintenanceError:    http.StatusServiceUnavailable,
	ErrThrottlingError:     http.StatusTooManyRequests,
	ErrInternalError:       http.StatusInternalServerError,
}

// Status returns the HTTP status for k; unknown kinds map to 500.
func (k ErrorKind) Status() int {
	if status, ok := statusByKind[k]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Error is a structured GM error. Handlers return it to pick the error kind
// and status of the response.
type Error struct {
	Kind    ErrorKind `json:"error"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError keeps err for errors.Is/As while exposing only message.
func WrapError(kind ErrorKind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status for the error kind.
func (e *Error) Status() int {
	return e.Kind.Status()
}

// AsError finds a structured error in err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
