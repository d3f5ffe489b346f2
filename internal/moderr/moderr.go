package moderr

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCacheUnavailable       ErrorCode = "CACHE_UNAVAILABLE"
	ErrConcurrentModification ErrorCode = "CONCURRENT_MODIFICATION"
	ErrContentFetchFailed     ErrorCode = "CONTENT_FETCH_FAILED"
	ErrMalformedKey           ErrorCode = "MALFORMED_KEY"
	ErrNotFound               ErrorCode = "NOT_FOUND"
	ErrInvalidInput           ErrorCode = "INVALID_INPUT"
	ErrInternal               ErrorCode = "INTERNAL"
)

// Error is the queue subsystem's error envelope: a stable code for callers
// to branch on, a human message, and the underlying cause.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Err: cause}
}

// CodeOf extracts the error code from err, walking wrapped errors.
// Unrecognized errors map to ErrInternal.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrInternal
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// MapErrorToHTTPStatus translates a subsystem error into the status the
// moderator API should respond with.
func MapErrorToHTTPStatus(err error) int {
	switch CodeOf(err) {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrInvalidInput, ErrMalformedKey:
		return http.StatusBadRequest
	case ErrConcurrentModification:
		return http.StatusConflict
	case ErrContentFetchFailed:
		return http.StatusBadGateway
	case ErrCacheUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
