package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidCredentials   = fmt.Errorf("invalid credentials")
	ErrInvalidToken         = fmt.Errorf("invalid or expired token")
	ErrTokenGeneration      = fmt.Errorf("token generation failed")
	ErrInvalidPassword      = fmt.Errorf("password does not meet complexity rules")
	ErrUserAlreadyExists    = fmt.Errorf("user already exists")
	ErrSessionNotFound      = fmt.Errorf("session not found")
	ErrSessionClosed        = fmt.Errorf("session is closed")
	ErrAlreadyAuthenticated = fmt.Errorf("session is already authenticated")
	ErrNotAuthenticated     = fmt.Errorf("session is not authenticated")
	ErrEmptyMessage         = fmt.Errorf("message is empty")
	ErrPersistence          = fmt.Errorf("message persistence failed")
	ErrSlowConsumer         = fmt.Errorf("consumer buffer is full")
	ErrWorkerPanic          = fmt.Errorf("worker panic")
)

// MapToHTTPStatus converts a domain error into the HTTP status the REST
// layer should answer with. Unknown errors are treated as internal.
func MapToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, ErrInvalidPassword),
		errors.Is(err, ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, ErrUserAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrPersistence):
		// Retryable: the submitter may resend the same message.
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
