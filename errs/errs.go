// Package errs defines the application error kinds and their HTTP mapping.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the failure modes the API distinguishes.
var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrNotFound           = errors.New("resource not found")
	// ErrReviewNotFound conflates a missing review with one owned by another
	// user. Callers must not be able to tell the two apart.
	ErrReviewNotFound = errors.New("review not found or unauthorized")
)

// AppError carries a user-facing message and an HTTP status alongside the
// underlying sentinel, so handlers can surface errors without switching on
// every failure site.
type AppError struct {
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Validation creates a 400 error for malformed or missing input.
func Validation(message string) *AppError {
	return &AppError{Message: message, Status: http.StatusBadRequest, Err: ErrValidation}
}

// DuplicateUsername creates a 400 error for a username collision.
func DuplicateUsername(username string) *AppError {
	return &AppError{
		Message: fmt.Sprintf("username %q is already taken", username),
		Status:  http.StatusBadRequest,
		Err:     ErrDuplicateUsername,
	}
}

// InvalidCredentials creates a 400 error. The message is identical whether
// the username is unknown or the password wrong.
func InvalidCredentials() *AppError {
	return &AppError{
		Message: "invalid username or password",
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidCredentials,
	}
}

// Unauthenticated creates a 401 error for a missing, malformed, or expired
// bearer token.
func Unauthenticated(message string) *AppError {
	return &AppError{Message: message, Status: http.StatusUnauthorized, Err: ErrUnauthenticated}
}

// NotFound creates a 404 error for an absent resource.
func NotFound(resource string) *AppError {
	return &AppError{
		Message: resource + " not found",
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// ReviewNotFound creates the opaque 404 returned for review mutations,
// whether the review is absent or owned by someone else.
func ReviewNotFound() *AppError {
	return &AppError{
		Message: "review not found or unauthorized",
		Status:  http.StatusNotFound,
		Err:     ErrReviewNotFound,
	}
}

// HTTPStatus returns the status code for err, defaulting to 500 for
// anything the API does not distinguish.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrDuplicateUsername),
		errors.Is(err, ErrInvalidCredentials):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrReviewNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
