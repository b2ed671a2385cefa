// Package apperror defines the error taxonomy shared by every layer.
//
// THE FOUR OUTCOMES A CALLER CARES ABOUT:
//   - ErrValidation → the input was wrong, fix the request (400)
//   - ErrNotFound   → the row you targeted does not exist (404)
//   - ErrConflict   → a unique key already exists (409, or "already saved" on add)
//   - ErrStorage    → the datastore failed (500, logged with the driver code)
//
// ErrForbidden covers the session check on collection routes (403).
// ErrUpstream means a third-party API we depend on failed (502).
//
// Layers below the handler return *AppError values wrapped with %w.
// The handler walks the chain with errors.Is / errors.As to pick a status.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("Validation Error")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
	ErrStorage    = errors.New("storage error")
	ErrUpstream   = errors.New("upstream error")
)

type AppError struct {
	Err     error  // sentinel (ErrNotFound, ErrStorage, ...)
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Code    string // Optional: provider error code (SQLSTATE, sqlite result code)
	Hint    string // Optional: operator hint derived from Code
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Upstream wraps a failure of an external service.
func Upstream(service string, cause error) *AppError {
	msg := service + " is unavailable"
	if cause != nil {
		msg = service + ": " + cause.Error()
	}
	return &AppError{
		Err:     ErrUpstream,
		Message: msg,
	}
}

// Storage wraps a datastore failure. code is the provider's own error code
// and may be empty when the driver did not report one.
func Storage(code string, cause error) *AppError {
	msg := "storage failure"
	if cause != nil {
		msg = cause.Error()
	}
	return &AppError{
		Err:     ErrStorage,
		Message: msg,
		Code:    code,
		Hint:    HintFor(code),
	}
}

// hints maps well-known SQLSTATE codes to an action the operator can take.
var hints = map[string]string{
	"42P01": "tables are missing: run the migrations (POST /api/db/init or restart the server)",
	"3D000": "the database does not exist: check DATABASE_URL",
	"28P01": "authentication failed: check the credentials in DATABASE_URL",
}

// HintFor returns the operator hint for a provider code, or "".
func HintFor(code string) string {
	return hints[code]
}

// CodeOf returns the provider code carried by the first *AppError in err's chain.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
