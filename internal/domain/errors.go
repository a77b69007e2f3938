package domain

import (
	"errors"
	"net/http"
	"sort"
)

// Error codes for business logic errors.
const (
	CodeNotFound      = 1
	CodeAlreadyExists = 2
	CodeValidation    = 3
	CodeInternal      = 4
	CodeConflict      = 5
	CodePrecondition  = 6
	CodeUnauthorized  = 7
	CodeForbidden     = 8
)

// FieldErrors maps a field path (JSON names, dot separated) to every message
// reported for it.
type FieldErrors map[string][]string

// Add appends msg to the messages of field.
func (f FieldErrors) Add(field, msg string) {
	f[field] = append(f[field], msg)
}

// Merge copies all messages of other into f.
func (f FieldErrors) Merge(other FieldErrors) {
	for field, msgs := range other {
		f[field] = append(f[field], msgs...)
	}
}

// Fields returns the failing field names in sorted order.
func (f FieldErrors) Fields() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AppError represents a business logic error with a code, message, and optional wrapped error.
// Validation errors additionally carry per-field messages.
type AppError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Fields  FieldErrors `json:"errors,omitempty"`
	Err     error       `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the wrapped error for use with errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined business errors.
//
// To check whether an error matches one of these categories, use the
// corresponding helper function (IsNotFound, IsConflict, etc.) instead of
// errors.Is. The helpers compare error codes through errors.As, so they also
// match freshly constructed and wrapped instances.
var (
	ErrNotFound      = &AppError{Code: CodeNotFound, Message: "not found"}
	ErrAlreadyExists = &AppError{Code: CodeAlreadyExists, Message: "already exists"}
	ErrValidation    = &AppError{Code: CodeValidation, Message: "validation error"}
	ErrInternal      = &AppError{Code: CodeInternal, Message: "internal error"}
	ErrConflict      = &AppError{Code: CodeConflict, Message: "row version mismatch, reload and retry"}
	ErrPrecondition  = &AppError{Code: CodePrecondition, Message: "precondition failed"}
	ErrUnauthorized  = &AppError{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrForbidden     = &AppError{Code: CodeForbidden, Message: "forbidden"}
)

// NewAppError creates a new AppError with the given code, message, and wrapped error.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewValidationError creates a validation error listing every failing field.
func NewValidationError(fields FieldErrors) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: "validation error",
		Fields:  fields,
	}
}

// IsNotFound reports whether err is or wraps an AppError with CodeNotFound.
func IsNotFound(err error) bool {
	return hasCode(err, CodeNotFound)
}

// IsAlreadyExists reports whether err is or wraps an AppError with CodeAlreadyExists.
func IsAlreadyExists(err error) bool {
	return hasCode(err, CodeAlreadyExists)
}

// IsValidation reports whether err is or wraps an AppError with CodeValidation.
func IsValidation(err error) bool {
	return hasCode(err, CodeValidation)
}

// IsInternal reports whether err is or wraps an AppError with CodeInternal.
func IsInternal(err error) bool {
	return hasCode(err, CodeInternal)
}

// IsConflict reports whether err is or wraps an AppError with CodeConflict.
func IsConflict(err error) bool {
	return hasCode(err, CodeConflict)
}

// IsPrecondition reports whether err is or wraps an AppError with CodePrecondition.
func IsPrecondition(err error) bool {
	return hasCode(err, CodePrecondition)
}

// IsUnauthorized reports whether err is or wraps an AppError with CodeUnauthorized.
func IsUnauthorized(err error) bool {
	return hasCode(err, CodeUnauthorized)
}

// IsForbidden reports whether err is or wraps an AppError with CodeForbidden.
func IsForbidden(err error) bool {
	return hasCode(err, CodeForbidden)
}

// FieldErrorsOf returns the per-field messages of a validation error, or nil.
func FieldErrorsOf(err error) FieldErrors {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Fields
	}
	return nil
}

// hasCode checks whether err is or wraps an *AppError with the given code.
func hasCode(err error, code int) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// HTTPStatusCode maps an error to an HTTP status code.
// If the error is an *AppError, the code is mapped; otherwise http.StatusInternalServerError is returned.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if err != nil && errors.As(err, &appErr) {
		switch appErr.Code {
		case CodeNotFound:
			return http.StatusNotFound
		case CodeAlreadyExists, CodeConflict:
			return http.StatusConflict
		case CodeValidation:
			return http.StatusBadRequest
		case CodePrecondition:
			return http.StatusPreconditionFailed
		case CodeUnauthorized:
			return http.StatusUnauthorized
		case CodeForbidden:
			return http.StatusForbidden
		case CodeInternal:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}

// Kind returns a short stable name for the error category, used in problem types and metrics.
func Kind(err error) string {
	var appErr *AppError
	if err == nil {
		return "ok"
	}
	if !errors.As(err, &appErr) {
		return "internal"
	}
	switch appErr.Code {
	case CodeNotFound:
		return "not-found"
	case CodeAlreadyExists:
		return "already-exists"
	case CodeValidation:
		return "validation"
	case CodeConflict:
		return "conflict"
	case CodePrecondition:
		return "precondition"
	case CodeUnauthorized:
		return "unauthorized"
	case CodeForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}
