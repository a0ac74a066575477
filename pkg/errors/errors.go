package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code so wrapped clones still satisfy errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for the submission review workflow.
var (
	ErrValidation      = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInvalidID       = New("INVALID_ID", http.StatusBadRequest, "invalid identifier")
	ErrNotFound        = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrUnauthorized    = New("UNAUTHORIZED", http.StatusUnauthorized, "authentication required")
	ErrForbidden       = New("FORBIDDEN", http.StatusForbidden, "insufficient permissions")
	ErrMissingArtifact = New("MISSING_ARTIFACT", http.StatusBadRequest, "file is required")
	ErrInvalidStatus   = New("INVALID_STATUS", http.StatusBadRequest, "status must be approved or rejected")
	ErrMissingComment  = New("MISSING_COMMENT", http.StatusBadRequest, "teacher comment is required when rejecting")
	ErrAlreadyReviewed = New("ALREADY_REVIEWED", http.StatusConflict, "submission has already been reviewed")
	ErrLedger          = New("LEDGER_ERROR", http.StatusBadGateway, "submission reviewed but crediting points failed")
	ErrUploadTooLarge  = New("UPLOAD_TOO_LARGE", http.StatusRequestEntityTooLarge, "file exceeds maximum allowed size")
	ErrUploadType      = New("UPLOAD_TYPE_NOT_ALLOWED", http.StatusUnsupportedMediaType, "file type not allowed")
	ErrStorage         = New("STORAGE_ERROR", http.StatusBadGateway, "file storage unavailable")
	ErrInternal        = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// WithCause returns a copy of err wrapping cause, keeping code, status and message.
func WithCause(err *Error, cause error) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	clone.Err = cause
	return &clone
}
