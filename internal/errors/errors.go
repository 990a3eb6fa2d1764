package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes
const (
	ErrCodeNotFound    = "NOT_FOUND"
	ErrCodeValidation  = "VALIDATION_ERROR"
	ErrCodeInvalidCard = "INVALID_CARD"
	ErrCodeIO          = "IO_ERROR"
	ErrCodeInternal    = "INTERNAL_ERROR"
	ErrCodeBadRequest  = "BAD_REQUEST"
)

// AppError represents an application error with an error code and the HTTP
// status used when it crosses the API boundary.
type AppError struct {
	Code    string // Error code (e.g., "NOT_FOUND", "INVALID_CARD")
	Message string // Human-readable error message
	Status  int    // HTTP status code
	Err     error  // Wrapped underlying error (optional)
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error wrapping support
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new NOT_FOUND error
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %v", resource, id),
		Status:  404,
	}
}

// NewValidationError creates a new VALIDATION_ERROR
func NewValidationError(field string, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf("validation failed for %s: %s", field, reason),
		Status:  422,
	}
}

// NewInvalidCardError reports a card file whose metadata header cannot be
// decoded. The file exists; it is just not a card.
func NewInvalidCardError(path string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidCard,
		Message: fmt.Sprintf("unable to load card %q", path),
		Status:  422,
		Err:     err,
	}
}

// NewIOError wraps a failed read or write of a card file.
func NewIOError(op, path string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeIO,
		Message: fmt.Sprintf("failed to %s %q", op, path),
		Status:  500,
		Err:     err,
	}
}

// NewInternalError creates a new INTERNAL_ERROR
func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: "internal error",
		Status:  500,
		Err:     err,
	}
}

// NewBadRequestError creates a new BAD_REQUEST error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeBadRequest,
		Message: message,
		Status:  400,
	}
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func hasCode(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// IsInvalidCard reports whether err is an INVALID_CARD error.
func IsInvalidCard(err error) bool { return hasCode(err, ErrCodeInvalidCard) }

// IsValidation reports whether err is a VALIDATION_ERROR.
func IsValidation(err error) bool { return hasCode(err, ErrCodeValidation) }

// IsNotFound reports whether err is a NOT_FOUND error.
func IsNotFound(err error) bool { return hasCode(err, ErrCodeNotFound) }

// IsIO reports whether err is an IO_ERROR.
func IsIO(err error) bool { return hasCode(err, ErrCodeIO) }
