package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeConflict indicates a conflict with existing state (e.g., a URL already being processed).
	ErrCodeConflict ErrorCode = "conflict"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeQueueFull indicates the admission gate rejected a submission at capacity.
	ErrCodeQueueFull ErrorCode = "queue_full"
	// ErrCodeFetchFailed indicates the source document could not be fetched.
	ErrCodeFetchFailed ErrorCode = "fetch_failed"
	// ErrCodeContentRejected indicates the fetched content was judged not to be an article.
	ErrCodeContentRejected ErrorCode = "content_rejected"
	// ErrCodeModelCallFailed indicates the language model call errored or timed out.
	ErrCodeModelCallFailed ErrorCode = "model_call_failed"
	// ErrCodeParseDegraded indicates model output could not be structured.
	// This code is non-fatal: it marks a degraded payload, never a job failure.
	ErrCodeParseDegraded ErrorCode = "parse_degraded"
	// ErrCodePersistenceFailed indicates the final record could not be written.
	ErrCodePersistenceFailed ErrorCode = "persistence_failed"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
)

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Field is the specific field that caused the error (optional, for validation errors)
	Field string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: message,
	}
}

// NotFoundf creates a new NotFound error with formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf(format, args...),
	}
}

// Conflict creates a new Conflict error.
func Conflict(message string) *AppError {
	return &AppError{
		Code:    ErrCodeConflict,
		Message: message,
	}
}

// Conflictf creates a new Conflict error with formatted message.
func Conflictf(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeConflict,
		Message: fmt.Sprintf(format, args...),
	}
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
	}
}

// Validationf creates a new Validation error with formatted message.
func Validationf(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
		Field:   field,
	}
}

// QueueFull creates a new QueueFull error.
func QueueFull(message string) *AppError {
	return &AppError{
		Code:    ErrCodeQueueFull,
		Message: message,
	}
}

// FetchFailed creates a new FetchFailed error.
func FetchFailed(message string) *AppError {
	return &AppError{
		Code:    ErrCodeFetchFailed,
		Message: message,
	}
}

// FetchFailedf creates a new FetchFailed error with formatted message.
func FetchFailedf(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeFetchFailed,
		Message: fmt.Sprintf(format, args...),
	}
}

// ContentRejected creates a new ContentRejected error.
func ContentRejected(message string) *AppError {
	return &AppError{
		Code:    ErrCodeContentRejected,
		Message: message,
	}
}

// ModelCallFailed creates a new ModelCallFailed error.
func ModelCallFailed(message string) *AppError {
	return &AppError{
		Code:    ErrCodeModelCallFailed,
		Message: message,
	}
}

// PersistenceFailed creates a new PersistenceFailed error.
func PersistenceFailed(message string) *AppError {
	return &AppError{
		Code:    ErrCodePersistenceFailed,
		Message: message,
	}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
	}
}

// Internalf creates a new Internal error with formatted message.
func Internalf(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool {
	return isCode(err, ErrCodeNotFound)
}

// IsConflict checks if an error is a Conflict error.
func IsConflict(err error) bool {
	return isCode(err, ErrCodeConflict)
}

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool {
	return isCode(err, ErrCodeValidation)
}

// IsQueueFull checks if an error is a QueueFull error.
func IsQueueFull(err error) bool {
	return isCode(err, ErrCodeQueueFull)
}

// IsFetchFailed checks if an error is a FetchFailed error.
func IsFetchFailed(err error) bool {
	return isCode(err, ErrCodeFetchFailed)
}

// IsContentRejected checks if an error is a ContentRejected error.
func IsContentRejected(err error) bool {
	return isCode(err, ErrCodeContentRejected)
}

// IsModelCallFailed checks if an error is a ModelCallFailed error.
func IsModelCallFailed(err error) bool {
	return isCode(err, ErrCodeModelCallFailed)
}

// IsPersistenceFailed checks if an error is a PersistenceFailed error.
func IsPersistenceFailed(err error) bool {
	return isCode(err, ErrCodePersistenceFailed)
}

// IsInternal checks if an error is an Internal error.
func IsInternal(err error) bool {
	return isCode(err, ErrCodeInternal)
}

// IsTimeout checks if an error is a Timeout error.
func IsTimeout(err error) bool {
	return isCode(err, ErrCodeTimeout)
}

// IsCanceled checks if an error is a Canceled error.
func IsCanceled(err error) bool {
	return isCode(err, ErrCodeCanceled)
}

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetField returns the Field from an error, or empty string if not an AppError or no field set.
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}
