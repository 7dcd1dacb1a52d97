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
	// ErrCodeConflict indicates a conflict with existing data (e.g., unique constraint violation).
	ErrCodeConflict ErrorCode = "conflict"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"

	// ErrCodeDirectoryUnavailable indicates the department directory on the primary server could not be read.
	ErrCodeDirectoryUnavailable ErrorCode = "directory_unavailable"
	// ErrCodeTenantNotFound indicates the requested department is not listed in the directory.
	ErrCodeTenantNotFound ErrorCode = "tenant_not_found"
	// ErrCodePoolConnectionFailed indicates a department's database could not be reached with the class login.
	ErrCodePoolConnectionFailed ErrorCode = "pool_connection_failed"
	// ErrCodeIdentityNotFound indicates the identity lookup returned no usable row.
	ErrCodeIdentityNotFound ErrorCode = "identity_not_found"
	// ErrCodeRestrictedIdentifierNotFound indicates a student identifier failed the existence check.
	ErrCodeRestrictedIdentifierNotFound ErrorCode = "restricted_identifier_not_found"
)

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
//
// Message is safe to show to end users. Cause may carry server names or driver
// detail and is meant for server-side logs only.
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
	return &AppError{Code: ErrCodeNotFound, Message: message}
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message}
}

// Validationf creates a new Validation error with formatted message.
func Validationf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message, Field: field}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: message}
}

// DirectoryUnavailable reports that the department directory could not be read.
func DirectoryUnavailable(cause error) *AppError {
	return &AppError{
		Code:    ErrCodeDirectoryUnavailable,
		Message: "department directory is unavailable",
		Cause:   cause,
	}
}

// TenantNotFound reports that name is not listed in the directory.
func TenantNotFound(name string) *AppError {
	return &AppError{
		Code:    ErrCodeTenantNotFound,
		Message: fmt.Sprintf("department %q not found", name),
	}
}

// PoolConnectionFailed reports that a department pool could not be acquired or used.
func PoolConnectionFailed(cause error) *AppError {
	return &AppError{
		Code:    ErrCodePoolConnectionFailed,
		Message: "department database is unavailable",
		Cause:   cause,
	}
}

// IdentityNotFound reports that the identity lookup produced no usable principal.
func IdentityNotFound(cause error) *AppError {
	return &AppError{
		Code:    ErrCodeIdentityNotFound,
		Message: "invalid credentials",
		Cause:   cause,
	}
}

// RestrictedIdentifierNotFound reports that a student identifier does not exist.
func RestrictedIdentifierNotFound() *AppError {
	return &AppError{
		Code:    ErrCodeRestrictedIdentifierNotFound,
		Message: "invalid credentials",
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
	return Wrap(err, code, fmt.Sprintf(format, args...))
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

// IsDirectoryUnavailable checks if an error is a DirectoryUnavailable error.
func IsDirectoryUnavailable(err error) bool {
	return isCode(err, ErrCodeDirectoryUnavailable)
}

// IsTenantNotFound checks if an error is a TenantNotFound error.
func IsTenantNotFound(err error) bool {
	return isCode(err, ErrCodeTenantNotFound)
}

// IsPoolConnectionFailed checks if an error is a PoolConnectionFailed error.
func IsPoolConnectionFailed(err error) bool {
	return isCode(err, ErrCodePoolConnectionFailed)
}

// IsIdentityNotFound checks if an error is an IdentityNotFound error.
func IsIdentityNotFound(err error) bool {
	return isCode(err, ErrCodeIdentityNotFound)
}

// IsRestrictedIdentifierNotFound checks if an error is a RestrictedIdentifierNotFound error.
func IsRestrictedIdentifierNotFound(err error) bool {
	return isCode(err, ErrCodeRestrictedIdentifierNotFound)
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
