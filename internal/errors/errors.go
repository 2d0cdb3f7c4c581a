package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrStorage means local persistence broke. Fatal to the current
	// operation and surfaced to the caller; never retried automatically.
	ErrStorage ErrorType = "STORAGE_FAILURE"
	// ErrTransport means a remote authority could not be reached.
	// Recoverable; the affected entries are retried on the next drain.
	ErrTransport ErrorType = "TRANSPORT_FAILURE"
	// ErrValidation means a payload was rejected at an application
	// level. Non-retriable as-is.
	ErrValidation ErrorType = "VALIDATION_REJECTED"
	ErrNotFound   ErrorType = "NOT_FOUND"
	ErrInternal   ErrorType = "INTERNAL"
)

// AppError represents an application error
type AppError struct {
	Type      ErrorType
	Message   string
	Cause     error
	Timestamp time.Time
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:      errType,
		Message:   message,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

func isType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// IsStorageFailure checks if the error is a local persistence failure
func IsStorageFailure(err error) bool {
	return isType(err, ErrStorage)
}

// IsTransportFailure checks if the error is a recoverable remote failure
func IsTransportFailure(err error) bool {
	return isType(err, ErrTransport)
}

// IsValidationError checks if the error is a validation rejection
func IsValidationError(err error) bool {
	return isType(err, ErrValidation)
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return isType(err, ErrNotFound) || errors.As(err, new(*EnrollmentNotFoundError))
}

// NewStorageError creates a new storage failure error
func NewStorageError(message string, err error) *AppError {
	return New(ErrStorage, message, err)
}

// NewTransportError creates a new transport failure error
func NewTransportError(message string, err error) *AppError {
	return New(ErrTransport, message, err)
}

// NewValidationError creates a new validation error
func NewValidationError(message string, err error) *AppError {
	return New(ErrValidation, message, err)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, err error) *AppError {
	return New(ErrNotFound, message, err)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return New(ErrInternal, message, err)
}

// SyncInProgressError is returned when a drain is requested while a
// previous drain pass is still running.
type SyncInProgressError struct{}

func (e *SyncInProgressError) Error() string {
	return "sync already in progress"
}

// NewSyncInProgressError creates a new SyncInProgressError
func NewSyncInProgressError() error {
	return &SyncInProgressError{}
}

// IsSyncInProgress checks if the error is a SyncInProgressError
func IsSyncInProgress(err error) bool {
	var target *SyncInProgressError
	return errors.As(err, &target)
}

// EnrollmentNotFoundError represents a missing enrollment record
type EnrollmentNotFoundError struct {
	UserID   string
	CourseID string
}

func (e *EnrollmentNotFoundError) Error() string {
	return fmt.Sprintf("enrollment not found: %s/%s", e.UserID, e.CourseID)
}

// NewEnrollmentNotFoundError creates a new EnrollmentNotFoundError
func NewEnrollmentNotFoundError(userID, courseID string) error {
	return &EnrollmentNotFoundError{UserID: userID, CourseID: courseID}
}
