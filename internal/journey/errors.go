package journey

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by stores when a referenced record does not exist.
var ErrNotFound = errors.New("record not found")

// InputErrorCode categorizes invalid caller input.
type InputErrorCode string

const (
	// ErrCodeUnknownStage indicates a stage name that is not registered.
	ErrCodeUnknownStage InputErrorCode = "UNKNOWN_STAGE"

	// ErrCodeUnknownSession indicates a session ID that was never started.
	ErrCodeUnknownSession InputErrorCode = "UNKNOWN_SESSION"

	// ErrCodeInvalidArgument indicates a malformed or out-of-range argument,
	// such as a non-positive limit or day count.
	ErrCodeInvalidArgument InputErrorCode = "INVALID_ARGUMENT"

	// ErrCodeDuplicateOrder indicates a stage order already in use.
	ErrCodeDuplicateOrder InputErrorCode = "DUPLICATE_ORDER"

	// ErrCodeDuplicateStage indicates a stage name already in use.
	ErrCodeDuplicateStage InputErrorCode = "DUPLICATE_STAGE"
)

// InputError reports caller input that the engine refuses to coerce.
type InputError struct {
	// Code identifies the error category.
	Code InputErrorCode

	// Message is a human-readable description.
	Message string

	// Field names the offending parameter, if any.
	Field string
}

// Error implements the error interface.
func (e *InputError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field=%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// StorageError wraps a failure at the persistence boundary.
// The engine surfaces it unchanged and never retries.
type StorageError struct {
	// Op names the store operation that failed (e.g. "read touchpoints").
	Op string

	// Err is the underlying driver or I/O error.
	Err error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsInputError returns true if err is or wraps an InputError.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// IsStorageError returns true if err is or wraps a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// InputErrorCodeOf returns the code of the InputError wrapped by err,
// or the empty code if err carries none.
func InputErrorCodeOf(err error) InputErrorCode {
	var ie *InputError
	if errors.As(err, &ie) {
		return ie.Code
	}
	return ""
}

// NewUnknownStageError creates an InputError for an unregistered stage.
func NewUnknownStageError(name string) *InputError {
	return &InputError{
		Code:    ErrCodeUnknownStage,
		Message: fmt.Sprintf("stage %q is not registered", name),
		Field:   "stage",
	}
}

// NewUnknownSessionError creates an InputError for a session that was never started.
func NewUnknownSessionError(id string) *InputError {
	return &InputError{
		Code:    ErrCodeUnknownSession,
		Message: fmt.Sprintf("session %q does not exist", id),
		Field:   "session_id",
	}
}

// NewInvalidArgumentError creates an InputError for a bad parameter value.
func NewInvalidArgumentError(field, message string) *InputError {
	return &InputError{
		Code:    ErrCodeInvalidArgument,
		Message: message,
		Field:   field,
	}
}

// RequirePositive returns an InputError unless n > 0.
func RequirePositive(field string, n int) error {
	if n <= 0 {
		return NewInvalidArgumentError(field, fmt.Sprintf("must be positive, got %d", n))
	}
	return nil
}

// RequireInRange returns an InputError unless 0 < n <= limit.
func RequireInRange(field string, n, limit int) error {
	if err := RequirePositive(field, n); err != nil {
		return err
	}
	if n > limit {
		return NewInvalidArgumentError(field, fmt.Sprintf("must be at most %d, got %d", limit, n))
	}
	return nil
}

// NewStorageError wraps err as a StorageError for op. Returns nil if err is nil.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
