package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/daybuddy/internal/logger"
)

var (
	// ErrNotFound is returned by stores when the requested row does not exist
	ErrNotFound = stderrors.New("not found")
	// ErrInvalidInput is returned when a caller supplies a malformed user id, day or name
	ErrInvalidInput = stderrors.New("invalid input")
)

// StorageError marks a failure reading or writing the log or habit stores.
// Storage errors are transient: the operation can be re-driven on the next
// trigger or sweep tick.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Storage wraps err as a StorageError for the named operation.
// Nil errors and ErrNotFound pass through unchanged.
func Storage(op string, err error) error {
	if err == nil || stderrors.Is(err, ErrNotFound) {
		return err
	}
	var se *StorageError
	if stderrors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsTransient reports whether err is worth retrying on a later trigger
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var se *StorageError
	if stderrors.As(err, &se) {
		return true
	}
	return stderrors.Is(err, context.DeadlineExceeded)
}

// Invalid returns an ErrInvalidInput error with a description
func Invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}
