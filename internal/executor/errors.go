package executor

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DocumentError represents an environmental failure while checking a
// document, such as an unreadable file or failed scratch space creation.
// Render failures are not DocumentErrors; they are recorded per block.
type DocumentError struct {
	Path      string    // Document that could not be checked
	Message   string    // Human-readable error message
	Err       error     // Underlying error (optional)
	Timestamp time.Time // When the error occurred
}

// NewDocumentError creates a new DocumentError with the current timestamp.
func NewDocumentError(path, msg string, err error) *DocumentError {
	return &DocumentError{
		Path:      path,
		Message:   msg,
		Err:       err,
		Timestamp: time.Now(),
	}
}

// Error implements the error interface for DocumentError.
func (e *DocumentError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s: %s", e.Path, e.Message))
	if e.Err != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Err))
	}
	return sb.String()
}

// Unwrap returns the underlying error for error wrapping support.
func (e *DocumentError) Unwrap() error {
	return e.Err
}

// IsDocumentError checks if the error is or wraps a DocumentError.
func IsDocumentError(err error) bool {
	if err == nil {
		return false
	}
	var de *DocumentError
	return errors.As(err, &de)
}
