package errors

import (
	"fmt"
)

// ErrorType categorizes failures outside the rating engine
type ErrorType string

const (
	// ErrTypeParsing marks input that could not be read as a table
	ErrTypeParsing ErrorType = "PARSING"
	// ErrTypeStorage marks a failed report write
	ErrTypeStorage ErrorType = "STORAGE"
	// ErrTypeNetwork marks a failed fetch from a remote source
	ErrTypeNetwork ErrorType = "NETWORK"
)

// AppError is a categorized error raised by the loaders and exporters.
// Context carries details that are safe to show to the client.
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap exposes the cause to errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext attaches a detail and returns e for chaining
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewParsingError reports an input file or stream that is not a readable table
func NewParsingError(message string, cause error) *AppError {
	return &AppError{Type: ErrTypeParsing, Message: message, Cause: cause}
}

// NewStorageError reports a report that could not be written
func NewStorageError(message string, cause error) *AppError {
	return &AppError{Type: ErrTypeStorage, Message: message, Cause: cause}
}

// NewNetworkError reports a remote source that could not be read
func NewNetworkError(message string, cause error) *AppError {
	return &AppError{Type: ErrTypeNetwork, Message: message, Cause: cause}
}
