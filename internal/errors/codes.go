package errors

import (
	"fmt"
)

// ErrorCode represents a specific error type for triage operations.
type ErrorCode string

const (
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeComposeFailed indicates the reply could not be produced.
	ErrCodeComposeFailed ErrorCode = "COMPOSE_FAILED"
	// ErrCodeLLMUnavailable indicates the completion service is not available.
	ErrCodeLLMUnavailable ErrorCode = "LLM_UNAVAILABLE"
	// ErrCodeVectorUnavailable indicates the vector store is not available.
	ErrCodeVectorUnavailable ErrorCode = "VECTOR_UNAVAILABLE"
	// ErrCodeNotifyFailed indicates the operator chat message could not be sent.
	ErrCodeNotifyFailed ErrorCode = "NOTIFY_FAILED"
	// ErrCodeDispatchFailed indicates the outbound reply webhook failed.
	ErrCodeDispatchFailed ErrorCode = "DISPATCH_FAILED"
	// ErrCodeContextCanceled indicates the operation was canceled.
	ErrCodeContextCanceled ErrorCode = "CONTEXT_CANCELED"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// TriageError represents a structured error for triage operations.
type TriageError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *TriageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *TriageError) Unwrap() error {
	return e.Cause
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *TriageError {
	return &TriageError{Code: ErrCodeInvalidArgument, Message: msg}
}

// ComposeFailed creates a compose failed error.
func ComposeFailed(msg string, cause error) *TriageError {
	return &TriageError{Code: ErrCodeComposeFailed, Message: msg, Cause: cause}
}

// LLMUnavailable creates an LLM unavailable error.
func LLMUnavailable(msg string) *TriageError {
	return &TriageError{Code: ErrCodeLLMUnavailable, Message: msg}
}

// NotifyFailed creates a notify failed error.
func NotifyFailed(msg string, cause error) *TriageError {
	return &TriageError{Code: ErrCodeNotifyFailed, Message: msg, Cause: cause}
}

// DispatchFailed creates a dispatch failed error.
func DispatchFailed(msg string, cause error) *TriageError {
	return &TriageError{Code: ErrCodeDispatchFailed, Message: msg, Cause: cause}
}

// Timeout creates a timeout error.
func Timeout(msg string) *TriageError {
	return &TriageError{Code: ErrCodeTimeout, Message: msg}
}

// Wrap wraps an existing error with additional context.
func Wrap(cause error, code ErrorCode, msg string) *TriageError {
	return &TriageError{Code: code, Message: msg, Cause: cause}
}

// IsCode checks if an error is of a specific code.
func IsCode(err error, code ErrorCode) bool {
	if terr, ok := err.(*TriageError); ok {
		return terr.Code == code
	}
	return false
}
