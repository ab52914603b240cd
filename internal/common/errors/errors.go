// Package errors provides the error taxonomy shared by the wizard components.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed  ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"

	ErrCodeResolutionFailed ErrorCode = "RESOLUTION_FAILED"

	ErrCodeTransportError ErrorCode = "TRANSPORT_ERROR"
	ErrCodeUpstreamStatus ErrorCode = "UPSTREAM_STATUS"
	ErrCodeUpstreamSchema ErrorCode = "UPSTREAM_SCHEMA"

	ErrCodeUploadRejected ErrorCode = "UPLOAD_REJECTED"
	ErrCodeUnknownSlot    ErrorCode = "UNKNOWN_DOCUMENT_SLOT"

	ErrCodeHandoffFailed ErrorCode = "HANDOFF_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithCause sets the wrapped error and returns e.
func (e *StandardError) WithCause(err error) *StandardError {
	e.cause = err
	return e
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationError reports a stage-local input problem. Never fatal.
func NewValidationError(field, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Input is not valid for this step",
		Details:   details,
		Retryable: true,
		Metadata:  map[string]interface{}{"field": field},
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidTransitionError reports a command that the current mode does not accept.
func NewInvalidTransitionError(command, mode string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidTransition,
		Message:   "Action not available at this point",
		Details:   fmt.Sprintf("command: %s, mode: %s", command, mode),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewResolutionFailedError wraps a geocoding failure.
func NewResolutionFailedError(reason string, err error) *StandardError {
	details := reason
	if err != nil {
		details = fmt.Sprintf("reason: %s, error: %s", reason, err.Error())
	}
	return &StandardError{
		Code:      ErrCodeResolutionFailed,
		Message:   "Could not determine your postal code",
		Details:   details,
		Retryable: true,
		Metadata:  map[string]interface{}{"reason": reason},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewTransportError reports a failed call to an external service.
func NewTransportError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTransportError,
		Message:   fmt.Sprintf("Service '%s' could not be reached", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewUpstreamStatusError reports a non-2xx response.
func NewUpstreamStatusError(service string, status int, message string) *StandardError {
	if message == "" {
		message = fmt.Sprintf("HTTP error! status: %d", status)
	}
	return &StandardError{
		Code:      ErrCodeUpstreamStatus,
		Message:   message,
		Details:   fmt.Sprintf("service: %s, status: %d", service, status),
		Retryable: status >= 500,
		Metadata:  map[string]interface{}{"status": status},
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamSchemaError reports a response body that does not match its contract.
func NewUpstreamSchemaError(service string, problems []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamSchema,
		Message:   fmt.Sprintf("Service '%s' returned an unexpected response", service),
		Details:   strings.Join(problems, "; "),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUploadRejectedError reports a file refused by the upload validators.
func NewUploadRejectedError(documentID, reason string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUploadRejected,
		Message:   "File was not accepted",
		Details:   fmt.Sprintf("documentId: %s, reason: %s", documentID, reason),
		Retryable: true,
		Metadata:  map[string]interface{}{"documentId": documentID, "reason": reason},
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownSlotError reports an upload for a requirement that does not exist.
func NewUnknownSlotError(documentID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownSlot,
		Message:   "Unknown document slot",
		Details:   fmt.Sprintf("documentId: %s", documentID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewHandoffFailedError reports that a submitted application could not be delivered.
func NewHandoffFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeHandoffFailed,
		Message:   "Application could not be forwarded",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// CodeOf returns the code of the first StandardError in err's chain.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "TRANSITION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "RESOLUTION"):
		return "GEOCODING"
	case strings.Contains(codeStr, "TRANSPORT") || strings.Contains(codeStr, "UPSTREAM"):
		return "TRANSPORT"
	case strings.Contains(codeStr, "UPLOAD") || strings.Contains(codeStr, "SLOT"):
		return "UPLOAD"
	case strings.Contains(codeStr, "HANDOFF"):
		return "HANDOFF"
	default:
		return "OTHER"
	}
}
