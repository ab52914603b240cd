// internal/common/errors/handler.go
package errors

import (
	"errors"
	"time"
)

// ErrorHandler turns component errors into something a person can act on.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Warn(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs err and returns the message to show inline. Nothing handled
// here is fatal; every category has a retry or alternate path.
func (h *ErrorHandler) Handle(operation string, err error) string {
	if err == nil {
		return ""
	}
	stdErr := h.normalizeError(err)
	h.logger.Warn("operation failed", map[string]interface{}{
		"operation":     operation,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	})
	return UserMessage(stdErr)
}

// normalizeError ensures we always have a StandardError
func (h *ErrorHandler) normalizeError(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// UserMessage picks the inline text for an error.
func UserMessage(e *StandardError) string {
	switch e.Code {
	case ErrCodeValidationFailed:
		if e.Details != "" {
			return e.Details
		}
		return e.Message
	case ErrCodeResolutionFailed:
		return e.Message + ". Please try entering it manually."
	case ErrCodeUploadRejected:
		switch e.Metadata["reason"] {
		case "UnsupportedType":
			return "Please upload a PDF, JPEG, or PNG file."
		case "TooLarge":
			return "File size must be less than 10MB."
		}
		return e.Message
	case ErrCodeTransportError, ErrCodeUpstreamStatus, ErrCodeUpstreamSchema:
		return e.Message + ". Please try again."
	default:
		return e.Message
	}
}
