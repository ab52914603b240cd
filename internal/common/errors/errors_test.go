package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingLogger struct {
	messages []string
	fields   []map[string]interface{}
}

func (l *recordingLogger) Warn(msg string, fields map[string]interface{}) {
	l.messages = append(l.messages, msg)
	l.fields = append(l.fields, fields)
}

func TestCodeOf_FollowsWrapping(t *testing.T) {
	base := NewTransportError("qualification", errors.New("connection refused"))
	wrapped := fmt.Errorf("submit: %w", base)

	assert.Equal(t, ErrCodeTransportError, CodeOf(wrapped))
	assert.True(t, HasCode(wrapped, ErrCodeTransportError))
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
}

func TestStandardError_UnwrapsCause(t *testing.T) {
	cause := errors.New("boom")
	err := NewHandoffFailedError(cause)
	assert.True(t, errors.Is(err, cause))
}

func TestNewUpstreamStatusError_DefaultMessage(t *testing.T) {
	err := NewUpstreamStatusError("qualification", 502, "")
	assert.Equal(t, "HTTP error! status: 502", err.Message)
	assert.True(t, err.Retryable)

	err = NewUpstreamStatusError("qualification", 400, "Invalid ZIP code")
	assert.Equal(t, "Invalid ZIP code", err.Message)
	assert.False(t, err.Retryable)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeValidationFailed))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidTransition))
	assert.Equal(t, "GEOCODING", GetErrorCategory(ErrCodeResolutionFailed))
	assert.Equal(t, "TRANSPORT", GetErrorCategory(ErrCodeUpstreamSchema))
	assert.Equal(t, "UPLOAD", GetErrorCategory(ErrCodeUnknownSlot))
	assert.Equal(t, "HANDOFF", GetErrorCategory(ErrCodeHandoffFailed))
	assert.Equal(t, "OTHER", GetErrorCategory("SOMETHING"))
}

func TestErrorHandler_Handle(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "validation shows details",
			err:  NewValidationError("bill", "Bill must be between $50 and $500"),
			want: "Bill must be between $50 and $500",
		},
		{
			name: "too large upload",
			err:  NewUploadRejectedError("proof-identity", "TooLarge"),
			want: "File size must be less than 10MB.",
		},
		{
			name: "unsupported upload",
			err:  NewUploadRejectedError("proof-identity", "UnsupportedType"),
			want: "Please upload a PDF, JPEG, or PNG file.",
		},
		{
			name: "resolution failure",
			err:  NewResolutionFailedError("NoCandidate", nil),
			want: "Could not determine your postal code. Please try entering it manually.",
		},
		{
			name: "unknown error",
			err:  errors.New("kaboom"),
			want: "Unexpected error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &recordingLogger{}
			h := NewErrorHandler(log)

			assert.Equal(t, tt.want, h.Handle("test", tt.err))
			assert.Len(t, log.messages, 1)
			assert.Equal(t, "test", log.fields[0]["operation"])
		})
	}
}

func TestErrorHandler_NilError(t *testing.T) {
	log := &recordingLogger{}
	assert.Equal(t, "", NewErrorHandler(log).Handle("noop", nil))
	assert.Empty(t, log.messages)
}
