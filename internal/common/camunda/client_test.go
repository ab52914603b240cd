package camunda

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"solar-checker/internal/common/errors"
	"solar-checker/internal/common/logger"
	"solar-checker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientConfig_Validate(t *testing.T) {
	cfg := DefaultClientConfig()
	assert.Error(t, cfg.Validate(), "gateway address missing")

	cfg.GatewayAddress = "localhost:26500"
	assert.NoError(t, cfg.Validate())

	cfg.ProcessID = ""
	assert.Error(t, cfg.Validate())
}

func TestNewClientWithConfig_RejectsInvalidConfig(t *testing.T) {
	_, err := NewClientWithConfig(DefaultClientConfig(), logger.NewTestLogger(t))
	assert.Error(t, err)
}

func TestMapZeebeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code errors.ErrorCode
	}{
		{name: "unavailable", err: stderrors.New("rpc error: code = Unavailable"), code: errors.ErrCodeTransportError},
		{name: "deadline", err: stderrors.New("context deadline exceeded"), code: errors.ErrCodeTransportError},
		{name: "process not found", err: stderrors.New("rpc error: code = NotFound desc = no process"), code: errors.ErrCodeHandoffFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapZeebeError(tt.err, "create-instance")
			assert.Equal(t, tt.code, errors.CodeOf(err))
		})
	}
}

func TestLogPublisher_ReturnsApplicationID(t *testing.T) {
	p := NewLogPublisher(logger.NewTestLogger(t))

	ref, err := p.Publish(context.Background(), models.ApplicationSubmission{
		ApplicationID:   "app-123",
		ZipCode:         "90210",
		FinancingMethod: "Cash",
		SubmittedAt:     time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, "app-123", ref)
}
