// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"solar-checker/internal/common/errors"
	"solar-checker/internal/common/logger"
	"solar-checker/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// Publisher hands a submitted application to whatever processes it next.
type Publisher interface {
	Publish(ctx context.Context, app models.ApplicationSubmission) (string, error)
}

// Client wraps the Zeebe gRPC client and starts one process instance per
// submitted application.
type Client struct {
	client zbc.Client
	config *ClientConfig
	logger logger.Logger
}

// ClientConfig holds configuration for the Camunda/Zeebe client.
type ClientConfig struct {
	GatewayAddress         string
	ProcessID              string
	UsePlaintextConnection bool
	ConnectionTimeout      time.Duration
	RequestTimeout         time.Duration
}

func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		ProcessID:              "solar-application",
		UsePlaintextConnection: true,
		ConnectionTimeout:      10 * time.Second,
		RequestTimeout:         10 * time.Second,
	}
}

func (c *ClientConfig) Validate() error {
	if c.GatewayAddress == "" {
		return fmt.Errorf("gateway address is required")
	}
	if c.ProcessID == "" {
		return fmt.Errorf("process id is required")
	}
	return nil
}

// NewClientWithConfig dials the broker and checks the topology before
// returning.
func NewClientWithConfig(config *ClientConfig, log logger.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	zeebeClient, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         config.GatewayAddress,
		UsePlaintextConnection: config.UsePlaintextConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectionTimeout)
	defer cancel()

	if _, err := zeebeClient.NewTopologyCommand().Send(ctx); err != nil {
		zeebeClient.Close()
		return nil, fmt.Errorf("failed to connect to Zeebe broker at %s: %w", config.GatewayAddress, err)
	}

	return &Client{
		client: zeebeClient,
		config: config,
		logger: logger.ForComponent(log, "camunda"),
	}, nil
}

// Publish starts the application process with the submission as variables
// and returns the process instance key.
func (c *Client) Publish(ctx context.Context, app models.ApplicationSubmission) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	cmd, err := c.client.NewCreateInstanceCommand().
		BPMNProcessId(c.config.ProcessID).
		LatestVersion().
		VariablesFromObject(app)
	if err != nil {
		return "", errors.NewHandoffFailedError(fmt.Errorf("encode variables: %w", err))
	}

	resp, err := cmd.Send(ctx)
	if err != nil {
		return "", mapZeebeError(err, "create-instance")
	}

	key := strconv.FormatInt(resp.GetProcessInstanceKey(), 10)
	c.logger.Info("application process started", map[string]interface{}{
		"applicationId":      app.ApplicationID,
		"processId":          c.config.ProcessID,
		"processInstanceKey": key,
	})
	return key, nil
}

// mapZeebeError converts Zeebe errors into standardized application errors.
func mapZeebeError(err error, operation string) error {
	msg := err.Error()
	lowerMsg := strings.ToLower(msg)
	wrapped := fmt.Errorf("zeebe operation '%s' failed: %s", operation, msg)

	switch {
	case strings.Contains(lowerMsg, "connection refused") ||
		strings.Contains(lowerMsg, "connection reset") ||
		strings.Contains(lowerMsg, "unavailable") ||
		strings.Contains(lowerMsg, "unreachable") ||
		strings.Contains(lowerMsg, "timeout") ||
		strings.Contains(lowerMsg, "deadline exceeded"):
		return errors.NewTransportError("zeebe", wrapped)
	default:
		return errors.NewHandoffFailedError(wrapped)
	}
}

// HealthCheck performs a basic health check against the Zeebe broker.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.ConnectionTimeout)
	defer cancel()

	if _, err := c.client.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// LogPublisher records submissions in the log only. Used when no broker is
// configured.
type LogPublisher struct {
	logger logger.Logger
}

func NewLogPublisher(log logger.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.ForComponent(log, "application-log")}
}

func (p *LogPublisher) Publish(_ context.Context, app models.ApplicationSubmission) (string, error) {
	p.logger.Info("application submitted", map[string]interface{}{
		"applicationId":   app.ApplicationID,
		"zipCode":         app.ZipCode,
		"financingMethod": app.FinancingMethod,
		"documents":       len(app.Documents),
	})
	return app.ApplicationID, nil
}
