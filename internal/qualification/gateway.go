// internal/qualification/gateway.go
package qualification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	stderrors "solar-checker/internal/common/errors"
	httpclient "solar-checker/internal/common/http"
	"solar-checker/internal/common/logger"
	"solar-checker/internal/common/metrics"
	"solar-checker/internal/common/observability"
	"solar-checker/internal/models"

	"go.opentelemetry.io/otel/attribute"
)

const serviceName = "qualification"

var ErrIncompleteAnswers = errors.New("INCOMPLETE_ANSWERS")

// Gateway talks to the scoring service. It never returns an error: every
// failure becomes a not_qualified result with an explanation.
type Gateway struct {
	config *Config
	client *httpclient.Client
	logger logger.Logger
	obs    *observability.Observability
}

func NewGateway(config *Config, log logger.Logger, obs *observability.Observability) *Gateway {
	return &Gateway{
		config: config,
		client: httpclient.NewClient(config.Timeout),
		logger: logger.ForComponent(log, "qualification"),
		obs:    obs,
	}
}

// BuildRequest converts completed answers into the service request.
func BuildRequest(answers models.WizardAnswers) (Request, error) {
	if !answers.Complete() {
		return Request{}, ErrIncompleteAnswers
	}
	return Request{
		ZipCode:      *answers.PostalCode,
		ElectricBill: *answers.MonthlyBillAmount,
		CreditBand:   string(*answers.CreditBand),
		RoofSize:     answers.RoofSize.SquareFeet(),
	}, nil
}

func (g *Gateway) Submit(ctx context.Context, answers models.WizardAnswers) models.QualificationResult {
	start := time.Now()
	ctx, span := g.obs.StartSpan(ctx, "qualification.submit")
	defer span.End()

	result, err := g.submit(ctx, answers)
	if err != nil {
		g.logger.Warn("qualification request failed, returning not_qualified", map[string]interface{}{
			"errorCode": string(stderrors.CodeOf(err)),
			"error":     err.Error(),
		})
		result = models.NotQualified(explanationFor(err))
	}
	if result.Status == models.StatusNotQualified && strings.TrimSpace(result.Explanation) == "" {
		result.Explanation = "Based on the information provided you do not currently qualify for solar financing."
	}

	status := string(result.Status)
	span.SetAttributes(attribute.String("status", status))
	metrics.QualificationRequests.WithLabelValues(status).Inc()
	metrics.QualificationDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())

	g.logger.Info("qualification completed", map[string]interface{}{
		"status":   status,
		"duration": time.Since(start).String(),
	})
	return result
}

func (g *Gateway) submit(ctx context.Context, answers models.WizardAnswers) (models.QualificationResult, error) {
	req, err := BuildRequest(answers)
	if err != nil {
		return models.QualificationResult{}, stderrors.NewValidationError("answers", "All four questions must be answered before checking qualification")
	}

	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	resp, err := g.client.PostJSON(ctx, strings.TrimRight(g.config.BaseURL, "/")+"/api/check-qualification", req)
	if err != nil {
		return models.QualificationResult{}, stderrors.NewTransportError(serviceName, err)
	}

	if !resp.OK() {
		var body errorBody
		_ = resp.Decode(&body)
		return models.QualificationResult{}, stderrors.NewUpstreamStatusError(serviceName, resp.StatusCode, body.Error)
	}

	check, err := responseSchema.ValidateBytes(resp.Body)
	if err != nil {
		return models.QualificationResult{}, stderrors.NewUpstreamSchemaError(serviceName, []string{err.Error()})
	}
	if !check.Valid {
		return models.QualificationResult{}, stderrors.NewUpstreamSchemaError(serviceName, check.GetErrorMessages())
	}

	var wire wireResponse
	if err := resp.Decode(&wire); err != nil {
		return models.QualificationResult{}, stderrors.NewUpstreamSchemaError(serviceName, []string{err.Error()})
	}
	result := wire.toResult()
	if result.Explanation == "" && wire.Error != "" {
		result.Explanation = wire.Error
	}
	return result, nil
}

func explanationFor(err error) string {
	var stdErr *stderrors.StandardError
	if !errors.As(err, &stdErr) {
		return fmt.Sprintf("An unexpected error occurred: %v", err)
	}
	switch stdErr.Code {
	case stderrors.ErrCodeTransportError:
		return fmt.Sprintf("We could not reach the qualification service: %s", stdErr.Details)
	case stderrors.ErrCodeUpstreamStatus:
		return stdErr.Message
	case stderrors.ErrCodeUpstreamSchema:
		return "The qualification service returned an unexpected response. Please try again later."
	case stderrors.ErrCodeValidationFailed:
		return stdErr.Details
	default:
		return stdErr.Message
	}
}
