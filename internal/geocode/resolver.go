// internal/geocode/resolver.go
package geocode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"solar-checker/internal/common/logger"
	"solar-checker/internal/common/metrics"
	"solar-checker/internal/common/observability"
	"solar-checker/internal/models"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// FailureReason classifies why no postal code could be produced.
type FailureReason string

const (
	NoCandidate      FailureReason = "NoCandidate"
	Unsupported      FailureReason = "Unsupported"
	PermissionDenied FailureReason = "PermissionDenied"
	Unavailable      FailureReason = "Unavailable"
	Timeout          FailureReason = "Timeout"
)

// ResolutionFailure is returned when detection or resolution gives up.
type ResolutionFailure struct {
	Reason FailureReason
	Err    error
}

func (f *ResolutionFailure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("resolution failed: %s", f.Reason)
	}
	return fmt.Sprintf("resolution failed: %s: %v", f.Reason, f.Err)
}

func (f *ResolutionFailure) Unwrap() error {
	return f.Err
}

// FailureReasonOf extracts the reason from err, or "" when err is not a
// ResolutionFailure.
func FailureReasonOf(err error) FailureReason {
	var f *ResolutionFailure
	if errors.As(err, &f) {
		return f.Reason
	}
	return ""
}

// Resolver tries each provider once, in order, until one yields a usable
// postal code. Nothing is cached.
type Resolver struct {
	providers      []Provider
	locatorTimeout time.Duration
	logger         logger.Logger
	obs            *observability.Observability
}

func NewResolver(providers []Provider, locatorTimeout time.Duration, log logger.Logger, obs *observability.Observability) *Resolver {
	if locatorTimeout <= 0 {
		locatorTimeout = DefaultConfig().LocatorTimeout
	}
	return &Resolver{
		providers:      providers,
		locatorTimeout: locatorTimeout,
		logger:         logger.ForComponent(log, "geocode"),
		obs:            obs,
	}
}

// NewResolverFromConfig validates cfg and builds its providers.
func NewResolverFromConfig(cfg *Config, log logger.Logger, obs *observability.Observability) (*Resolver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("geocode config: %w", err)
	}
	providers, err := BuildProviders(cfg)
	if err != nil {
		return nil, err
	}
	return NewResolver(providers, cfg.LocatorTimeout, log, obs), nil
}

// Resolve returns the first acceptable postal code, or a *ResolutionFailure
// with reason NoCandidate carrying every provider error.
func (r *Resolver) Resolve(ctx context.Context, q models.GeoQuery) (models.PostalCodeRecord, error) {
	ctx, span := r.obs.StartSpan(ctx, "geocode.resolve", attribute.String("query", q.String()))
	defer span.End()

	var errs []error
	for _, p := range r.providers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		raw, err := r.callProvider(ctx, p, q)
		if err != nil {
			metrics.GeocodeProviderRequests.WithLabelValues(p.Name(), metrics.OutcomeFailure).Inc()
			r.logger.Warn("geocoding provider failed", map[string]interface{}{
				"provider": p.Name(),
				"error":    err.Error(),
			})
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}

		record, ok := Normalize(raw)
		if !ok {
			metrics.GeocodeProviderRequests.WithLabelValues(p.Name(), metrics.OutcomeUnusable).Inc()
			r.logger.Warn("geocoding provider returned unusable postcode", map[string]interface{}{
				"provider": p.Name(),
				"postcode": raw,
			})
			errs = append(errs, fmt.Errorf("%s: unusable postcode %q", p.Name(), raw))
			continue
		}

		metrics.GeocodeProviderRequests.WithLabelValues(p.Name(), metrics.OutcomeSuccess).Inc()
		metrics.GeocodeResolutions.WithLabelValues(metrics.OutcomeSuccess).Inc()
		span.SetAttributes(attribute.String("provider", p.Name()), attribute.String("format", string(record.Format)))
		r.logger.Info("postal code resolved", map[string]interface{}{
			"provider": p.Name(),
			"code":     record.Code,
			"format":   string(record.Format),
		})
		return record, nil
	}

	metrics.GeocodeResolutions.WithLabelValues(string(NoCandidate)).Inc()
	failure := &ResolutionFailure{Reason: NoCandidate, Err: errors.Join(errs...)}
	span.SetStatus(codes.Error, failure.Error())
	return models.PostalCodeRecord{}, failure
}

func (r *Resolver) callProvider(ctx context.Context, p Provider, q models.GeoQuery) (string, error) {
	timeout := p.Timeout()
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.PostalCode(ctx, q)
}

// Detect asks the locator for coordinates, then resolves them.
func (r *Resolver) Detect(ctx context.Context, loc Locator) (models.PostalCodeRecord, error) {
	if loc == nil {
		metrics.GeocodeResolutions.WithLabelValues(string(Unsupported)).Inc()
		return models.PostalCodeRecord{}, &ResolutionFailure{Reason: Unsupported}
	}

	q, err := r.locate(ctx, loc)
	if err != nil {
		metrics.GeocodeResolutions.WithLabelValues(string(FailureReasonOf(err))).Inc()
		r.logger.Warn("device location failed", map[string]interface{}{
			"reason": string(FailureReasonOf(err)),
			"error":  err.Error(),
		})
		return models.PostalCodeRecord{}, err
	}
	return r.Resolve(ctx, q)
}

func (r *Resolver) locate(ctx context.Context, loc Locator) (models.GeoQuery, error) {
	lctx, cancel := context.WithTimeout(ctx, r.locatorTimeout)
	defer cancel()

	q, err := loc.Locate(lctx)
	switch {
	case err == nil:
		if !validCoordinates(q) {
			return q, &ResolutionFailure{Reason: Unavailable, Err: fmt.Errorf("coordinates out of range: %s", q)}
		}
		return q, nil
	case errors.Is(err, ErrLocationUnsupported):
		return q, &ResolutionFailure{Reason: Unsupported, Err: err}
	case errors.Is(err, ErrPermissionDenied):
		return q, &ResolutionFailure{Reason: PermissionDenied, Err: err}
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(lctx.Err(), context.DeadlineExceeded):
		return q, &ResolutionFailure{Reason: Timeout, Err: err}
	default:
		return q, &ResolutionFailure{Reason: Unavailable, Err: err}
	}
}

func validCoordinates(q models.GeoQuery) bool {
	return q.Latitude >= -90 && q.Latitude <= 90 && q.Longitude >= -180 && q.Longitude <= 180
}
