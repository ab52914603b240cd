package geocode

import (
	"context"
	"errors"

	"solar-checker/internal/models"
)

var (
	ErrLocationUnsupported = errors.New("LOCATION_UNSUPPORTED")
	ErrPermissionDenied    = errors.New("PERMISSION_DENIED")
	ErrPositionUnavailable = errors.New("POSITION_UNAVAILABLE")
)

// Locator is the device position source. Implementations should honour the
// context deadline.
type Locator interface {
	Locate(ctx context.Context) (models.GeoQuery, error)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(ctx context.Context) (models.GeoQuery, error)

func (f LocatorFunc) Locate(ctx context.Context) (models.GeoQuery, error) {
	return f(ctx)
}

// StaticLocator always reports the same coordinates.
type StaticLocator struct {
	Query models.GeoQuery
}

func (s StaticLocator) Locate(ctx context.Context) (models.GeoQuery, error) {
	if err := ctx.Err(); err != nil {
		return models.GeoQuery{}, err
	}
	return s.Query, nil
}
