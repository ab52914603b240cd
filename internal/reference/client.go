// internal/reference/client.go
package reference

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"solar-checker/internal/common/config"
	"solar-checker/internal/common/database"
	stderrors "solar-checker/internal/common/errors"
	httpclient "solar-checker/internal/common/http"
	"solar-checker/internal/common/logger"
	"solar-checker/internal/common/metrics"
	"solar-checker/internal/common/observability"
	"solar-checker/internal/models"

	"go.opentelemetry.io/otel/attribute"
)

const (
	serviceName = "reference"

	kindLocation = "location"
	kindCredit   = "credit"
)

// ==========================
// Configuration
// ==========================

type Config struct {
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		BaseURL:  "http://localhost:5000",
		Timeout:  10 * time.Second,
		CacheTTL: time.Hour,
	}
}

func FromAppConfig(app *config.Config) *Config {
	return &Config{
		BaseURL:  app.Reference.BaseURL,
		Timeout:  config.GetDuration(app.Reference.Timeout),
		CacheTTL: time.Duration(app.Reference.CacheTTL) * time.Second,
	}
}

func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache TTL must not be negative")
	}
	return nil
}

// ==========================
// Client
// ==========================

// Client looks up area data by postal code. When a cache is set, successful
// lookups are read through Redis.
type Client struct {
	config *Config
	http   *httpclient.Client
	cache  *database.RedisClient
	logger logger.Logger
	obs    *observability.Observability
}

type Option func(*Client)

// WithCache enables the Redis read-through cache.
func WithCache(cache *database.RedisClient) Option {
	return func(c *Client) { c.cache = cache }
}

func NewClient(config *Config, log logger.Logger, obs *observability.Observability, opts ...Option) *Client {
	c := &Client{
		config: config,
		http:   httpclient.NewClient(config.Timeout),
		logger: logger.ForComponent(log, "reference"),
		obs:    obs,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LocationData returns city, state and utility averages for zip.
func (c *Client) LocationData(ctx context.Context, zip string) (*models.LocationData, error) {
	ctx, span := c.obs.StartSpan(ctx, "reference.location_data", attribute.String("zip", zip))
	defer span.End()

	var cached models.LocationData
	if c.fromCache(ctx, kindLocation, zip, &cached) {
		return &cached, nil
	}

	resp, err := c.get(ctx, "/electricity-data", zip)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, statusError(resp)
	}

	var data models.LocationData
	if err := resp.Decode(&data); err != nil {
		return nil, stderrors.NewUpstreamSchemaError(serviceName, []string{err.Error()})
	}
	if data.ZipCode == "" {
		data.ZipCode = zip
	}

	c.toCache(ctx, kindLocation, zip, data)
	return &data, nil
}

// CreditReference returns the area credit score for zip. A 404 means no
// data is published for the area and yields (nil, nil).
func (c *Client) CreditReference(ctx context.Context, zip string) (*models.CreditReference, error) {
	ctx, span := c.obs.StartSpan(ctx, "reference.credit_reference", attribute.String("zip", zip))
	defer span.End()

	var cached models.CreditReference
	if c.fromCache(ctx, kindCredit, zip, &cached) {
		return &cached, nil
	}

	resp, err := c.get(ctx, "/vantage-score", zip)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		c.logger.Debug("no credit reference published", map[string]interface{}{"zip": zip})
		return nil, nil
	}
	if !resp.OK() {
		return nil, statusError(resp)
	}

	var ref models.CreditReference
	if err := resp.Decode(&ref); err != nil {
		return nil, stderrors.NewUpstreamSchemaError(serviceName, []string{err.Error()})
	}

	c.toCache(ctx, kindCredit, zip, ref)
	return &ref, nil
}

func (c *Client) get(ctx context.Context, path, zip string) (*httpclient.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	endpoint := strings.TrimRight(c.config.BaseURL, "/") + path + "?zip=" + url.QueryEscape(zip)
	resp, err := c.http.GetJSON(ctx, endpoint)
	if err != nil {
		return nil, stderrors.NewTransportError(serviceName, err)
	}
	return resp, nil
}

func statusError(resp *httpclient.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	_ = resp.Decode(&body)
	return stderrors.NewUpstreamStatusError(serviceName, resp.StatusCode, body.Error)
}

// ==========================
// Cache
// ==========================

func cacheKey(kind, zip string) string {
	return "ref:" + kind + ":" + zip
}

func (c *Client) fromCache(ctx context.Context, kind, zip string, v interface{}) bool {
	if c.cache == nil {
		return false
	}
	err := c.cache.GetJSON(ctx, cacheKey(kind, zip), v)
	if err == nil {
		metrics.ReferenceCacheLookups.WithLabelValues(kind, metrics.ResultHit).Inc()
		return true
	}
	metrics.ReferenceCacheLookups.WithLabelValues(kind, metrics.ResultMiss).Inc()
	if !errors.Is(err, database.ErrCacheMiss) {
		c.logger.Warn("cache read failed", map[string]interface{}{
			"key":   cacheKey(kind, zip),
			"error": err.Error(),
		})
	}
	return false
}

func (c *Client) toCache(ctx context.Context, kind, zip string, v interface{}) {
	if c.cache == nil || c.config.CacheTTL <= 0 {
		return
	}
	if err := c.cache.SetJSON(ctx, cacheKey(kind, zip), v, c.config.CacheTTL); err != nil {
		c.logger.Warn("cache write failed", map[string]interface{}{
			"key":   cacheKey(kind, zip),
			"error": err.Error(),
		})
	}
}
