// internal/geocode/providers.go
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	httpclient "solar-checker/internal/common/http"
	"solar-checker/internal/models"

	"golang.org/x/time/rate"
)

var (
	ErrNoPostcode      = errors.New("NO_POSTCODE")
	ErrProviderStatus  = errors.New("PROVIDER_STATUS")
	ErrUnknownProvider = errors.New("UNKNOWN_PROVIDER")
)

// Provider turns coordinates into a raw, unnormalized postal code.
type Provider interface {
	Name() string
	Timeout() time.Duration
	PostalCode(ctx context.Context, q models.GeoQuery) (string, error)
}

// BuildProviders instantiates the configured providers in order.
func BuildProviders(cfg *Config) ([]Provider, error) {
	client := httpclient.NewClient(0, httpclient.WithUserAgent(cfg.UserAgent))

	providers := make([]Provider, 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		switch p.Name {
		case ProviderNominatim:
			providers = append(providers, NewNominatim(p, client, cfg.NominatimRate))
		case ProviderBigDataCloud:
			providers = append(providers, NewBigDataCloud(p, client))
		case ProviderOpenCage:
			providers = append(providers, NewOpenCage(p, client))
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, p.Name)
		}
	}
	return providers, nil
}

type baseProvider struct {
	settings ProviderSettings
	client   *httpclient.Client
}

func (b baseProvider) Name() string           { return b.settings.Name }
func (b baseProvider) Timeout() time.Duration { return b.settings.Timeout }

func (b baseProvider) fetch(ctx context.Context, endpoint string, v interface{}) error {
	resp, err := b.client.GetJSON(ctx, endpoint)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("%w: %s returned %d", ErrProviderStatus, b.settings.Name, resp.StatusCode)
	}
	return resp.Decode(v)
}

// postcode accepts a postal code encoded either as a JSON string or number.
type postcode string

func (p *postcode) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*p = postcode(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("postcode is neither string nor number: %s", string(b))
	}
	*p = postcode(n.String())
	return nil
}

func (p postcode) value() (string, error) {
	s := strings.TrimSpace(string(p))
	if s == "" {
		return "", ErrNoPostcode
	}
	return s, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ==========================
// Nominatim (OpenStreetMap)
// ==========================

type Nominatim struct {
	baseProvider
	limiter *rate.Limiter
}

// NewNominatim limits requests to perSecond; the public instance allows one.
func NewNominatim(settings ProviderSettings, client *httpclient.Client, perSecond float64) *Nominatim {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &Nominatim{
		baseProvider: baseProvider{settings: settings, client: client},
		limiter:      rate.NewLimiter(limit, 1),
	}
}

func (n *Nominatim) PostalCode(ctx context.Context, q models.GeoQuery) (string, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("lat", formatCoord(q.Latitude))
	params.Set("lon", formatCoord(q.Longitude))
	params.Set("zoom", "18")
	params.Set("addressdetails", "1")

	var body struct {
		Address struct {
			Postcode postcode `json:"postcode"`
		} `json:"address"`
	}
	if err := n.fetch(ctx, n.settings.BaseURL+"/reverse?"+params.Encode(), &body); err != nil {
		return "", err
	}
	return body.Address.Postcode.value()
}

// ==========================
// BigDataCloud
// ==========================

type BigDataCloud struct {
	baseProvider
}

func NewBigDataCloud(settings ProviderSettings, client *httpclient.Client) *BigDataCloud {
	return &BigDataCloud{baseProvider: baseProvider{settings: settings, client: client}}
}

func (b *BigDataCloud) PostalCode(ctx context.Context, q models.GeoQuery) (string, error) {
	params := url.Values{}
	params.Set("latitude", formatCoord(q.Latitude))
	params.Set("longitude", formatCoord(q.Longitude))
	params.Set("localityLanguage", "en")

	var body struct {
		Postcode postcode `json:"postcode"`
	}
	if err := b.fetch(ctx, b.settings.BaseURL+"/data/reverse-geocode-client?"+params.Encode(), &body); err != nil {
		return "", err
	}
	return body.Postcode.value()
}

// ==========================
// OpenCage
// ==========================

type OpenCage struct {
	baseProvider
}

func NewOpenCage(settings ProviderSettings, client *httpclient.Client) *OpenCage {
	return &OpenCage{baseProvider: baseProvider{settings: settings, client: client}}
}

func (o *OpenCage) PostalCode(ctx context.Context, q models.GeoQuery) (string, error) {
	params := url.Values{}
	params.Set("q", formatCoord(q.Latitude)+" "+formatCoord(q.Longitude))
	params.Set("key", o.settings.APIKey)
	params.Set("limit", "1")

	var body struct {
		Results []struct {
			Components struct {
				Postcode postcode `json:"postcode"`
			} `json:"components"`
		} `json:"results"`
	}
	if err := o.fetch(ctx, o.settings.BaseURL+"/geocode/v1/json?"+params.Encode(), &body); err != nil {
		return "", err
	}
	if len(body.Results) == 0 {
		return "", ErrNoPostcode
	}
	return body.Results[0].Components.Postcode.value()
}
