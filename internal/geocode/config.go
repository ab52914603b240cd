// internal/geocode/config.go
package geocode

import (
	"fmt"
	"time"

	"solar-checker/internal/common/config"
)

const (
	ProviderNominatim    = "nominatim"
	ProviderBigDataCloud = "bigdatacloud"
	ProviderOpenCage     = "opencage"
)

type ProviderSettings struct {
	Name    string
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type Config struct {
	// Providers are tried in slice order.
	Providers      []ProviderSettings
	UserAgent      string
	NominatimRate  float64
	LocatorTimeout time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Providers: []ProviderSettings{
			{Name: ProviderNominatim, BaseURL: "https://nominatim.openstreetmap.org", Timeout: 5 * time.Second},
			{Name: ProviderBigDataCloud, BaseURL: "https://api.bigdatacloud.net", Timeout: 5 * time.Second},
		},
		UserAgent:      "SolarQualificationApp/1.0",
		NominatimRate:  1,
		LocatorTimeout: 10 * time.Second,
	}
}

// FromAppConfig keeps the enabled providers of cfg in their configured order.
func FromAppConfig(app *config.Config) *Config {
	cfg := &Config{
		UserAgent:      app.Geocode.UserAgent,
		NominatimRate:  app.Geocode.NominatimRate,
		LocatorTimeout: config.GetDuration(app.Flow.LocatorTimeout),
	}
	for _, name := range app.Geocode.Order {
		p, ok := app.Geocode.Provider(name)
		if !ok || !p.Enabled {
			continue
		}
		cfg.Providers = append(cfg.Providers, ProviderSettings{
			Name:    name,
			BaseURL: p.BaseURL,
			APIKey:  p.APIKey,
			Timeout: config.GetDuration(p.Timeout),
		})
	}
	return cfg
}

func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return fmt.Errorf("at least one provider is required")
	}
	for _, p := range c.Providers {
		if p.BaseURL == "" {
			return fmt.Errorf("provider %s: base URL is required", p.Name)
		}
		if p.Timeout <= 0 {
			return fmt.Errorf("provider %s: timeout must be positive", p.Name)
		}
		if p.Name == ProviderOpenCage && p.APIKey == "" {
			return fmt.Errorf("provider %s: API key is required", p.Name)
		}
	}
	if c.LocatorTimeout <= 0 {
		return fmt.Errorf("locator timeout must be positive")
	}
	return nil
}
