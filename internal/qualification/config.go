// internal/qualification/config.go
package qualification

import (
	"fmt"
	"time"

	"solar-checker/internal/common/config"
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		BaseURL: "http://localhost:5000",
		Timeout: 30 * time.Second,
	}
}

func FromAppConfig(app *config.Config) *Config {
	return &Config{
		BaseURL: app.Qualification.BaseURL,
		Timeout: config.GetDuration(app.Qualification.Timeout),
	}
}

func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
