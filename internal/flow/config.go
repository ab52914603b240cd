// internal/flow/config.go
package flow

import (
	"fmt"
	"time"

	"solar-checker/internal/common/config"
)

type Config struct {
	// LoadingDelay is the minimum time the Loading screen stays up.
	LoadingDelay time.Duration
	BillMin      float64
	BillMax      float64
	RoofMin      float64
	RoofMax      float64
}

func DefaultConfig() *Config {
	return &Config{
		LoadingDelay: 2 * time.Second,
		BillMin:      50,
		BillMax:      500,
		RoofMin:      100,
		RoofMax:      10000,
	}
}

func FromAppConfig(app *config.Config) *Config {
	cfg := DefaultConfig()
	cfg.LoadingDelay = config.GetDuration(app.Flow.LoadingDelay)
	return cfg
}

func (c *Config) Validate() error {
	if c.LoadingDelay < 0 {
		return fmt.Errorf("loading delay must not be negative")
	}
	if c.BillMin <= 0 || c.BillMax < c.BillMin {
		return fmt.Errorf("invalid bill range [%v, %v]", c.BillMin, c.BillMax)
	}
	if c.RoofMin <= 0 || c.RoofMax < c.RoofMin {
		return fmt.Errorf("invalid roof range [%v, %v]", c.RoofMin, c.RoofMax)
	}
	return nil
}
