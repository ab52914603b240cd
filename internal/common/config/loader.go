// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, then config.<APP_ENVIRONMENT>.yaml on top.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")
	bindEnv(v)

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func bindEnv(v *viper.Viper) {
	// Keyless providers are on unless a file turns them off.
	v.SetDefault("geocode.nominatim.enabled", true)
	v.SetDefault("geocode.bigdatacloud.enabled", true)
	v.SetDefault("geocode.opencage.enabled", true)

	// QUALIFICATION_BASE_URL overrides qualification.base_url
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideEmptyConfig(&cfg)
	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// loadEnvFile loads the first .env found walking up to the module root.
func loadEnvFile() string {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// Direct override if config values are still empty after expansion
func overrideEmptyConfig(cfg *Config) {
	if cfg.Geocode.OpenCage.APIKey == "" {
		if val := os.Getenv("OPENCAGE_API_KEY"); val != "" {
			cfg.Geocode.OpenCage.APIKey = val
		}
	}
	if cfg.Qualification.BaseURL == "" {
		if val := os.Getenv("SOLAR_API_URL"); val != "" {
			cfg.Qualification.BaseURL = val
		}
	}
	if cfg.Reference.BaseURL == "" {
		if val := os.Getenv("SOLAR_API_URL"); val != "" {
			cfg.Reference.BaseURL = val
		}
	}
	if cfg.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Redis.Password = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "solar-checker"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}

	if cfg.Flow.LoadingDelay == 0 {
		cfg.Flow.LoadingDelay = 2000
	}
	if cfg.Flow.LocatorTimeout == 0 {
		cfg.Flow.LocatorTimeout = 10000
	}

	if len(cfg.Geocode.Order) == 0 {
		cfg.Geocode.Order = []string{"nominatim", "bigdatacloud", "opencage"}
	}
	if cfg.Geocode.UserAgent == "" {
		cfg.Geocode.UserAgent = "SolarQualificationApp/1.0"
	}
	if cfg.Geocode.NominatimRate == 0 {
		cfg.Geocode.NominatimRate = 1
	}
	for _, p := range []*ProviderConfig{&cfg.Geocode.Nominatim, &cfg.Geocode.BigDataCloud, &cfg.Geocode.OpenCage} {
		if p.Timeout == 0 {
			p.Timeout = 5000
		}
	}
	if cfg.Geocode.Nominatim.BaseURL == "" {
		cfg.Geocode.Nominatim.BaseURL = "https://nominatim.openstreetmap.org"
	}
	if cfg.Geocode.BigDataCloud.BaseURL == "" {
		cfg.Geocode.BigDataCloud.BaseURL = "https://api.bigdatacloud.net"
	}
	if cfg.Geocode.OpenCage.BaseURL == "" {
		cfg.Geocode.OpenCage.BaseURL = "https://api.opencagedata.com"
	}
	// OpenCage is keyed; without a key it cannot answer.
	if cfg.Geocode.OpenCage.APIKey == "" {
		cfg.Geocode.OpenCage.Enabled = false
	}

	if cfg.Qualification.Timeout == 0 {
		cfg.Qualification.Timeout = 30000
	}
	if cfg.Reference.Timeout == 0 {
		cfg.Reference.Timeout = 10000
	}
	if cfg.Reference.CacheTTL == 0 {
		cfg.Reference.CacheTTL = 3600
	}

	if cfg.Camunda.ProcessID == "" {
		cfg.Camunda.ProcessID = "solar-application"
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 10000
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = cfg.App.Name
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Qualification.BaseURL == "" {
		return fmt.Errorf("qualification.base_url is required")
	}
	if cfg.Reference.BaseURL == "" {
		return fmt.Errorf("reference.base_url is required")
	}
	if cfg.Reference.Cache && cfg.Redis.Address == "" {
		return fmt.Errorf("redis.address is required when reference.cache is enabled")
	}
	if cfg.Flow.LoadingDelay < 0 {
		return fmt.Errorf("flow.loading_delay must not be negative")
	}

	enabled := 0
	for _, name := range cfg.Geocode.Order {
		p, ok := cfg.Geocode.Provider(name)
		if !ok {
			return fmt.Errorf("geocode.order: unknown provider %q", name)
		}
		if p.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		return fmt.Errorf("geocode: at least one provider must be enabled")
	}
	return nil
}

// Provider looks up a provider section by its order name.
func (g GeocodeConfig) Provider(name string) (ProviderConfig, bool) {
	switch strings.ToLower(name) {
	case "nominatim":
		return g.Nominatim, true
	case "bigdatacloud":
		return g.BigDataCloud, true
	case "opencage":
		return g.OpenCage, true
	}
	return ProviderConfig{}, false
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
