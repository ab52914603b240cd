// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Flow          FlowConfig          `mapstructure:"flow"`
	Geocode       GeocodeConfig       `mapstructure:"geocode"`
	Qualification ServiceConfig       `mapstructure:"qualification"`
	Reference     ReferenceConfig     `mapstructure:"reference"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Camunda       CamundaConfig       `mapstructure:"camunda"`
	Uploads       UploadsConfig       `mapstructure:"uploads"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// FlowConfig holds the wizard timing knobs.
type FlowConfig struct {
	LoadingDelay   int `mapstructure:"loading_delay"`   // milliseconds
	LocatorTimeout int `mapstructure:"locator_timeout"` // milliseconds
}

// --- External Services ---

// ServiceConfig describes a plain HTTP collaborator.
type ServiceConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

type ProviderConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// GeocodeConfig lists the reverse geocoding providers. Order is the
// fallback order.
type GeocodeConfig struct {
	Order        []string       `mapstructure:"order"`
	UserAgent    string         `mapstructure:"user_agent"`
	Nominatim    ProviderConfig `mapstructure:"nominatim"`
	BigDataCloud ProviderConfig `mapstructure:"bigdatacloud"`
	OpenCage     ProviderConfig `mapstructure:"opencage"`
	// NominatimRate is requests per second allowed by the public instance.
	NominatimRate float64 `mapstructure:"nominatim_rate"`
}

type ReferenceConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	Timeout  int    `mapstructure:"timeout"` // milliseconds
	Cache    bool   `mapstructure:"cache"`
	CacheTTL int    `mapstructure:"cache_ttl"` // seconds
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	ProcessID      string `mapstructure:"process_id"`
	Plaintext      bool   `mapstructure:"plaintext"`
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

// Enabled reports whether submitted applications are handed to a broker.
func (c CamundaConfig) Enabled() bool {
	return c.BrokerAddress != ""
}

type UploadsConfig struct {
	// PreviewDir is where image previews are written. Empty keeps them in memory.
	PreviewDir string `mapstructure:"preview_dir"`
}

type ObservabilityConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
	MetricsAddress string `mapstructure:"metrics_address"`
}
