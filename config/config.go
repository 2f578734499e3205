package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/jonwraymond/queryops/client"
	"github.com/jonwraymond/queryops/observe"
	"github.com/jonwraymond/queryops/request"
)

// Config is the environment-driven configuration of the engine.
type Config struct {
	// BaseURL is the base every relative request path resolves against.
	BaseURL string `env:"QUERYOPS_BASE_URL"`

	// DefaultPolicy applies to descriptors that leave their policy unset.
	DefaultPolicy string `env:"QUERYOPS_DEFAULT_POLICY" envDefault:"cache-first"`

	// ServerMode marks clients built from this config as serving
	// non-interactive renders.
	ServerMode bool `env:"QUERYOPS_SERVER_MODE" envDefault:"false"`

	// RetainDataOnError keeps stale data visible when a refetch fails.
	RetainDataOnError bool `env:"QUERYOPS_RETAIN_DATA_ON_ERROR" envDefault:"false"`

	// ServiceName and Version identify the process in telemetry.
	ServiceName string `env:"QUERYOPS_SERVICE_NAME" envDefault:"queryops"`
	Version     string `env:"QUERYOPS_SERVICE_VERSION"`

	TracingEnabled   bool    `env:"QUERYOPS_TRACING_ENABLED" envDefault:"false"`
	TracingExporter  string  `env:"QUERYOPS_TRACING_EXPORTER" envDefault:"stdout"`
	TracingSamplePct float64 `env:"QUERYOPS_TRACING_SAMPLE_PCT" envDefault:"1.0"`

	MetricsEnabled  bool   `env:"QUERYOPS_METRICS_ENABLED" envDefault:"false"`
	MetricsExporter string `env:"QUERYOPS_METRICS_EXPORTER" envDefault:"prometheus"`

	LoggingEnabled bool   `env:"QUERYOPS_LOGGING_ENABLED" envDefault:"true"`
	LogLevel       string `env:"QUERYOPS_LOG_LEVEL" envDefault:"info"`
}

// Load parses and validates configuration from the environment.
func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the policy name and the telemetry settings.
func (c Config) Validate() error {
	if _, err := request.ParsePolicy(c.DefaultPolicy); err != nil {
		return fmt.Errorf("config: default policy: %w", err)
	}
	obs := c.Observe()
	if err := obs.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Observe returns the telemetry configuration for observe.NewObserver.
func (c Config) Observe() observe.Config {
	return observe.Config{
		ServiceName: c.ServiceName,
		Version:     c.Version,
		Tracing: observe.TracingConfig{
			Enabled:   c.TracingEnabled,
			Exporter:  c.TracingExporter,
			SamplePct: c.TracingSamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  c.MetricsEnabled,
			Exporter: c.MetricsExporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: c.LoggingEnabled,
			Level:   c.LogLevel,
		},
	}
}

// ClientOptions translates the config into options for client.New.
// Telemetry is not among them: building an Observer has a lifetime of its
// own, so callers create Instruments themselves and append
// client.WithInstruments.
func (c Config) ClientOptions() ([]client.Option, error) {
	policy, err := request.ParsePolicy(c.DefaultPolicy)
	if err != nil {
		return nil, fmt.Errorf("config: default policy: %w", err)
	}
	opts := []client.Option{
		client.WithDefaultPolicy(policy),
	}
	if c.BaseURL != "" {
		opts = append(opts, client.WithBaseURL(c.BaseURL))
	}
	if c.ServerMode {
		opts = append(opts, client.WithServerMode())
	}
	if c.RetainDataOnError {
		opts = append(opts, client.RetainDataOnError())
	}
	return opts, nil
}
