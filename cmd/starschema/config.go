package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/kbukum/starschema/config"
	"github.com/kbukum/starschema/database"
	"github.com/kbukum/starschema/observability"
	"github.com/kbukum/starschema/pipeline"
	"github.com/kbukum/starschema/storage"
	"github.com/kbukum/starschema/validation"
)

const serviceName = "starschema"

// Warehouse drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config is the starschema command configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	// Warehouse maps connection ids to connection settings.
	Warehouse map[string]ConnectionConfig `mapstructure:"warehouse" validate:"required,min=1,dive"`
	Storage   storage.Config              `mapstructure:"storage"`
	Executor  ExecutorConfig              `mapstructure:"executor"`
	Pipeline  PipelineConfig              `mapstructure:"pipeline"`
	Telemetry TelemetryConfig             `mapstructure:"telemetry"`
}

// ConnectionConfig describes one warehouse connection.
type ConnectionConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`
	DSN    string `mapstructure:"dsn" validate:"required"`
	// MaxConns caps the pool; zero keeps the driver default.
	MaxConns       int32         `mapstructure:"max_conns" validate:"gte=0"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// ExecutorConfig tunes the DAG executor.
type ExecutorConfig struct {
	// MaxParallel limits stages running at once; zero runs a whole tier.
	MaxParallel      int           `mapstructure:"max_parallel" validate:"gte=0"`
	MaxAttempts      int           `mapstructure:"max_attempts" validate:"gte=1"`
	RetryDelay       time.Duration `mapstructure:"retry_delay" validate:"gte=0"`
	StatementTimeout time.Duration `mapstructure:"statement_timeout" validate:"gte=0"`
}

// PipelineConfig selects the pipeline to run and the deployment settings
// bound into it.
type PipelineConfig struct {
	// File is a YAML pipeline definition; empty runs the built-in sparkify pipeline.
	File              string `mapstructure:"file"`
	pipeline.Settings `mapstructure:",squash"`
}

// TelemetryConfig enables OTLP export of spans and metrics.
type TelemetryConfig struct {
	Tracing ExporterConfig `mapstructure:"tracing"`
	Metrics ExporterConfig `mapstructure:"metrics"`
}

// ExporterConfig configures one OTLP HTTP exporter.
type ExporterConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint" validate:"required_if=Enabled true"`
	Insecure bool   `mapstructure:"insecure"`
	// SampleRate applies to tracing only.
	SampleRate float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	// Interval applies to metrics only.
	Interval time.Duration `mapstructure:"interval"`
}

// ApplyDefaults fills unset values.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Storage.ApplyDefaults()
	c.Pipeline.ApplyDefaults()

	if c.Executor.MaxAttempts == 0 {
		c.Executor.MaxAttempts = 4
	}
	if c.Executor.RetryDelay == 0 {
		c.Executor.RetryDelay = 5 * time.Minute
	}
	if c.Telemetry.Tracing.SampleRate == 0 {
		c.Telemetry.Tracing.SampleRate = 1
	}
	if c.Telemetry.Metrics.Interval == 0 {
		c.Telemetry.Metrics.Interval = 15 * time.Second
	}
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(c); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if c.Pipeline.File == "" {
		if _, ok := c.Warehouse[c.Pipeline.Connection]; !ok {
			return fmt.Errorf("pipeline.connection %q is not a configured warehouse (have %v)", c.Pipeline.Connection, c.connectionIDs())
		}
	}
	return nil
}

func (c *Config) connectionIDs() []string {
	ids := make([]string, 0, len(c.Warehouse))
	for id := range c.Warehouse {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (c ConnectionConfig) database() database.Config {
	cfg := database.Config{Driver: database.DriverSQLite, DSN: c.DSN, MaxOpenConns: int(c.MaxConns)}
	cfg.ApplyDefaults()
	return cfg
}

func (c *Config) tracerConfig() observability.TracerConfig {
	tc := observability.DefaultTracerConfig(c.Name)
	tc.ServiceVersion = c.Version
	tc.Environment = c.Environment
	tc.Endpoint = c.Telemetry.Tracing.Endpoint
	tc.Insecure = c.Telemetry.Tracing.Insecure
	tc.SampleRate = c.Telemetry.Tracing.SampleRate
	return tc
}

func (c *Config) meterConfig() observability.MeterConfig {
	mc := observability.DefaultMeterConfig(c.Name)
	mc.ServiceVersion = c.Version
	mc.Environment = c.Environment
	mc.Endpoint = c.Telemetry.Metrics.Endpoint
	mc.Insecure = c.Telemetry.Metrics.Insecure
	mc.Interval = c.Telemetry.Metrics.Interval
	return mc
}

// loadConfig reads config.yml, .env files and environment variables.
func loadConfig(path string) (*Config, error) {
	var opts []config.LoaderOption
	if path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	cfg := &Config{}
	if err := config.LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
