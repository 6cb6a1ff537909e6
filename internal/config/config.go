// Package config provides runtime configuration for the ignitor binary.
//
// Values come from defaults, then an optional YAML file, then IGNITOR_*
// environment variables. Application configuration (providers, aliases,
// autoloads) is not handled here; it lives in the application's manifest.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the complete ignitor runtime configuration.
type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Loader    LoaderConfig    `koanf:"loader"`
}

// AppConfig locates the application being booted.
type AppConfig struct {
	Root    string `koanf:"root"`
	File    string `koanf:"file"`
	EnvFile string `koanf:"env_file"`
}

// ServerConfig holds HTTP front-end settings.
type ServerConfig struct {
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
	Metrics         bool     `koanf:"metrics"`
}

// LoggingConfig selects log level and encoding.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// TelemetryConfig holds OpenTelemetry trace export settings.
type TelemetryConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	Protocol    string  `koanf:"protocol"`
	Insecure    bool    `koanf:"insecure"`
	ServiceName string  `koanf:"service_name"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// LoaderConfig bounds module evaluation.
type LoaderConfig struct {
	ScriptTimeout Duration `koanf:"script_timeout"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Root:    ".",
			File:    "start/app",
			EnvFile: ".env",
		},
		Server: ServerConfig{
			ShutdownTimeout: Duration(10 * time.Second),
			Metrics:         true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			Endpoint:    "localhost:4317",
			Protocol:    "grpc",
			Insecure:    true,
			ServiceName: "ignitor",
			SampleRate:  1.0,
		},
		Loader: LoaderConfig{
			ScriptTimeout: Duration(5 * time.Second),
		},
	}
}

// Validate checks config for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Root == "" {
		errs = append(errs, errors.New("app.root is required"))
	}
	if c.App.File == "" {
		errs = append(errs, errors.New("app.file is required"))
	}
	if c.Server.ShutdownTimeout.Duration() <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		errs = append(errs, fmt.Errorf("logging.format must be 'json' or 'console', got %q", c.Logging.Format))
	}
	if c.Telemetry.Enabled {
		if c.Telemetry.Endpoint == "" {
			errs = append(errs, errors.New("telemetry.endpoint is required when telemetry is enabled"))
		}
		if c.Telemetry.Protocol != "grpc" && c.Telemetry.Protocol != "http/protobuf" {
			errs = append(errs, fmt.Errorf("telemetry.protocol must be 'grpc' or 'http/protobuf', got %q", c.Telemetry.Protocol))
		}
		if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
			errs = append(errs, fmt.Errorf("telemetry.sample_rate must be between 0 and 1, got %f", c.Telemetry.SampleRate))
		}
	}

	return errors.Join(errs...)
}
