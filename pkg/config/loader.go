package config

import (
	"fmt"
	"os"
	"strings"
)

// Overrides carries values set explicitly by command-line flags.
// Empty fields leave the environment or default value in place.
type Overrides struct {
	LogLevel    string
	LogFormat   string
	LogOutput   string
	MetricsAddr string
}

// Load builds and validates the configuration for one invocation.
//
// Precedence is flags, then environment variables, then defaults.
func Load(command string, dirs []string, flags Overrides) (*Config, error) {
	cfg := Default()
	cfg.Command = command
	cfg.Dirs = append([]string(nil), dirs...)

	cfg = applyEnvVars(cfg)
	cfg = applyOverrides(cfg, flags)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvVars applies environment variable overrides to the configuration.
//
// Supported environment variables:
//   - RUNONCHANGE_LOG_LEVEL: Log level
//   - RUNONCHANGE_LOG_FORMAT: Log format
//   - RUNONCHANGE_LOG_OUTPUT: Log destination
//   - RUNONCHANGE_METRICS_ADDR: Metrics listen address
func applyEnvVars(cfg *Config) *Config {
	result := *cfg

	if logLevel := os.Getenv(EnvLogLevel); logLevel != "" {
		result.Logging.Level = strings.ToLower(logLevel)
	}

	if logFormat := os.Getenv(EnvLogFormat); logFormat != "" {
		result.Logging.Format = strings.ToLower(logFormat)
	}

	if logOutput := os.Getenv(EnvLogOutput); logOutput != "" {
		result.Logging.Output = logOutput
	}

	if addr := os.Getenv(EnvMetricsAddr); addr != "" {
		result.Metrics.Addr = addr
	}

	return &result
}

// applyOverrides applies non-empty flag values on top of cfg.
func applyOverrides(cfg *Config, flags Overrides) *Config {
	result := *cfg

	if flags.LogLevel != "" {
		result.Logging.Level = strings.ToLower(flags.LogLevel)
	}
	if flags.LogFormat != "" {
		result.Logging.Format = strings.ToLower(flags.LogFormat)
	}
	if flags.LogOutput != "" {
		result.Logging.Output = flags.LogOutput
	}
	if flags.MetricsAddr != "" {
		result.Metrics.Addr = flags.MetricsAddr
	}

	return &result
}

// String returns a one-line summary suitable for debug logging.
func (c *Config) String() string {
	return fmt.Sprintf("command=%q dirs=%v log=%s/%s/%s metrics=%q",
		c.Command, c.Dirs, c.Logging.Level, c.Logging.Format, c.Logging.Output, c.Metrics.Addr)
}
