// Package config provides configuration management for runonchange.
//
// There is no configuration file. Values are resolved with the following
// precedence:
// 1. Command-line flags (highest priority)
// 2. Environment variables
// 3. Default values (lowest priority)
//
// The command and the watch directories only come from the command line.
//
// Example usage:
//
//	cfg, err := config.Load("go test ./...", []string{"./pkg"}, config.Overrides{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("watching %v\n", cfg.Dirs)
package config

import (
	"net"
	"os"
	"strconv"
)

// Config represents the complete application configuration.
//
// Invariants:
// - Command must not be empty
// - Dirs must have at least one entry
// - Every entry of Dirs must be an existing directory
// - Logging.Level and Logging.Format must be recognized
// - Metrics.Addr, when set, must be a host:port pair.
type Config struct {
	// Command is the shell command line run on every accepted change.
	Command string

	// Dirs are the watch targets. They are watched recursively.
	Dirs []string

	// Logging settings
	Logging LoggingConfig

	// Metrics settings
	Metrics MetricsConfig
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string

	// Log output destination (stdout, stderr, file path)
	Output string

	// Log format (console, text, json)
	Format string
}

// MetricsConfig contains settings for the optional Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address. Empty disables the endpoint.
	Addr string
}

// Enabled reports whether the metrics endpoint should be served.
func (m MetricsConfig) Enabled() bool {
	return m.Addr != ""
}

// DirError reports a watch target that is missing or not a directory.
type DirError struct {
	Path string // Path as given on the command line
	Err  error  // ErrNotDirectory or the underlying stat error
}

func (e *DirError) Error() string {
	return strconv.Quote(e.Path) + " is not a directory"
}

func (e *DirError) Unwrap() error {
	return e.Err
}

// Validate checks if the configuration satisfies all invariants.
//
// Directories are checked in order and the first failing one is reported
// as a *DirError.
func (c *Config) Validate() error {
	if c.Command == "" {
		return ErrNoCommand
	}

	if len(c.Dirs) == 0 {
		return ErrNoDirs
	}

	for _, dir := range c.Dirs {
		if err := checkDir(dir); err != nil {
			return err
		}
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	validFormats := map[string]bool{
		"console": true,
		"text":    true,
		"json":    true,
	}
	if !validFormats[c.Logging.Format] {
		return ErrInvalidLogFormat
	}

	if c.Metrics.Enabled() {
		if _, _, err := net.SplitHostPort(c.Metrics.Addr); err != nil {
			return ErrInvalidMetricsAddr
		}
	}

	return nil
}

func checkDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return &DirError{Path: dir, Err: err}
	}
	if !info.IsDir() {
		return &DirError{Path: dir, Err: ErrNotDirectory}
	}
	return nil
}

// Default returns a configuration with default values and no command or
// directories.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  defaultLogLevel,
			Output: defaultLogOutput,
			Format: defaultLogFormat,
		},
	}
}
