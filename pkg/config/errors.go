package config

import "errors"

// Common errors returned by the config package.
var (
	// ErrNoCommand is returned when no command line is given.
	ErrNoCommand = errors.New("no command specified")

	// ErrNoDirs is returned when no watch directory is given.
	ErrNoDirs = errors.New("at least one directory must be given")

	// ErrNotDirectory is wrapped by DirError when the path exists but is not a directory.
	ErrNotDirectory = errors.New("not a directory")

	// ErrInvalidLogLevel is returned when log level is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level: must be debug, info, warn, or error")

	// ErrInvalidLogFormat is returned when log format is not recognized.
	ErrInvalidLogFormat = errors.New("invalid log format: must be console, text, or json")

	// ErrInvalidMetricsAddr is returned when the metrics address is not host:port.
	ErrInvalidMetricsAddr = errors.New("invalid metrics address: must be host:port")
)
