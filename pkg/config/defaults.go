package config

// Default values.
const (
	defaultLogLevel  = "info"
	defaultLogOutput = "stdout"
	defaultLogFormat = "console"
)

// Environment variables consulted by Load.
const (
	EnvLogLevel    = "RUNONCHANGE_LOG_LEVEL"
	EnvLogFormat   = "RUNONCHANGE_LOG_FORMAT"
	EnvLogOutput   = "RUNONCHANGE_LOG_OUTPUT"
	EnvMetricsAddr = "RUNONCHANGE_METRICS_ADDR"
)
