package main

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/0xmhha/runonchange/pkg/config"
	"github.com/0xmhha/runonchange/pkg/logger"
	"github.com/0xmhha/runonchange/pkg/metrics"
	"github.com/0xmhha/runonchange/pkg/runloop"
	"github.com/0xmhha/runonchange/pkg/supervisor"
	"github.com/0xmhha/runonchange/pkg/watcher"
	"github.com/spf13/cobra"
)

// errUsage makes run print the usage text instead of an error line.
var errUsage = errors.New("usage")

const shutdownTimeout = 5 * time.Second

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var flags config.Overrides

	root := &cobra.Command{
		Use:   `runonchange [flags] "<command>" <dir1> [dir2 ...]`,
		Short: "Re-run a shell command whenever a watched directory changes",
		Long: `runonchange watches the given directories recursively and runs <command>
through the shell on every change. A change arriving within 8 seconds of the
previous run is ignored. Before each new run the previous one is sent SIGTERM
together with every process it started.`,
		Example: `  runonchange "go test ./..." ./pkg ./cmd
  runonchange --log-level debug "make serve" ./web`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || args[0] == "" {
				return errUsage
			}

			cfg, err := config.Load(args[0], args[1:], flags)
			if err != nil {
				return err
			}

			return watchAndRun(cmd.Context(), cfg, stdout, stderr)
		},
	}

	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate("runonchange {{.Version}}\n")

	// Everything after the command line belongs to it.
	root.Flags().SetInterspersed(false)
	root.Flags().StringVar(&flags.LogLevel, "log-level", "",
		"Log level: debug|info|warn|error (defaults "+config.EnvLogLevel+" or info)")
	root.Flags().StringVar(&flags.LogFormat, "log-format", "",
		"Log format: console|text|json (defaults "+config.EnvLogFormat+" or console)")
	root.Flags().StringVar(&flags.LogOutput, "log-output", "",
		"Log destination: stdout|stderr|<file> (defaults "+config.EnvLogOutput+" or stdout)")
	root.Flags().StringVar(&flags.MetricsAddr, "metrics-addr", "",
		"Serve Prometheus metrics on host:port (defaults "+config.EnvMetricsAddr+", off when empty)")

	return root
}

// watchAndRun wires the watcher, supervisor and run loop for cfg and blocks
// until the loop ends.
func watchAndRun(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) error {
	log := newLogger(cfg.Logging, stdout, stderr)
	log.Debug("configuration loaded", "config", cfg.String())

	w, err := watcher.New(log)
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Start(ctx, cfg.Dirs); err != nil {
		return err
	}

	recorder := metrics.Noop()
	if cfg.Metrics.Enabled() {
		m := metrics.New()
		srv, err := metrics.Listen(cfg.Metrics.Addr, m, log)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn("metrics server shutdown failed", "error", err)
			}
		}()
		recorder = m
	}

	sup := supervisor.New(log, supervisor.WithOutput(stdout, stderr))

	loop, err := runloop.New(cfg.Command, w, sup, log, runloop.WithRecorder(recorder))
	if err != nil {
		return err
	}

	err = loop.Run(ctx)
	if ctx.Err() != nil {
		// Cancelled by the caller: leave nothing running behind.
		loop.Stop()
		return nil
	}

	return err
}

// newLogger routes the stdout and stderr destinations to the given writers.
func newLogger(cfg config.LoggingConfig, stdout, stderr io.Writer) logger.Logger {
	lc := logger.Config{
		Level:  cfg.Level,
		Output: cfg.Output,
		Format: cfg.Format,
	}

	switch strings.ToLower(cfg.Output) {
	case "stdout":
		return logger.NewWithWriter(lc, stdout)
	case "stderr":
		return logger.NewWithWriter(lc, stderr)
	default:
		return logger.New(lc)
	}
}
