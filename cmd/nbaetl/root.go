package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"nbaetl/internal/config"
	"nbaetl/internal/logging"
	"nbaetl/internal/metrics"
	"nbaetl/internal/metrics/datadog"
	"nbaetl/internal/metrics/prompush"
)

// errFailed is returned after a command has already reported why it failed.
var errFailed = errors.New("nbaetl: failed")

// app carries what every command shares: output streams, the resolved
// configuration and the logger built from it.
type app struct {
	stdout, stderr io.Writer

	newLogger func(config.Log) (*zap.Logger, error)

	cfg config.Pipeline
	log *zap.Logger
}

func newApp(stdout, stderr io.Writer) *app {
	a := &app{stdout: stdout, stderr: stderr}
	a.newLogger = func(c config.Log) (*zap.Logger, error) { return logging.NewWriter(c, a.stderr) }
	return a
}

func (a *app) rootCommand() *cobra.Command {
	rc := &cobra.Command{
		Use:   "nbaetl",
		Short: "Load NBA Parquet datasets into a SQLite star schema.",
		Long: `nbaetl reads the players, schedule, boxscore and play-by-play datasets,
normalizes them into four dimension and six fact tables and writes them to
SQLite, either replacing everything (FULL_REFRESH) or replacing rows by key
(UPSERT).

Configuration is read from defaults, an optional YAML/JSON file (--config),
NBAETL_* environment variables and flags, in increasing priority.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Flags())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	rc.SetOut(a.stdout)
	rc.SetErr(a.stderr)
	addConfigFlags(rc.PersistentFlags())

	rc.AddCommand(a.runCommand())
	rc.AddCommand(a.verifyCommand())
	rc.AddCommand(a.checkCommand())
	rc.AddCommand(a.schemaCommand())
	rc.AddCommand(a.configCommand())
	return rc
}

// addConfigFlags declares one flag per config.FlagKey entry, defaulted
// from config.Defaults.
func addConfigFlags(fs *pflag.FlagSet) {
	d := config.Defaults()
	fs.StringP("config", "c", "", "YAML or JSON configuration file")
	fs.String("job", d.Job, "job name for logs and metrics")
	fs.String("mode", d.Mode, "load mode: FULL_REFRESH or UPSERT")
	fs.String("players", "", "players dataset: Parquet file or directory")
	fs.String("schedule", "", "schedule dataset: Parquet file or directory")
	fs.String("boxscore", "", "boxscore dataset: Parquet file or directory")
	fs.String("pbp", "", "play-by-play dataset: Parquet file or directory")
	fs.String("storage", d.Storage.Kind, "storage backend")
	fs.String("dsn", d.Storage.DSN, "store location")
	fs.Int("max-params", d.Storage.MaxParams, "bound parameters allowed per statement")
	fs.Int("batch-size", d.Runtime.BatchSize, "rows per INSERT statement at most")
	fs.Int("reader-workers", d.Runtime.ReaderWorkers, "datasets extracted concurrently")
	fs.Int64("read-batch", d.Runtime.ReadBatchSize, "rows decoded per Parquet record batch, 0 for the reader default")
	fs.String("metrics", d.Metrics.Backend, "metrics backend: none, prometheus or datadog")
	fs.String("pushgateway", d.Metrics.PushgatewayURL, "Prometheus Pushgateway URL")
	fs.String("datadog-addr", d.Metrics.DatadogAddr, "DogStatsD address, host:port")
	fs.String("log-level", d.Log.Level, "log level: debug, info, warn or error")
	fs.String("log-format", d.Log.Format, "log format: console or json")
}

func (a *app) setup(fs *pflag.FlagSet) error {
	path, err := fs.GetString("config")
	if err != nil {
		return err
	}
	if a.cfg, err = config.Load(path, fs); err != nil {
		return err
	}
	if a.log, err = a.newLogger(a.cfg.Log); err != nil {
		return err
	}
	return nil
}

// validate prints every issue and fails on error-severity ones.
func (a *app) validate() error {
	issues := config.ValidatePipeline(a.cfg)
	for _, iss := range issues {
		fmt.Fprintf(a.stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if err := config.Errors(issues); err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}
	return nil
}

// startMetrics installs the configured backend. The returned func flushes
// it and restores the no-op backend.
func (a *app) startMetrics() (func(), error) {
	m := a.cfg.Metrics
	var b metrics.Backend
	switch m.Backend {
	case "", config.MetricsNone:
		return func() {}, nil
	case config.MetricsPrometheus:
		pb, err := prompush.NewBackend(a.cfg.Job, m.PushgatewayURL)
		if err != nil {
			return nil, err
		}
		b = pb
	case config.MetricsDatadog:
		db, err := datadog.NewBackend(datadog.Config{
			Addr:       m.DatadogAddr,
			Namespace:  m.Namespace,
			GlobalTags: []string{"job:" + a.cfg.Job},
		})
		if err != nil {
			return nil, err
		}
		b = db
	default:
		return nil, fmt.Errorf("unknown metrics backend %q", m.Backend)
	}

	a.log.Info("metrics enabled", zap.String("backend", m.Backend))
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			a.log.Warn("metrics flush failed", zap.Error(err))
		}
		metrics.Reset()
	}, nil
}
