// Package config defines the run configuration of the pipeline and how it is
// assembled.
//
// Values are layered, lowest priority first: built-in defaults, a YAML or
// JSON file, NBAETL_* environment variables, then command-line flags. Keys
// are dotted paths into Pipeline ("storage.dsn"); the matching environment
// variable upper-cases the path and replaces dots with underscores
// (NBAETL_STORAGE_DSN).
//
// Example (YAML):
//
//	job: nba
//	mode: UPSERT
//	sources:
//	  players: data/players.parquet
//	  schedule: data/schedule/
//	  boxscore: data/boxscore.parquet
//	  pbp: data/pbp.parquet
//	storage:
//	  kind: sqlite
//	  dsn: nba.db
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "NBAETL"

// Pipeline is the full run configuration.
type Pipeline struct {
	// Job labels logs and metrics.
	Job string `mapstructure:"job" yaml:"job" json:"job"`

	// Mode is FULL_REFRESH or UPSERT.
	Mode string `mapstructure:"mode" yaml:"mode" json:"mode"`

	Sources Sources       `mapstructure:"sources" yaml:"sources" json:"sources"`
	Storage Storage       `mapstructure:"storage" yaml:"storage" json:"storage"`
	Runtime RuntimeConfig `mapstructure:"runtime" yaml:"runtime" json:"runtime"`
	Metrics Metrics       `mapstructure:"metrics" yaml:"metrics" json:"metrics"`
	Log     Log           `mapstructure:"log" yaml:"log" json:"log"`
}

// Sources locates the four datasets. Each path is a Parquet file or a
// directory of Parquet files.
type Sources struct {
	Players    string `mapstructure:"players" yaml:"players" json:"players"`
	Schedule   string `mapstructure:"schedule" yaml:"schedule" json:"schedule"`
	Boxscore   string `mapstructure:"boxscore" yaml:"boxscore" json:"boxscore"`
	PlayByPlay string `mapstructure:"pbp" yaml:"pbp" json:"pbp"`
}

// Storage selects and locates the target store.
type Storage struct {
	// Kind selects the registered backend. Current value: "sqlite".
	Kind string `mapstructure:"kind" yaml:"kind" json:"kind"`

	// DSN is handed to the driver unchanged, e.g. "nba.db".
	DSN string `mapstructure:"dsn" yaml:"dsn" json:"dsn"`

	// MaxParams is the bound-parameter ceiling of one statement.
	MaxParams int `mapstructure:"max_params" yaml:"max_params" json:"max_params"`
}

// RuntimeConfig controls batching and read concurrency.
type RuntimeConfig struct {
	// BatchSize caps rows per multi-row INSERT.
	BatchSize int `mapstructure:"batch_size" yaml:"batch_size" json:"batch_size"`

	// ReaderWorkers bounds how many datasets are extracted at once.
	ReaderWorkers int `mapstructure:"reader_workers" yaml:"reader_workers" json:"reader_workers"`

	// ReadBatchSize is the number of rows decoded per Parquet record batch.
	// Zero uses the reader's default.
	ReadBatchSize int64 `mapstructure:"read_batch_size" yaml:"read_batch_size" json:"read_batch_size"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	// Backend is "none", "prometheus" (Pushgateway) or "datadog".
	Backend        string `mapstructure:"backend" yaml:"backend" json:"backend"`
	PushgatewayURL string `mapstructure:"pushgateway_url" yaml:"pushgateway_url" json:"pushgateway_url"`
	DatadogAddr    string `mapstructure:"datadog_addr" yaml:"datadog_addr" json:"datadog_addr"`
	Namespace      string `mapstructure:"namespace" yaml:"namespace" json:"namespace"`
}

// Log configures the logger.
type Log struct {
	// Level is debug, info, warn or error.
	Level string `mapstructure:"level" yaml:"level" json:"level"`

	// Format is "console" or "json".
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// Metrics backends.
const (
	MetricsNone       = "none"
	MetricsPrometheus = "prometheus"
	MetricsDatadog    = "datadog"
)

// Defaults returns the built-in configuration.
func Defaults() Pipeline {
	return Pipeline{
		Job:     "nba",
		Mode:    "UPSERT",
		Storage: Storage{Kind: "sqlite", DSN: "nba.db", MaxParams: 999},
		Runtime: RuntimeConfig{BatchSize: 30, ReaderWorkers: 1},
		Metrics: Metrics{Backend: MetricsNone},
		Log:     Log{Level: "info", Format: "console"},
	}
}

// defaultValues flattens Defaults into dotted keys. Every configurable key
// appears here, which is what lets viper resolve environment variables for
// keys without a non-empty default.
func defaultValues() map[string]any {
	d := Defaults()
	return map[string]any{
		"job":                     d.Job,
		"mode":                    d.Mode,
		"sources.players":         d.Sources.Players,
		"sources.schedule":        d.Sources.Schedule,
		"sources.boxscore":        d.Sources.Boxscore,
		"sources.pbp":             d.Sources.PlayByPlay,
		"storage.kind":            d.Storage.Kind,
		"storage.dsn":             d.Storage.DSN,
		"storage.max_params":      d.Storage.MaxParams,
		"runtime.batch_size":      d.Runtime.BatchSize,
		"runtime.reader_workers":  d.Runtime.ReaderWorkers,
		"runtime.read_batch_size": d.Runtime.ReadBatchSize,
		"metrics.backend":         d.Metrics.Backend,
		"metrics.pushgateway_url": d.Metrics.PushgatewayURL,
		"metrics.datadog_addr":    d.Metrics.DatadogAddr,
		"metrics.namespace":       d.Metrics.Namespace,
		"log.level":               d.Log.Level,
		"log.format":              d.Log.Format,
	}
}

// Keys lists every configuration key, sorted.
func Keys() []string {
	out := make([]string, 0, len(defaultValues()))
	for k := range defaultValues() {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// FlagKey maps a command-line flag name onto its configuration key. Flags
// not listed here are ignored by Load.
var FlagKey = map[string]string{
	"job":            "job",
	"mode":           "mode",
	"players":        "sources.players",
	"schedule":       "sources.schedule",
	"boxscore":       "sources.boxscore",
	"pbp":            "sources.pbp",
	"storage":        "storage.kind",
	"dsn":            "storage.dsn",
	"max-params":     "storage.max_params",
	"batch-size":     "runtime.batch_size",
	"reader-workers": "runtime.reader_workers",
	"read-batch":     "runtime.read_batch_size",
	"metrics":        "metrics.backend",
	"pushgateway":    "metrics.pushgateway_url",
	"datadog-addr":   "metrics.datadog_addr",
	"log-level":      "log.level",
	"log-format":     "log.format",
}

// Load assembles the configuration from defaults, the file at path (if
// any), the environment and flags (if any). Unknown keys in the file are an
// error.
func Load(path string, flags *pflag.FlagSet) (Pipeline, error) {
	v := viper.New()
	known := defaultValues()
	for k, val := range known {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			key, ok := FlagKey[f.Name]
			if !ok || bindErr != nil {
				return
			}
			bindErr = v.BindPFlag(key, f)
		})
		if bindErr != nil {
			return Pipeline{}, fmt.Errorf("config: bind flags: %w", bindErr)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Pipeline{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		for _, key := range v.AllKeys() {
			if _, ok := known[key]; !ok {
				return Pipeline{}, fmt.Errorf("config: %s: unknown option %q", path, key)
			}
		}
	}

	var p Pipeline
	if err := v.Unmarshal(&p); err != nil {
		return Pipeline{}, fmt.Errorf("config: decode: %w", err)
	}
	return p, nil
}

// Dump renders p as YAML.
func Dump(p Pipeline) ([]byte, error) {
	out, err := yaml.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("config: dump: %w", err)
	}
	return out, nil
}
