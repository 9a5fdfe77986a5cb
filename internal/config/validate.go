package config

// This file adds a lightweight linter for Pipeline values. It performs static
// checks over a loaded Pipeline and returns a list of issues (errors and
// warnings) that callers can surface in a CLI or tests.

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"go.uber.org/zap/zapcore"

	"nbaetl/internal/load"
	"nbaetl/internal/schema"
	"nbaetl/internal/storage"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but need not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "storage.dsn"). Message is
// human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Errors joins the error-severity issues, or returns nil when there are none.
func Errors(issues []Issue) error {
	var errs []error
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			errs = append(errs, iss)
		}
	}
	return errors.Join(errs...)
}

// ValidatePipeline performs static validation / linting of a Pipeline.
//
// It does not mutate the pipeline. Storage kinds are checked against the
// backends registered with internal/storage, so callers import
// internal/storage/all (or a single backend) first.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	if _, err := load.ParseMode(p.Mode); err != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "mode",
			Message:  err.Error(),
		})
	}
	issues = append(issues, validateSources(p.Sources)...)
	issues = append(issues, validateStorage(p.Storage)...)
	issues = append(issues, validateRuntime(p.Runtime)...)
	issues = append(issues, validateMetrics(p.Metrics)...)
	issues = append(issues, validateLog(p.Log)...)

	return issues
}

// validateSources requires every dataset path and warns about paths that do
// not exist yet.
func validateSources(s Sources) []Issue {
	var issues []Issue
	for _, src := range []struct{ key, path string }{
		{"players", s.Players},
		{"schedule", s.Schedule},
		{"boxscore", s.Boxscore},
		{"pbp", s.PlayByPlay},
	} {
		path := "sources." + src.key
		if strings.TrimSpace(src.path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path,
				Message:  "source path must not be empty",
			})
			continue
		}
		if _, err := os.Stat(src.path); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path,
				Message:  fmt.Sprintf("%s is not readable: %v", src.path, err),
			})
		}
	}
	return issues
}

// validateStorage validates storage configuration.
func validateStorage(s Storage) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  "storage.kind must not be empty",
		})
	} else if kinds := storage.Kinds(); !slices.Contains(kinds, s.Kind) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("no backend registered for %q (have %s)", s.Kind, strings.Join(kinds, ", ")),
		})
	}

	if strings.TrimSpace(s.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.dsn",
			Message:  "storage.dsn must not be empty",
		})
	}

	// One row of the widest table must fit into a single statement.
	widest := 0
	for _, t := range schema.Star() {
		widest = max(widest, len(t.Columns))
	}
	if s.MaxParams < widest {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.max_params",
			Message:  fmt.Sprintf("max_params=%d is below the widest table (%d columns)", s.MaxParams, widest),
		})
	}

	return issues
}

// validateRuntime validates RuntimeConfig for obvious misconfigurations.
func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue

	if r.BatchSize <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.batch_size",
			Message:  fmt.Sprintf("batch_size=%d; must be positive", r.BatchSize),
		})
	}
	if r.ReadBatchSize < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.read_batch_size",
			Message:  fmt.Sprintf("read_batch_size=%d; must not be negative", r.ReadBatchSize),
		})
	}
	if r.ReaderWorkers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.reader_workers",
			Message:  "reader_workers must not be negative",
		})
	}
	if r.ReaderWorkers > 4 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "runtime.reader_workers",
			Message:  fmt.Sprintf("reader_workers=%d; only 4 datasets are read, extra workers stay idle", r.ReaderWorkers),
		})
	}

	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue

	switch m.Backend {
	case "", MetricsNone:
	case MetricsPrometheus:
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.pushgateway_url",
				Message:  "prometheus backend requires a Pushgateway URL",
			})
		}
	case MetricsDatadog:
		if strings.TrimSpace(m.DatadogAddr) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.datadog_addr",
				Message:  "datadog backend requires a DogStatsD address",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q (want none, prometheus or datadog)", m.Backend),
		})
	}

	return issues
}

func validateLog(l Log) []Issue {
	var issues []Issue

	if _, err := zapcore.ParseLevel(l.Level); err != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "log.level",
			Message:  err.Error(),
		})
	}
	if l.Format != "console" && l.Format != "json" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "log.format",
			Message:  fmt.Sprintf("unknown log format %q (want console or json)", l.Format),
		})
	}

	return issues
}
