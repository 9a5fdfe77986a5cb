package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "nbaetl/internal/storage/sqlite"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

// validPipeline returns a pipeline whose sources exist on disk.
func validPipeline(t *testing.T) Pipeline {
	t.Helper()
	dir := t.TempDir()
	p := Defaults()
	for _, name := range []string{"players.parquet", "schedule.parquet", "boxscore.parquet", "pbp.parquet"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	p.Sources = Sources{
		Players:    filepath.Join(dir, "players.parquet"),
		Schedule:   filepath.Join(dir, "schedule.parquet"),
		Boxscore:   filepath.Join(dir, "boxscore.parquet"),
		PlayByPlay: filepath.Join(dir, "pbp.parquet"),
	}
	return p
}

/*
TestValidatePipeline_ValidMinimal verifies that defaults plus existing
sources produce no issues (errors or warnings).
*/
func TestValidatePipeline_ValidMinimal(t *testing.T) {
	issues := ValidatePipeline(validPipeline(t))
	if len(issues) != 0 {
		t.Fatalf("expected no issues for valid pipeline; got: %+v", issues)
	}
	if err := Errors(issues); err != nil {
		t.Fatalf("Errors() = %v, want nil", err)
	}
}

func TestValidatePipeline_JobAndMode(t *testing.T) {
	p := validPipeline(t)
	p.Job = " "
	p.Mode = "MERGE"

	issues := ValidatePipeline(p)
	if !hasIssue(t, issues, SeverityError, "job", "job must not be empty") {
		t.Fatalf("expected SeverityError for job; got issues: %+v", issues)
	}
	if !hasIssue(t, issues, SeverityError, "mode", `"MERGE"`) {
		t.Fatalf("expected SeverityError for mode; got issues: %+v", issues)
	}

	p.Mode = "full-refresh"
	p.Job = "nba"
	if issues := ValidatePipeline(p); len(issues) != 0 {
		t.Fatalf("expected lenient mode spelling to pass; got %+v", issues)
	}
}

/*
TestValidateSources_Cases covers empty paths (error) and missing files
(warning).
*/
func TestValidateSources_Cases(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		issues := validateSources(Sources{})
		for _, path := range []string{"sources.players", "sources.schedule", "sources.boxscore", "sources.pbp"} {
			if !hasIssue(t, issues, SeverityError, path, "must not be empty") {
				t.Fatalf("expected error for %s; got %+v", path, issues)
			}
		}
	})

	t.Run("missing_file", func(t *testing.T) {
		s := validPipeline(t).Sources
		s.Boxscore = filepath.Join(t.TempDir(), "nope.parquet")
		issues := validateSources(s)
		if len(issues) != 1 || !hasIssue(t, issues, SeverityWarning, "sources.boxscore", "not readable") {
			t.Fatalf("expected one warning for sources.boxscore; got %+v", issues)
		}
	})
}

/*
TestValidateStorage_Cases covers empty and unregistered kinds, empty DSN,
and a parameter ceiling too low for the widest table.
*/
func TestValidateStorage_Cases(t *testing.T) {
	tests := []struct {
		name string
		in   Storage
		path string
		msg  string
	}{
		{"missing_kind", Storage{DSN: "x.db", MaxParams: 999}, "storage.kind", "must not be empty"},
		{"unknown_kind", Storage{Kind: "postgres", DSN: "x", MaxParams: 999}, "storage.kind", "no backend registered"},
		{"missing_dsn", Storage{Kind: "sqlite", MaxParams: 999}, "storage.dsn", "must not be empty"},
		{"tiny_ceiling", Storage{Kind: "sqlite", DSN: "x.db", MaxParams: 10}, "storage.max_params", "widest table"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			issues := validateStorage(tt.in)
			if !hasIssue(t, issues, SeverityError, tt.path, tt.msg) {
				t.Fatalf("expected error at %s containing %q; got %+v", tt.path, tt.msg, issues)
			}
		})
	}
}

func TestValidateRuntime_Cases(t *testing.T) {
	issues := validateRuntime(RuntimeConfig{BatchSize: 0, ReaderWorkers: -1, ReadBatchSize: -5})
	if !hasIssue(t, issues, SeverityError, "runtime.batch_size", "must be positive") {
		t.Fatalf("expected batch_size error; got %+v", issues)
	}
	if !hasIssue(t, issues, SeverityError, "runtime.reader_workers", "must not be negative") {
		t.Fatalf("expected reader_workers error; got %+v", issues)
	}
	if !hasIssue(t, issues, SeverityError, "runtime.read_batch_size", "must not be negative") {
		t.Fatalf("expected read_batch_size error; got %+v", issues)
	}

	issues = validateRuntime(RuntimeConfig{BatchSize: 30, ReaderWorkers: 8})
	if !hasIssue(t, issues, SeverityWarning, "runtime.reader_workers", "stay idle") {
		t.Fatalf("expected reader_workers warning; got %+v", issues)
	}
}

func TestValidateMetricsAndLog(t *testing.T) {
	tests := []struct {
		name string
		m    Metrics
		path string
	}{
		{"prometheus_without_url", Metrics{Backend: MetricsPrometheus}, "metrics.pushgateway_url"},
		{"datadog_without_addr", Metrics{Backend: MetricsDatadog}, "metrics.datadog_addr"},
		{"unknown_backend", Metrics{Backend: "graphite"}, "metrics.backend"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			issues := validateMetrics(tt.m)
			if len(issues) != 1 || issues[0].Path != tt.path || issues[0].Severity != SeverityError {
				t.Fatalf("validateMetrics(%+v) = %+v, want one error at %s", tt.m, issues, tt.path)
			}
		})
	}
	if issues := validateMetrics(Metrics{Backend: MetricsDatadog, DatadogAddr: "127.0.0.1:8125"}); len(issues) != 0 {
		t.Fatalf("expected no issues; got %+v", issues)
	}

	issues := validateLog(Log{Level: "loud", Format: "xml"})
	if !hasIssue(t, issues, SeverityError, "log.level", "loud") {
		t.Fatalf("expected log.level error; got %+v", issues)
	}
	if !hasIssue(t, issues, SeverityError, "log.format", "xml") {
		t.Fatalf("expected log.format error; got %+v", issues)
	}
}

func TestErrorsJoinsOnlyErrors(t *testing.T) {
	issues := []Issue{
		{Severity: SeverityWarning, Path: "a", Message: "warn"},
		{Severity: SeverityError, Path: "b", Message: "bad"},
	}
	err := Errors(issues)
	if err == nil {
		t.Fatalf("Errors() = nil, want error")
	}
	if got := err.Error(); got != "error at b: bad" {
		t.Fatalf("Errors() = %q", got)
	}
}
