// Package sqlite implements a SQLite-backed storage.Repository.
package sqlite

import "go.uber.org/zap"

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "nba.db"
	//   "file:nba.db?_pragma=busy_timeout(5000)"
	//   "file:test?mode=memory" (private in-memory database)
	DSN string

	// MaxParams is SQLite's bound-variable limit per statement. The
	// historical default of SQLITE_MAX_VARIABLE_NUMBER is 999.
	MaxParams int

	// BatchSize caps rows per multi-row INSERT.
	BatchSize int

	// Logger receives per-batch progress lines. Nil disables logging.
	Logger *zap.Logger
}

const (
	defaultMaxParams = 999
	defaultBatchSize = 30
)

func (c Config) withDefaults() Config {
	if c.MaxParams <= 0 {
		c.MaxParams = defaultMaxParams
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}
