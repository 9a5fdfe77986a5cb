// Package storage contains storage-agnostic contracts and utilities.
//
// Backends register a Factory under a kind name from their init functions
// (see internal/storage/sqlite) and callers open them through New without
// importing the backend directly. Importing internal/storage/all wires every
// built-in backend.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Config carries what a backend needs to open a Repository.
type Config struct {
	// Kind selects the backend, e.g. "sqlite".
	Kind string

	// DSN is passed to the backend driver unchanged.
	DSN string

	// MaxParams is the bound-parameter ceiling of a single statement.
	MaxParams int

	// BatchSize caps the number of rows in one multi-row INSERT.
	BatchSize int

	// Logger receives backend progress lines; nil disables them.
	Logger *zap.Logger
}

// Execer runs a statement that returns no rows and reports rows affected.
type Execer interface {
	Exec(ctx context.Context, query string, args ...any) (int64, error)
}

// Tx is the write surface available inside a transaction.
type Tx interface {
	Execer

	// Insert writes rows (aligned to columns) into table using multi-row
	// INSERT statements sized under the parameter ceiling.
	Insert(ctx context.Context, table string, columns []string, rows [][]any) (BatchStats, error)

	// DeleteKeys removes every row whose keyColumns tuple equals one of keys
	// and returns the number of rows deleted. Tuples are matched as a whole.
	DeleteKeys(ctx context.Context, table string, keyColumns []string, keys [][]any) (int64, error)
}

// RowFunc receives one result row. The slice is reused between calls.
type RowFunc func(vals []any) error

// Repository is an open store.
type Repository interface {
	Execer

	// WithTx runs fn inside a transaction. The transaction commits when fn
	// returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Query streams the rows of a read-only query to fn.
	Query(ctx context.Context, fn RowFunc, query string, args ...any) error

	// Count returns the number of rows in table.
	Count(ctx context.Context, table string) (int64, error)

	Close()
}

// Factory opens a Repository for a backend.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the Factory for kind. It is typically
// called from backend packages' init() functions.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// Kinds lists the registered backend kinds in sorted order.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New opens a Repository using the Factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unknown kind %q (registered: %v)", cfg.Kind, Kinds())
	}
	return f(ctx, cfg)
}
