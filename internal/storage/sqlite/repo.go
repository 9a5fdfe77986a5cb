// Package sqlite implements a SQLite-backed storage.Repository using
// database/sql. Writes go through explicit transactions; inserts are
// multi-row statements sized under the bound-parameter ceiling and key
// deletes use IN lists (row values for composite keys).
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"nbaetl/internal/storage"
	sqliteddl "nbaetl/internal/storage/sqlite/ddl"
)

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens a SQLite connection using the provided DSN and returns
// a Repository plus a Close function for cleanup.
//
// The pool is limited to one connection: the store has a single writer, and
// PRAGMA foreign_keys is per connection.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	cfg = cfg.withDefaults()

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Apply a basic ping with context to fail fast on invalid DSNs.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: enable foreign keys: %w", err)
	}

	closeFn := func() { db.Close() }
	return &Repository{db: db, cfg: cfg}, closeFn, nil
}

// Exec executes a statement (typically DDL) outside any explicit transaction.
func (r *Repository) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return execOn(ctx, r.db, query, args...)
}

// WithTx runs fn in a transaction. Deferred foreign keys are checked at
// commit; a failed commit is rolled back so the connection stays usable.
func (r *Repository) WithTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin tx: %w", err)
	}
	defer func() { _ = sqlTx.Rollback() }()

	if err := fn(&tx{tx: sqlTx, cfg: r.cfg}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		// SQLite keeps the transaction open when COMMIT fails on a deferred
		// constraint; end it explicitly.
		_, _ = r.db.ExecContext(context.Background(), "ROLLBACK")
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// Query streams result rows to fn. Values arrive as SQLite returns them:
// int64, float64, string, []byte or nil.
func (r *Repository) Query(ctx context.Context, fn storage.RowFunc, query string, args ...any) error {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("sqlite: query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("sqlite: columns: %w", err)
	}
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("sqlite: scan: %w", err)
		}
		if err := fn(vals); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: rows: %w", err)
	}
	return nil
}

// Count returns SELECT COUNT(*) for table.
func (r *Repository) Count(ctx context.Context, table string) (int64, error) {
	var n int64
	q := "SELECT COUNT(*) FROM " + sqliteddl.QuoteFQN(table)
	if err := r.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: count %s: %w", table, err)
	}
	return n, nil
}

// tx implements storage.Tx over a *sql.Tx.
type tx struct {
	tx  *sql.Tx
	cfg Config
}

func (t *tx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return execOn(ctx, t.tx, query, args...)
}

// Insert writes rows with multi-row INSERT statements. Full-size chunks share
// one prepared statement; the final short chunk gets its own.
func (t *tx) Insert(ctx context.Context, table string, columns []string, rows [][]any) (storage.BatchStats, error) {
	if len(columns) == 0 {
		return storage.BatchStats{}, fmt.Errorf("sqlite: insert %s: columns must not be empty", table)
	}
	if len(rows) == 0 {
		return storage.BatchStats{}, nil
	}
	per, err := storage.RowsPerStatement(len(columns), t.cfg.BatchSize, t.cfg.MaxParams)
	if err != nil {
		return storage.BatchStats{}, fmt.Errorf("sqlite: insert %s: %w", table, err)
	}

	var full *sql.Stmt
	defer func() {
		if full != nil {
			full.Close()
		}
	}()
	args := make([]any, 0, per*len(columns))

	copyFn := func(ctx context.Context, cols []string, chunk [][]any) (int64, error) {
		args = args[:0]
		for i, row := range chunk {
			if len(row) != len(cols) {
				return 0, fmt.Errorf("sqlite: insert %s: row %d has %d values, want %d", table, i, len(row), len(cols))
			}
			args = append(args, row...)
		}

		var res sql.Result
		var err error
		if len(chunk) == per {
			if full == nil {
				full, err = t.tx.PrepareContext(ctx, insertSQL(table, cols, per))
				if err != nil {
					return 0, fmt.Errorf("sqlite: prepare insert %s: %w", table, err)
				}
			}
			res, err = full.ExecContext(ctx, args...)
		} else {
			res, err = t.tx.ExecContext(ctx, insertSQL(table, cols, len(chunk)), args...)
		}
		if err != nil {
			return 0, fmt.Errorf("sqlite: insert %s: %w", table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return int64(len(chunk)), nil
		}
		return n, nil
	}

	return storage.LoadBatches(ctx, t.cfg.Logger, table, columns, rows, per, copyFn)
}

// DeleteKeys deletes rows by exact key tuples, chunked under MaxParams.
func (t *tx) DeleteKeys(ctx context.Context, table string, keyColumns []string, keys [][]any) (int64, error) {
	if len(keyColumns) == 0 {
		return 0, fmt.Errorf("sqlite: delete %s: key columns must not be empty", table)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	chunks, err := storage.ChunkKeys(keys, len(keyColumns), t.cfg.MaxParams)
	if err != nil {
		return 0, fmt.Errorf("sqlite: delete %s: %w", table, err)
	}

	var deleted int64
	for _, chunk := range chunks {
		args := make([]any, 0, len(chunk)*len(keyColumns))
		for i, k := range chunk {
			if len(k) != len(keyColumns) {
				return deleted, fmt.Errorf("sqlite: delete %s: key %d has %d parts, want %d", table, i, len(k), len(keyColumns))
			}
			args = append(args, k...)
		}
		n, err := execOn(ctx, t.tx, deleteSQL(table, keyColumns, len(chunk)), args...)
		if err != nil {
			return deleted, fmt.Errorf("sqlite: delete %s: %w", table, err)
		}
		deleted += n
	}
	return deleted, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func execOn(ctx context.Context, e execer, query string, args ...any) (int64, error) {
	if strings.TrimSpace(query) == "" {
		return 0, nil
	}
	res, err := e.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("sqlite: exec: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// insertSQL renders INSERT INTO "t" ("a", "b") VALUES (?, ?), (?, ?) ...
func insertSQL(table string, columns []string, rows int) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = sqliteddl.QuoteIdent(c)
	}
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(sqliteddl.QuoteFQN(table))
	sb.WriteString(" (")
	sb.WriteString(strings.Join(quoted, ", "))
	sb.WriteString(") VALUES ")
	for i := 0; i < rows; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(tuple)
	}
	return sb.String()
}

// deleteSQL renders a key delete. One key column uses a plain IN list;
// composite keys compare row values against a VALUES list.
func deleteSQL(table string, keyColumns []string, keys int) string {
	var sb strings.Builder
	sb.WriteString("DELETE FROM ")
	sb.WriteString(sqliteddl.QuoteFQN(table))
	sb.WriteString(" WHERE ")

	if len(keyColumns) == 1 {
		sb.WriteString(sqliteddl.QuoteIdent(keyColumns[0]))
		sb.WriteString(" IN (")
		sb.WriteString(strings.TrimSuffix(strings.Repeat("?, ", keys), ", "))
		sb.WriteString(")")
		return sb.String()
	}

	quoted := make([]string, len(keyColumns))
	for i, c := range keyColumns {
		quoted[i] = sqliteddl.QuoteIdent(c)
	}
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(keyColumns)), ", ") + ")"
	sb.WriteString("(")
	sb.WriteString(strings.Join(quoted, ", "))
	sb.WriteString(") IN (VALUES ")
	for i := 0; i < keys; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(tuple)
	}
	sb.WriteString(")")
	return sb.String()
}

var _ storage.Tx = (*tx)(nil)
