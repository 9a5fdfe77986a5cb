package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Batching for in-memory row-sets: rows are cut into statements that respect
// both a row cap and a bound-parameter ceiling, and each chunk is handed to a
// CopyFn. Every successful flush logs running totals and rows/sec.

// CopyFn abstracts a backend's bulk insert capability. Implementations insert
// the provided rows (aligned to columns) and return the number of rows
// reported as inserted.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// BatchStats summarizes one LoadBatches call.
type BatchStats struct {
	Rows    int64
	Batches int64
}

// Add accumulates o into s.
func (s *BatchStats) Add(o BatchStats) {
	s.Rows += o.Rows
	s.Batches += o.Batches
}

// RowsPerStatement returns how many rows of width columns fit in one
// statement: at most batchSize rows and at most maxParams bound parameters.
func RowsPerStatement(width, batchSize, maxParams int) (int, error) {
	if width <= 0 {
		return 0, fmt.Errorf("storage: statement width must be > 0")
	}
	if batchSize <= 0 {
		return 0, fmt.Errorf("storage: batchSize must be > 0")
	}
	if maxParams < width {
		return 0, fmt.Errorf("storage: %d columns exceed max params %d", width, maxParams)
	}
	n := maxParams / width
	if n > batchSize {
		n = batchSize
	}
	return n, nil
}

// LoadBatches splits rows into batches of batchSize rows and calls copyFn for
// each. It returns the rows reported by copyFn and the first error.
//
// Cancellation: returns ctx.Err() between batches when canceled.
func LoadBatches(
	ctx context.Context,
	log *zap.Logger,
	table string,
	columns []string,
	rows [][]any,
	batchSize int,
	copyFn CopyFn,
) (BatchStats, error) {
	var st BatchStats
	if batchSize <= 0 {
		return st, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return st, fmt.Errorf("copyFn must not be nil")
	}
	if log == nil {
		log = zap.NewNop()
	}

	var (
		start       = time.Now()
		lastFlushTS = start
		lastTotal   int64
	)

	for lo := 0; lo < len(rows); lo += batchSize {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		hi := lo + batchSize
		if hi > len(rows) {
			hi = len(rows)
		}

		n, err := copyFn(ctx, columns, rows[lo:hi])
		st.Rows += n
		if err != nil {
			log.Error("loader: batch failed",
				zap.String("table", table),
				zap.Int64("batch", st.Batches+1),
				zap.Int64("total_inserted", st.Rows),
				zap.Error(err))
			return st, err
		}
		st.Batches++

		now := time.Now()
		sinceLast := now.Sub(lastFlushTS)
		rps := float64(0)
		if sinceLast > 0 {
			rps = float64(st.Rows-lastTotal) / sinceLast.Seconds()
		}
		log.Debug("loader: batch",
			zap.String("table", table),
			zap.Int64("batch", st.Batches),
			zap.Float64("rps", rps),
			zap.Int64("inserted", n),
			zap.Int64("total_inserted", st.Rows),
			zap.Duration("elapsed", now.Sub(start).Truncate(time.Millisecond)))
		lastFlushTS = now
		lastTotal = st.Rows
	}
	return st, nil
}

// ChunkKeys splits key tuples of the given width into groups whose flattened
// parameter count stays within maxParams.
func ChunkKeys(keys [][]any, width, maxParams int) ([][][]any, error) {
	per, err := RowsPerStatement(width, maxParams, maxParams)
	if err != nil {
		return nil, err
	}
	var out [][][]any
	for lo := 0; lo < len(keys); lo += per {
		hi := lo + per
		if hi > len(keys) {
			hi = len(keys)
		}
		out = append(out, keys[lo:hi])
	}
	return out, nil
}
