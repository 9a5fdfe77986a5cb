// Package rowset provides the in-memory tabular value passed between the
// extract, transform and load stages.
//
// A RowSet is a named, ordered list of columns plus rows whose length always
// equals the number of columns. Cells are plain Go values: int64, float64,
// bool, string, time.Time, json.RawMessage, nested map[string]any / []any, or
// nil for a missing value. Source row-sets come straight from the parquet
// reader; target row-sets are produced by the entity builders from typed
// records (see FromRecords).
package rowset

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrSourceContract reports that a source row-set does not carry a column the
// builders depend on. It is fatal for a run and is raised before any write.
var ErrSourceContract = errors.New("source contract violation")

// MissingColumnsError lists the required columns absent from a row-set.
type MissingColumnsError struct {
	RowSet  string
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: row-set %q missing required columns: %s",
		ErrSourceContract, e.RowSet, strings.Join(e.Missing, ", "))
}

// Unwrap lets callers match with errors.Is(err, ErrSourceContract).
func (e *MissingColumnsError) Unwrap() error { return ErrSourceContract }

// Record is implemented by the typed target records in internal/model.
// Values must return one value per column, in column order.
type Record interface {
	Values() []any
}

// RowSet is an ordered-column table held in memory.
type RowSet struct {
	name    string
	columns []string
	index   map[string]int
	rows    [][]any
}

// New returns an empty RowSet with the given column order. Duplicate column
// names keep the first position.
func New(name string, columns ...string) *RowSet {
	cols := make([]string, 0, len(columns))
	idx := make(map[string]int, len(columns))
	for _, c := range columns {
		if _, dup := idx[c]; dup {
			continue
		}
		idx[c] = len(cols)
		cols = append(cols, c)
	}
	return &RowSet{name: name, columns: cols, index: idx}
}

// FromRecords builds a RowSet from typed records.
func FromRecords[T Record](name string, columns []string, recs []T) (*RowSet, error) {
	rs := New(name, columns...)
	rs.rows = make([][]any, 0, len(recs))
	for i, r := range recs {
		if err := rs.Append(r.Values()...); err != nil {
			return nil, fmt.Errorf("rowset %s: record %d: %w", name, i, err)
		}
	}
	return rs, nil
}

// Name returns the row-set name (dataset or target table).
func (r *RowSet) Name() string { return r.name }

// Columns returns a copy of the column order.
func (r *RowSet) Columns() []string {
	out := make([]string, len(r.columns))
	copy(out, r.columns)
	return out
}

// Len returns the number of rows.
func (r *RowSet) Len() int {
	if r == nil {
		return 0
	}
	return len(r.rows)
}

// Has reports whether the column exists.
func (r *RowSet) Has(col string) bool {
	_, ok := r.index[col]
	return ok
}

// Index returns the position of col.
func (r *RowSet) Index(col string) (int, bool) {
	i, ok := r.index[col]
	return i, ok
}

// Require checks that every column in cols is present.
func (r *RowSet) Require(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if !r.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &MissingColumnsError{RowSet: r.name, Missing: missing}
}

// Append adds one row. The number of values must match the column count.
func (r *RowSet) Append(vals ...any) error {
	if len(vals) != len(r.columns) {
		return fmt.Errorf("rowset %s: row has %d values, want %d", r.name, len(vals), len(r.columns))
	}
	row := make([]any, len(vals))
	copy(row, vals)
	r.rows = append(r.rows, row)
	return nil
}

// Value returns the cell at row i for col, or nil when col is unknown.
func (r *RowSet) Value(i int, col string) any {
	j, ok := r.index[col]
	if !ok {
		return nil
	}
	return r.rows[i][j]
}

// Row returns a read-only view over row i.
func (r *RowSet) Row(i int) Row { return Row{rs: r, i: i} }

// Rows exposes the underlying rows in column order. Callers must not mutate
// the returned slices.
func (r *RowSet) Rows() [][]any { return r.rows }

// Column returns all values of col in row order.
func (r *RowSet) Column(col string) ([]any, error) {
	j, ok := r.index[col]
	if !ok {
		return nil, &MissingColumnsError{RowSet: r.name, Missing: []string{col}}
	}
	out := make([]any, len(r.rows))
	for i, row := range r.rows {
		out[i] = row[j]
	}
	return out, nil
}

// Filter returns a new RowSet holding the rows for which keep returns true.
// Row slices are shared with the receiver.
func (r *RowSet) Filter(keep func(Row) bool) *RowSet {
	out := New(r.name, r.columns...)
	for i := range r.rows {
		if keep(r.Row(i)) {
			out.rows = append(out.rows, r.rows[i])
		}
	}
	return out
}

// Select returns a new RowSet holding the rows at the given positions, in
// the given order. Row slices are shared with the receiver.
func (r *RowSet) Select(positions []int) *RowSet {
	out := New(r.name, r.columns...)
	out.rows = make([][]any, 0, len(positions))
	for _, p := range positions {
		out.rows = append(out.rows, r.rows[p])
	}
	return out
}

// SortStable reorders rows in place with a stable sort.
func (r *RowSet) SortStable(less func(a, b Row) bool) {
	// Sort a permutation so Row views stay valid during comparison.
	perm := make([]int, len(r.rows))
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(a, b int) bool {
		return less(r.Row(perm[a]), r.Row(perm[b]))
	})
	sorted := make([][]any, len(r.rows))
	for i, p := range perm {
		sorted[i] = r.rows[p]
	}
	r.rows = sorted
}

// Concat stacks row-sets vertically. The result carries the union of all
// columns in first-seen order; cells for columns a part does not have are nil.
func Concat(name string, parts ...*RowSet) *RowSet {
	var cols []string
	seen := map[string]struct{}{}
	total := 0
	for _, p := range parts {
		if p == nil {
			continue
		}
		total += len(p.rows)
		for _, c := range p.columns {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			cols = append(cols, c)
		}
	}

	out := New(name, cols...)
	out.rows = make([][]any, 0, total)
	for _, p := range parts {
		if p == nil {
			continue
		}
		mapping := make([]int, len(p.columns))
		for j, c := range p.columns {
			mapping[j] = out.index[c]
		}
		for _, src := range p.rows {
			row := make([]any, len(cols))
			for j, v := range src {
				row[mapping[j]] = v
			}
			out.rows = append(out.rows, row)
		}
	}
	return out
}

// Row is a view over a single row of a RowSet.
type Row struct {
	rs *RowSet
	i  int
}

// Get returns the cell for col, or nil when the column is unknown.
func (r Row) Get(col string) any { return r.rs.Value(r.i, col) }

// Index returns the row position within its RowSet.
func (r Row) Index() int { return r.i }

// Values returns the row's cells in column order.
func (r Row) Values() []any { return r.rs.rows[r.i] }
