// Package keys derives and reconciles primary keys over row-sets.
//
// Key components are compared with Go's == on the dynamic values, so int64(7)
// and "7" are different keys and a composite key is distinct only as a whole
// tuple. Builders normalize key types before keys are taken.
package keys

import (
	"fmt"

	"nbaetl/internal/rowset"
)

// MaxParts bounds the width of a composite key.
const MaxParts = 4

// Key is one key tuple, in key-column order.
type Key []any

// tuple is the comparable map form of a Key.
type tuple [MaxParts]any

func indexes(rs *rowset.RowSet, cols []string) ([]int, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("keys: no key columns for %s", rs.Name())
	}
	if len(cols) > MaxParts {
		return nil, fmt.Errorf("keys: %s: key of %d columns exceeds %d", rs.Name(), len(cols), MaxParts)
	}
	if err := rs.Require(cols...); err != nil {
		return nil, err
	}
	out := make([]int, len(cols))
	for i, c := range cols {
		out[i], _ = rs.Index(c)
	}
	return out, nil
}

func tupleOf(row []any, idx []int) (tuple, error) {
	var t tuple
	for i, j := range idx {
		v := row[j]
		if !comparable(v) {
			return t, fmt.Errorf("keys: key component %d has non-comparable type %T", i, v)
		}
		t[i] = v
	}
	return t, nil
}

func comparable(v any) bool {
	switch v.(type) {
	case nil, bool, string, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

// Distinct returns the distinct key tuples of rs over cols in first-seen order.
func Distinct(rs *rowset.RowSet, cols ...string) ([]Key, error) {
	idx, err := indexes(rs, cols)
	if err != nil {
		return nil, err
	}
	seen := make(map[tuple]struct{}, rs.Len())
	var out []Key
	for _, row := range rs.Rows() {
		t, err := tupleOf(row, idx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", rs.Name(), err)
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		k := make(Key, len(idx))
		copy(k, t[:len(idx)])
		out = append(out, k)
	}
	return out, nil
}

// Dedup keeps the first row per key and returns the reduced row-set together
// with the number of rows dropped.
func Dedup(rs *rowset.RowSet, cols ...string) (*rowset.RowSet, int, error) {
	idx, err := indexes(rs, cols)
	if err != nil {
		return nil, 0, err
	}
	seen := make(map[tuple]struct{}, rs.Len())
	keep := make([]int, 0, rs.Len())
	for i, row := range rs.Rows() {
		t, err := tupleOf(row, idx)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", rs.Name(), err)
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		keep = append(keep, i)
	}
	if len(keep) == rs.Len() {
		return rs, 0, nil
	}
	return rs.Select(keep), rs.Len() - len(keep), nil
}

// SortStable orders rs by col ascending in place. Ties and values of
// mismatched types keep their input order; nil sorts first.
func SortStable(rs *rowset.RowSet, col string) error {
	if err := rs.Require(col); err != nil {
		return err
	}
	rs.SortStable(func(a, b rowset.Row) bool { return less(a.Get(col), b.Get(col)) })
	return nil
}

func less(a, b any) bool {
	switch x := a.(type) {
	case int64:
		if y, ok := b.(int64); ok {
			return x < y
		}
	case float64:
		if y, ok := b.(float64); ok {
			return x < y
		}
	case string:
		if y, ok := b.(string); ok {
			return x < y
		}
	}
	return a == nil && b != nil
}

// Args flattens keys into a positional argument list, as used by a
// multi-row key predicate.
func Args(ks []Key) []any {
	if len(ks) == 0 {
		return nil
	}
	out := make([]any, 0, len(ks)*len(ks[0]))
	for _, k := range ks {
		out = append(out, k...)
	}
	return out
}

// Union merges key lists, keeping first-seen order and dropping repeats.
func Union(lists ...[]Key) []Key {
	seen := map[tuple]struct{}{}
	var out []Key
	for _, l := range lists {
		for _, k := range l {
			var t tuple
			copy(t[:], k)
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, k)
		}
	}
	return out
}
