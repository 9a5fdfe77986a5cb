// Package verify inspects a loaded store: content digests for comparing two
// runs, and data-quality checks over the star schema.
package verify

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/zeebo/xxh3"

	"nbaetl/internal/model"
	"nbaetl/internal/schema"
	"nbaetl/internal/storage"
)

// Digest summarizes the content of one table. Sum is the wrapping sum of
// per-row hashes, so it does not depend on row order.
type Digest struct {
	Rows int64
	Sum  uint64
}

// Snapshot holds a Digest per table.
type Snapshot map[string]Digest

// Take digests the named star-schema tables, or all of them when tables is
// empty.
func Take(ctx context.Context, repo storage.Repository, tables ...string) (Snapshot, error) {
	if len(tables) == 0 {
		tables = model.LoadOrder
	}
	snap := make(Snapshot, len(tables))
	var buf []byte
	for _, t := range tables {
		if _, ok := schema.Table(t); !ok {
			return nil, fmt.Errorf("verify: unknown table %q", t)
		}
		var d Digest
		err := repo.Query(ctx, func(vals []any) error {
			buf = encodeRow(buf[:0], vals)
			d.Rows++
			d.Sum += xxh3.Hash(buf)
			return nil
		}, "SELECT * FROM "+t)
		if err != nil {
			return nil, fmt.Errorf("verify: digest %s: %w", t, err)
		}
		snap[t] = d
	}
	return snap, nil
}

// Tables returns the digested table names, sorted.
func (s Snapshot) Tables() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Difference is a table whose digest changed between two snapshots.
type Difference struct {
	Table  string
	Before Digest
	After  Digest
}

func (d Difference) String() string {
	if d.Before.Rows != d.After.Rows {
		return fmt.Sprintf("%s: %d rows before, %d after", d.Table, d.Before.Rows, d.After.Rows)
	}
	return fmt.Sprintf("%s: %d rows, content differs", d.Table, d.After.Rows)
}

// Diff lists tables whose digests differ, including tables present in only
// one snapshot, sorted by table name.
func Diff(before, after Snapshot) []Difference {
	names := map[string]struct{}{}
	for t := range before {
		names[t] = struct{}{}
	}
	for t := range after {
		names[t] = struct{}{}
	}

	var out []Difference
	for t := range names {
		b, a := before[t], after[t]
		if b != a {
			out = append(out, Difference{Table: t, Before: b, After: a})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Table < out[j].Table })
	return out
}

// encodeRow appends a type-tagged encoding of vals to dst, so that equal
// rows hash equal and 1 and "1" do not.
func encodeRow(dst []byte, vals []any) []byte {
	for _, v := range vals {
		switch x := v.(type) {
		case nil:
			dst = append(dst, 'n')
		case int64:
			dst = append(dst, 'i')
			dst = binary.LittleEndian.AppendUint64(dst, uint64(x))
		case float64:
			dst = append(dst, 'f')
			dst = binary.LittleEndian.AppendUint64(dst, math.Float64bits(x))
		case bool:
			dst = append(dst, 'i')
			var n uint64
			if x {
				n = 1
			}
			dst = binary.LittleEndian.AppendUint64(dst, n)
		case string:
			dst = append(dst, 's')
			dst = binary.AppendUvarint(dst, uint64(len(x)))
			dst = append(dst, x...)
		case []byte:
			dst = append(dst, 'b')
			dst = binary.AppendUvarint(dst, uint64(len(x)))
			dst = append(dst, x...)
		case time.Time:
			dst = append(dst, 't')
			dst = binary.LittleEndian.AppendUint64(dst, uint64(x.UnixNano()))
		default:
			s := fmt.Sprint(x)
			dst = append(dst, 'x')
			dst = binary.AppendUvarint(dst, uint64(len(s)))
			dst = append(dst, s...)
		}
	}
	return dst
}
