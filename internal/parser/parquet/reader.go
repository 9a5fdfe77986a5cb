// Package parquet reads Parquet files into row-sets.
//
// Top-level struct columns are flattened into one column per leaf field,
// named with "." between levels (homeTeam.teamId). Lists and structs nested
// inside lists stay nested and arrive as []any and map[string]any values,
// which is the shape the entity builders normalize.
package parquet

import (
	"context"
	"fmt"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	pqfile "github.com/apache/arrow/go/v17/parquet/file"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"

	"nbaetl/internal/datasource"
	"nbaetl/internal/rowset"
)

// Options tune the reader.
type Options struct {
	// BatchSize is the number of rows decoded per record batch. Zero uses
	// the library default.
	BatchSize int64

	// Allocator backs arrow buffers; nil uses the Go allocator.
	Allocator memory.Allocator
}

// Read decodes every row of src into a row-set named name.
func Read(ctx context.Context, src datasource.Source, name string, opts Options) (*rowset.RowSet, error) {
	f, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	mem := opts.Allocator
	if mem == nil {
		mem = memory.NewGoAllocator()
	}

	pr, err := pqfile.NewParquetReader(f)
	if err != nil {
		return nil, fmt.Errorf("parquet: open %s: %w", src.Name(), err)
	}
	defer pr.Close()

	props := pqarrow.ArrowReadProperties{Parallel: false, BatchSize: opts.BatchSize}
	fr, err := pqarrow.NewFileReader(pr, props, mem)
	if err != nil {
		return nil, fmt.Errorf("parquet: reader %s: %w", src.Name(), err)
	}
	tbl, err := fr.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("parquet: read %s: %w", src.Name(), err)
	}
	defer tbl.Release()

	cols := flatten(tbl.Schema().Fields())
	out := rowset.New(name, columnNames(cols)...)

	tr := array.NewTableReader(tbl, opts.BatchSize)
	defer tr.Release()
	for tr.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := appendRecord(out, tr.Record(), cols); err != nil {
			return nil, fmt.Errorf("parquet: %s: %w", src.Name(), err)
		}
	}
	if err := tr.Err(); err != nil {
		return nil, fmt.Errorf("parquet: read %s: %w", src.Name(), err)
	}
	return out, nil
}

// leaf is one output column: a path of field positions from a top-level
// column down through nested structs.
type leaf struct {
	name string
	path []int
}

func flatten(fields []arrow.Field) []leaf {
	var out []leaf
	for i, f := range fields {
		out = flattenField(out, f, f.Name, []int{i})
	}
	return out
}

func flattenField(out []leaf, f arrow.Field, name string, path []int) []leaf {
	st, ok := f.Type.(*arrow.StructType)
	if !ok || st.NumFields() == 0 {
		return append(out, leaf{name: name, path: path})
	}
	for j, child := range st.Fields() {
		p := append(append([]int(nil), path...), j)
		out = flattenField(out, child, name+"."+child.Name, p)
	}
	return out
}

func columnNames(cols []leaf) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.name
	}
	return out
}

func appendRecord(out *rowset.RowSet, rec arrow.Record, cols []leaf) error {
	n := int(rec.NumRows())
	row := make([]any, len(cols))
	for i := 0; i < n; i++ {
		for j, c := range cols {
			v, err := leafValue(rec.Column(c.path[0]), c.path[1:], i)
			if err != nil {
				return fmt.Errorf("row %d column %s: %w", i, c.name, err)
			}
			row[j] = v
		}
		if err := out.Append(row...); err != nil {
			return err
		}
	}
	return nil
}

// leafValue walks path through struct arrays. A null struct at any level
// makes every leaf beneath it nil.
func leafValue(arr arrow.Array, path []int, i int) (any, error) {
	for _, p := range path {
		if arr.IsNull(i) {
			return nil, nil
		}
		arr = arr.(*array.Struct).Field(p)
	}
	return value(arr, i)
}
