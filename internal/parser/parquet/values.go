package parquet

import (
	"errors"
	"fmt"
	"math"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
)

// ErrOutOfRange reports an unsigned value that does not fit in int64.
var ErrOutOfRange = errors.New("value out of int64 range")

// value converts cell i of arr into a plain Go value: int64, float64,
// bool, string, time.Time, []any or map[string]any. Types without a closer
// match fall back to their textual form.
func value(arr arrow.Array, i int) (any, error) {
	if arr.IsNull(i) {
		return nil, nil
	}
	switch a := arr.(type) {
	case *array.Uint64:
		v := a.Value(i)
		if v > math.MaxInt64 {
			return nil, fmt.Errorf("%w: %d", ErrOutOfRange, v)
		}
		return int64(v), nil
	case *array.Timestamp:
		toTime, err := a.DataType().(*arrow.TimestampType).GetToTimeFunc()
		if err != nil {
			return a.ValueStr(i), nil
		}
		return toTime(a.Value(i)).UTC(), nil
	case *array.Dictionary:
		return value(a.Dictionary(), a.GetValueIndex(i))
	case *array.Map:
		return mapValue(a, i)
	case *array.Struct:
		return structValue(a, i)
	case array.ListLike:
		return listValue(a, i)
	}
	return scalar(arr, i), nil
}

func scalar(arr arrow.Array, i int) any {
	switch a := arr.(type) {
	case *array.Boolean:
		return a.Value(i)
	case *array.Int8:
		return int64(a.Value(i))
	case *array.Int16:
		return int64(a.Value(i))
	case *array.Int32:
		return int64(a.Value(i))
	case *array.Int64:
		return a.Value(i)
	case *array.Uint8:
		return int64(a.Value(i))
	case *array.Uint16:
		return int64(a.Value(i))
	case *array.Uint32:
		return int64(a.Value(i))
	case *array.Float32:
		return float64(a.Value(i))
	case *array.Float64:
		return a.Value(i)
	case *array.Date32:
		return a.Value(i).ToTime()
	case *array.Date64:
		return a.Value(i).ToTime()
	case interface{ Value(int) string }:
		return a.Value(i)
	case interface{ Value(int) []byte }:
		return string(a.Value(i))
	}
	return arr.ValueStr(i)
}

func listValue(a array.ListLike, i int) ([]any, error) {
	start, end := a.ValueOffsets(i)
	vals := a.ListValues()
	out := make([]any, 0, end-start)
	for j := start; j < end; j++ {
		v, err := value(vals, int(j))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func structValue(a *array.Struct, i int) (map[string]any, error) {
	st := a.DataType().(*arrow.StructType)
	out := make(map[string]any, st.NumFields())
	for j, f := range st.Fields() {
		v, err := value(a.Field(j), i)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		out[f.Name] = v
	}
	return out, nil
}

// mapValue renders a map cell with string keys. Non-string keys use their
// textual form.
func mapValue(a *array.Map, i int) (map[string]any, error) {
	start, end := a.ValueOffsets(i)
	keys, items := a.Keys(), a.Items()
	out := make(map[string]any, end-start)
	for j := int(start); j < int(end); j++ {
		k, ok := scalar(keys, j).(string)
		if !ok {
			k = keys.ValueStr(j)
		}
		v, err := value(items, j)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}
