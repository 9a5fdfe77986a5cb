package transform

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"nbaetl/internal/model"
)

// timeLayouts are tried in order when a date or timestamp arrives as text.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.999999999",
	model.DateLayout,
}

func toInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case int16:
		return int64(x), true
	case int8:
		return int64(x), true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		if x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) || x != math.Trunc(x) {
			return 0, false
		}
		return int64(x), true
	case float32:
		return toInt(float64(x))
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, true
		}
		if f, err := x.Float64(); err == nil {
			return toInt(f)
		}
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return toInt(f)
		}
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) {
			return 0, false
		}
		return x, true
	case float32:
		return toFloat(float64(x))
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	}
	if i, ok := toInt(v); ok {
		return float64(i), true
	}
	return 0, false
}

func toBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		return b, err == nil
	}
	if i, ok := toInt(v); ok {
		return i != 0, true
	}
	return false, false
}

// toString renders scalars as text and nested values as JSON.
func toString(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case json.RawMessage:
		return string(x), true
	case json.Number:
		return x.String(), true
	case bool:
		return strconv.FormatBool(x), true
	case time.Time:
		return x.Format(model.TimestampLayout), true
	case float64:
		if math.IsNaN(x) {
			return "", false
		}
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case float32:
		return toString(float64(x))
	case []any, map[string]any, []map[string]any:
		b, err := json.Marshal(x)
		if err != nil {
			return "", false
		}
		return string(b), true
	}
	if i, ok := toInt(v); ok {
		return strconv.FormatInt(i, 10), true
	}
	return "", false
}

func toTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, !x.IsZero()
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// truthy mirrors how source ids are tested for presence: nil, zero, false
// and the empty string all count as absent.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(x) != ""
	case bool:
		return x
	}
	if f, ok := toFloat(v); ok {
		return f != 0
	}
	return true
}

// fields reads typed values through get and remembers the first column
// that was required but absent or unconvertible.
type fields struct {
	get func(string) any
	bad string
}

func rowFields(get func(string) any) *fields { return &fields{get: get} }

func mapFields(m map[string]any) *fields {
	return &fields{get: func(k string) any { return m[k] }}
}

func (f *fields) fail(col string) {
	if f.bad == "" {
		f.bad = col
	}
}

// ok reports whether every required read so far succeeded.
func (f *fields) ok() bool { return f.bad == "" }

func (f *fields) int(col string) int64 {
	v, ok := toInt(f.get(col))
	if !ok {
		f.fail(col)
	}
	return v
}

func (f *fields) optInt(col string) *int64 {
	if v, ok := toInt(f.get(col)); ok {
		return &v
	}
	return nil
}

// optID reads a nullable reference. Sources write 0 for "no reference".
func (f *fields) optID(col string) *int64 {
	v, ok := toInt(f.get(col))
	if !ok || v == 0 {
		return nil
	}
	return &v
}

func (f *fields) optFloat(col string) *float64 {
	if v, ok := toFloat(f.get(col)); ok {
		return &v
	}
	return nil
}

func (f *fields) bool(col string) bool {
	v, ok := toBool(f.get(col))
	if !ok {
		f.fail(col)
	}
	return v
}

func (f *fields) optBool(col string) *bool {
	if v, ok := toBool(f.get(col)); ok {
		return &v
	}
	return nil
}

// flag treats an absent value as false.
func (f *fields) flag(col string) bool {
	v, _ := toBool(f.get(col))
	return v
}

func (f *fields) str(col string) string {
	v, ok := toString(f.get(col))
	if !ok {
		f.fail(col)
	}
	return v
}

func (f *fields) optStr(col string) *string {
	if v, ok := toString(f.get(col)); ok {
		return &v
	}
	return nil
}

// strOr returns def when the value is absent.
func (f *fields) strOr(col, def string) string {
	if v, ok := toString(f.get(col)); ok {
		return v
	}
	return def
}

func (f *fields) time(col string) time.Time {
	t, ok := toTime(f.get(col))
	if !ok {
		f.fail(col)
	}
	return t
}

func (f *fields) timestamp(col string) string {
	t, ok := toTime(f.get(col))
	if !ok {
		f.fail(col)
		return ""
	}
	return t.Format(model.TimestampLayout)
}

func (f *fields) optDate(col string) *string {
	t, ok := toTime(f.get(col))
	if !ok {
		return nil
	}
	s := t.Format(model.DateLayout)
	return &s
}

// dateID renders a day as its YYYYMMDD surrogate.
func dateID(t time.Time) int64 {
	return int64(t.Year())*10000 + int64(t.Month())*100 + int64(t.Day())
}

// parseMinutes accepts a number of minutes, an ISO-8601 duration such as
// "PT25M01.00S", or "MM:SS", and returns whole minutes.
func parseMinutes(v any) *int64 {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		switch {
		case s == "":
			return nil
		case strings.HasPrefix(s, "PT"):
			rest := strings.TrimPrefix(s, "PT")
			var mins int64
			if i := strings.IndexByte(rest, 'H'); i >= 0 {
				h, err := strconv.ParseInt(rest[:i], 10, 64)
				if err != nil {
					return nil
				}
				mins += h * 60
				rest = rest[i+1:]
			}
			if i := strings.IndexByte(rest, 'M'); i >= 0 {
				m, err := strconv.ParseInt(rest[:i], 10, 64)
				if err != nil {
					return nil
				}
				mins += m
				rest = rest[i+1:]
			}
			if rest != "" && !strings.HasSuffix(rest, "S") {
				return nil
			}
			return &mins
		case strings.Contains(s, ":"):
			m, err := strconv.ParseInt(s[:strings.IndexByte(s, ':')], 10, 64)
			if err != nil {
				return nil
			}
			return &m
		}
	}
	if f, ok := toFloat(v); ok {
		m := int64(f)
		return &m
	}
	return nil
}

// parseStarter reads the starter flag. The second result is false when the
// value is not one of the recognised sentinels.
func parseStarter(v any) (starter, known bool) {
	switch x := v.(type) {
	case nil:
		return false, true
	case bool:
		return x, true
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "1", "true":
			return true, true
		case "0", "", "false":
			return false, true
		}
		return false, false
	}
	if i, ok := toInt(v); ok {
		switch i {
		case 1:
			return true, true
		case 0:
			return false, true
		}
	}
	return false, false
}
