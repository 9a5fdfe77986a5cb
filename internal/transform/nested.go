package transform

import (
	"encoding/json"
	"strings"
)

// normalizeRecords turns a nested source cell into a list of records. The
// cell may be JSON text, a sequence, or a single record; anything that does
// not decode yields no records. The second result counts sequence items
// that were not records.
func normalizeRecords(v any) ([]map[string]any, int) {
	switch x := v.(type) {
	case nil:
		return nil, 0
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil, 0
		}
		var decoded any
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			return nil, 1
		}
		if _, isText := decoded.(string); isText {
			return nil, 1
		}
		return normalizeRecords(decoded)
	case json.RawMessage:
		return normalizeRecords(string(x))
	case map[string]any:
		return []map[string]any{x}, 0
	case []map[string]any:
		return x, 0
	case []any:
		out := make([]map[string]any, 0, len(x))
		bad := 0
		for _, item := range x {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
				continue
			}
			bad++
		}
		return out, bad
	}
	return nil, 1
}

// nestedRecord returns a child record of m, decoding JSON text if needed.
func nestedRecord(m map[string]any, key string) map[string]any {
	recs, _ := normalizeRecords(m[key])
	if len(recs) == 0 {
		return map[string]any{}
	}
	return recs[0]
}

// decodeJSON returns the decoded form of JSON text and leaves other values
// untouched.
func decodeJSON(v any) (any, bool) {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case json.RawMessage:
		s = string(x)
	default:
		return v, true
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	var out any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, false
	}
	return out, true
}
