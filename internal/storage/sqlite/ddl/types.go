package ddl

import "strings"

// MapType maps a logical type string (e.g., "int", "bool", "date") into a
// SQLite column type.
//
// SQLite is dynamically typed; the declared name only selects an affinity.
// The star schema keeps the declared names readers expect:
//   - integer-ish types -> INTEGER
//   - boolean          -> BOOLEAN (NUMERIC affinity, stored as 0/1)
//   - date             -> DATE ("2006-01-02" text)
//   - timestamp        -> TIMESTAMP ("2006-01-02 15:04:05" text)
//   - float-ish types  -> REAL
//   - others           -> TEXT
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int", "integer", "bigint":
		return "INTEGER"
	case "bool", "boolean":
		return "BOOLEAN"
	case "float", "double", "real":
		return "REAL"
	case "numeric", "decimal":
		return "NUMERIC"
	case "date":
		return "DATE"
	case "timestamp", "datetime", "timestamptz":
		return "TIMESTAMP"
	case "blob", "bytes":
		return "BLOB"
	default:
		return "TEXT"
	}
}
