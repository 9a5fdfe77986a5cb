package ddl

// ColumnDef describes a single column in a table definition. It uses simple,
// database-agnostic fields.
//
// Fields:
//   - Name: logical column name (unquoted; quoting/escaping happens at render time)
//   - Type: logical type (int, text, bool, date, timestamp, real); renderers map
//     it to a dialect type
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the primary key
//   - Default: raw default expression (e.g., '', CURRENT_TIMESTAMP)
type ColumnDef struct {
	Name       string
	Type       string
	Nullable   bool
	PrimaryKey bool
	Default    string
}

// ForeignKey references another table. RefColumns pairs positionally with
// Columns.
type ForeignKey struct {
	Columns    []string
	RefTable   string
	RefColumns []string
}

// IndexDef is a secondary, non-unique index over Columns of its table.
type IndexDef struct {
	Name    string
	Columns []string
}

// TableDef holds the table name (FQN), an ordered list of columns, and the
// table's foreign keys and secondary indexes. The FQN may be in dotted form
// ("main.table") and is quoted by renderers as needed.
type TableDef struct {
	FQN         string
	Columns     []ColumnDef
	ForeignKeys []ForeignKey
	Indexes     []IndexDef
}

// ColumnNames returns the column names in declaration order.
func (t TableDef) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// PrimaryKey returns the primary key columns in declaration order.
func (t TableDef) PrimaryKey() []string {
	var out []string
	for _, c := range t.Columns {
		if c.PrimaryKey {
			out = append(out, c.Name)
		}
	}
	return out
}

// Column returns the column named name.
func (t TableDef) Column(name string) (ColumnDef, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnDef{}, false
}
