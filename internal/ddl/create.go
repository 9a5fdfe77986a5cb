// Package ddl defines a small, backend-agnostic model for SQL DDL: tables with
// columns, a primary key, foreign keys and secondary indexes.
//
// The package stays generic: it does not render SQL. Backend packages (see
// internal/storage/sqlite/ddl) map logical types to their dialect and emit
// statements from the same TableDef values. What lives here are the checks
// every renderer relies on: Validate for a single table and CheckOrder for a
// whole schema declared in dependency order.
package ddl

import (
	"fmt"
	"strings"
)

// Validate checks a single table definition.
//
// Rules:
//
//   - t.FQN must be non-empty.
//
//   - There must be at least one column; each column needs a non-empty Name
//     and Type, and names must be unique.
//
//   - Every foreign key must name a referenced table, have the same number of
//     local and referenced columns, and only use columns of t.
//
//   - Every index must have a name and only use columns of t.
func Validate(t TableDef) error {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("ddl: at least one column is required")
	}

	seen := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return fmt.Errorf("ddl: column with empty name in table %s", fqn)
		}
		if strings.TrimSpace(c.Type) == "" {
			return fmt.Errorf("ddl: column %s missing Type", name)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("ddl: duplicate column %s in table %s", name, fqn)
		}
		seen[name] = struct{}{}
	}

	for i, fk := range t.ForeignKeys {
		if strings.TrimSpace(fk.RefTable) == "" {
			return fmt.Errorf("ddl: %s: foreign key %d has no referenced table", fqn, i)
		}
		if len(fk.Columns) == 0 || len(fk.Columns) != len(fk.RefColumns) {
			return fmt.Errorf("ddl: %s: foreign key %d maps %d columns onto %d",
				fqn, i, len(fk.Columns), len(fk.RefColumns))
		}
		for _, c := range fk.Columns {
			if _, ok := seen[c]; !ok {
				return fmt.Errorf("ddl: %s: foreign key %d uses unknown column %s", fqn, i, c)
			}
		}
	}

	for _, ix := range t.Indexes {
		if strings.TrimSpace(ix.Name) == "" {
			return fmt.Errorf("ddl: %s: index with empty name", fqn)
		}
		if len(ix.Columns) == 0 {
			return fmt.Errorf("ddl: %s: index %s has no columns", fqn, ix.Name)
		}
		for _, c := range ix.Columns {
			if _, ok := seen[c]; !ok {
				return fmt.Errorf("ddl: %s: index %s uses unknown column %s", fqn, ix.Name, c)
			}
		}
	}
	return nil
}

// CheckOrder validates every table and verifies the slice is in dependency
// order: each foreign key references a table declared earlier (or the table
// itself) and the referenced columns exist there. Creating tables in this
// order and dropping them in reverse never trips a foreign key.
func CheckOrder(tables []TableDef) error {
	declared := make(map[string]TableDef, len(tables))
	for _, t := range tables {
		if err := Validate(t); err != nil {
			return err
		}
		if _, dup := declared[t.FQN]; dup {
			return fmt.Errorf("ddl: table %s declared twice", t.FQN)
		}
		declared[t.FQN] = t
		for _, fk := range t.ForeignKeys {
			ref, ok := declared[fk.RefTable]
			if !ok {
				return fmt.Errorf("ddl: %s references %s before it is declared", t.FQN, fk.RefTable)
			}
			for _, c := range fk.RefColumns {
				if _, ok := ref.Column(c); !ok {
					return fmt.Errorf("ddl: %s references unknown column %s.%s", t.FQN, fk.RefTable, c)
				}
			}
		}
	}
	return nil
}
