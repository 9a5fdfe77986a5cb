// Package ddl provides SQLite-specific helpers for generating DDL statements
// from the generic ddl.TableDef model.
//
// The builder here:
//   - Uses simple double-quoted identifiers: "table", "col".
//   - Emits CREATE TABLE IF NOT EXISTS and CREATE INDEX IF NOT EXISTS.
//   - Treats ColumnDef.Default as raw SQL.
//   - Renders PRIMARY KEY and FOREIGN KEY as separate table constraints.
//   - Declares every foreign key DEFERRABLE INITIALLY DEFERRED, so a
//     referenced row may be deleted and re-inserted inside one transaction.
package ddl

import (
	"fmt"
	"strings"

	gddl "nbaetl/internal/ddl"
)

// BuildCreateTableSQL returns a SQLite CREATE TABLE statement for the given
// table definition. The statement has the form:
//
//	CREATE TABLE IF NOT EXISTS "table" (
//	  "col1" TYPE [NOT NULL] [DEFAULT expr],
//	  "col2" TYPE,
//	  PRIMARY KEY ("pk1", "pk2"),
//	  FOREIGN KEY ("col2") REFERENCES "other" ("id") DEFERRABLE INITIALLY DEFERRED
//	);
//
// TableDef.FQN is interpreted as a table name; if it contains dots (e.g.,
// "main.events"), each segment is individually quoted.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	if err := gddl.Validate(t); err != nil {
		return "", fmt.Errorf("sqlite ddl: %w", err)
	}
	fqn := strings.TrimSpace(t.FQN)

	cols := make([]string, 0, len(t.Columns)+1+len(t.ForeignKeys))
	pks := make([]string, 0, len(t.Columns))

	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)

		var sb strings.Builder
		sb.WriteString(QuoteIdent(name))
		sb.WriteByte(' ')
		sb.WriteString(MapType(c.Type))

		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}

		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}

		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, QuoteIdent(name))
		}
	}

	if len(pks) > 0 {
		cols = append(cols,
			fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")),
		)
	}

	for _, fk := range t.ForeignKeys {
		cols = append(cols, fmt.Sprintf(
			"FOREIGN KEY (%s) REFERENCES %s (%s) DEFERRABLE INITIALLY DEFERRED",
			quoteList(fk.Columns),
			QuoteFQN(fk.RefTable),
			quoteList(fk.RefColumns),
		))
	}

	stmt := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n  %s\n);",
		QuoteFQN(fqn),
		strings.Join(cols, ",\n  "),
	)
	return stmt, nil
}

// BuildCreateIndexSQL renders CREATE INDEX IF NOT EXISTS for an index on table.
func BuildCreateIndexSQL(table string, ix gddl.IndexDef) (string, error) {
	table = strings.TrimSpace(table)
	if table == "" {
		return "", fmt.Errorf("sqlite ddl: index table must not be empty")
	}
	if strings.TrimSpace(ix.Name) == "" || len(ix.Columns) == 0 {
		return "", fmt.Errorf("sqlite ddl: index on %s needs a name and columns", table)
	}
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s);",
		QuoteIdent(ix.Name), QuoteFQN(table), quoteList(ix.Columns)), nil
}

// BuildDropTableSQL renders DROP TABLE IF EXISTS for table.
func BuildDropTableSQL(table string) (string, error) {
	table = strings.TrimSpace(table)
	if table == "" {
		return "", fmt.Errorf("sqlite ddl: drop table name must not be empty")
	}
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", QuoteFQN(table)), nil
}

// Dialect adapts the builders to storage.Dialect.
type Dialect struct{}

func (Dialect) CreateTable(t gddl.TableDef) (string, error) { return BuildCreateTableSQL(t) }

func (Dialect) CreateIndex(table string, ix gddl.IndexDef) (string, error) {
	return BuildCreateIndexSQL(table, ix)
}

func (Dialect) DropTable(table string) (string, error) { return BuildDropTableSQL(table) }

// QuoteIdent double-quotes a single identifier, escaping embedded quotes.
func QuoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// QuoteFQN quotes each dot-separated segment of a table name and drops empty
// segments.
func QuoteFQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, QuoteIdent(p))
	}
	return strings.Join(out, ".")
}

func quoteList(ids []string) string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = QuoteIdent(strings.TrimSpace(id))
	}
	return strings.Join(out, ", ")
}
