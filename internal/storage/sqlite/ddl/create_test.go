package ddl

import (
	"strconv"
	"strings"
	"testing"

	gddl "nbaetl/internal/ddl"
)

// TestQuoteIdent verifies SQLite-style double-quoted identifier quoting and
// escaping of embedded double quotes.
func TestQuoteIdent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "simple", in: "name", want: `"name"`},
		{name: "empty", in: "", want: `""`},
		{name: "with space", in: "user name", want: `"user name"`},
		{name: "with double quote", in: `weird"name`, want: `"weird""name"`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := QuoteIdent(tt.in); got != tt.want {
				t.Fatalf("QuoteIdent(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestQuoteFQN verifies each segment of a possibly-qualified table name is
// quoted and empty segments are ignored.
func TestQuoteFQN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "simple table", in: "dim_teams", want: `"dim_teams"`},
		{name: "main schema", in: "main.dim_teams", want: `"main"."dim_teams"`},
		{name: "with spaces and empties", in: " .main..dim_teams. ", want: `"main"."dim_teams"`},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := QuoteFQN(tt.in); got != tt.want {
				t.Fatalf("QuoteFQN(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestBuildCreateTableSQLErrors validates input validation in
// BuildCreateTableSQL.
func TestBuildCreateTableSQLErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		def  gddl.TableDef
	}{
		{
			name: "empty FQN",
			def:  gddl.TableDef{FQN: "   ", Columns: []gddl.ColumnDef{{Name: "id", Type: "int"}}},
		},
		{
			name: "no columns",
			def:  gddl.TableDef{FQN: "events"},
		},
		{
			name: "column missing type",
			def:  gddl.TableDef{FQN: "events", Columns: []gddl.ColumnDef{{Name: "id"}}},
		},
		{
			name: "foreign key on unknown column",
			def: gddl.TableDef{
				FQN:     "events",
				Columns: []gddl.ColumnDef{{Name: "id", Type: "int"}},
				ForeignKeys: []gddl.ForeignKey{
					{Columns: []string{"team_id"}, RefTable: "dim_teams", RefColumns: []string{"team_id"}},
				},
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sql, err := BuildCreateTableSQL(tt.def)
			if err == nil {
				t.Fatalf("BuildCreateTableSQL(%+v) error = nil, want non-nil", tt.def)
			}
			if sql != "" {
				t.Fatalf("BuildCreateTableSQL(%+v) SQL = %q, want empty string on error", tt.def, sql)
			}
		})
	}
}

// TestBuildCreateTableSQLBasic verifies the exact rendering of columns, a
// default, the primary key and a deferred foreign key.
func TestBuildCreateTableSQLBasic(t *testing.T) {
	t.Parallel()

	def := gddl.TableDef{
		FQN: "fact_game_leaders",
		Columns: []gddl.ColumnDef{
			{Name: "game_id", Type: "text", PrimaryKey: true},
			{Name: "team_id", Type: "int", PrimaryKey: true},
			{Name: "stat_type", Type: "text", Default: `'points'`},
			{Name: "value", Type: "real", Nullable: true},
		},
		ForeignKeys: []gddl.ForeignKey{
			{Columns: []string{"team_id"}, RefTable: "dim_teams", RefColumns: []string{"team_id"}},
		},
	}

	got, err := BuildCreateTableSQL(def)
	if err != nil {
		t.Fatalf("BuildCreateTableSQL() error = %v", err)
	}

	want := "" +
		`CREATE TABLE IF NOT EXISTS "fact_game_leaders" (` + "\n" +
		`  "game_id" TEXT NOT NULL,` + "\n" +
		`  "team_id" INTEGER NOT NULL,` + "\n" +
		`  "stat_type" TEXT NOT NULL DEFAULT 'points',` + "\n" +
		`  "value" REAL,` + "\n" +
		`  PRIMARY KEY ("game_id", "team_id"),` + "\n" +
		`  FOREIGN KEY ("team_id") REFERENCES "dim_teams" ("team_id") DEFERRABLE INITIALLY DEFERRED` + "\n" +
		`);`

	if got != want {
		t.Fatalf("BuildCreateTableSQL() =\n%s\nwant:\n%s", got, want)
	}
}

func TestBuildCreateIndexSQL(t *testing.T) {
	t.Parallel()

	got, err := BuildCreateIndexSQL("fact_games", gddl.IndexDef{
		Name:    "idx_games_home_team",
		Columns: []string{"home_team_id", "game_date_id"},
	})
	if err != nil {
		t.Fatalf("BuildCreateIndexSQL() error = %v", err)
	}
	want := `CREATE INDEX IF NOT EXISTS "idx_games_home_team" ON "fact_games" ("home_team_id", "game_date_id");`
	if got != want {
		t.Fatalf("BuildCreateIndexSQL() = %s, want %s", got, want)
	}

	if _, err := BuildCreateIndexSQL("", gddl.IndexDef{Name: "x", Columns: []string{"a"}}); err == nil {
		t.Fatalf("empty table: error = nil")
	}
	if _, err := BuildCreateIndexSQL("t", gddl.IndexDef{Name: "x"}); err == nil {
		t.Fatalf("no columns: error = nil")
	}
}

func TestBuildDropTableSQL(t *testing.T) {
	t.Parallel()

	got, err := BuildDropTableSQL("dim_teams")
	if err != nil {
		t.Fatalf("BuildDropTableSQL() error = %v", err)
	}
	if got != `DROP TABLE IF EXISTS "dim_teams";` {
		t.Fatalf("BuildDropTableSQL() = %s", got)
	}
	if _, err := BuildDropTableSQL(" "); err == nil {
		t.Fatalf("empty name: error = nil")
	}
}

func TestDialectDelegates(t *testing.T) {
	t.Parallel()

	var d Dialect
	sql, err := d.CreateTable(gddl.TableDef{FQN: "t", Columns: []gddl.ColumnDef{{Name: "id", Type: "int"}}})
	if err != nil || !strings.HasPrefix(sql, `CREATE TABLE IF NOT EXISTS "t"`) {
		t.Fatalf("CreateTable() = %q, %v", sql, err)
	}
}

// BenchmarkBuildCreateTableSQLWide measures performance for a wide table.
func BenchmarkBuildCreateTableSQLWide(b *testing.B) {
	const numCols = 64

	cols := make([]gddl.ColumnDef, 0, numCols)
	for i := 0; i < numCols; i++ {
		cols = append(cols, gddl.ColumnDef{
			Name:     "col_" + strconv.Itoa(i),
			Type:     "text",
			Nullable: i%2 == 0,
		})
	}
	cols[0].PrimaryKey = true

	def := gddl.TableDef{FQN: "wide_table", Columns: cols}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := BuildCreateTableSQL(def); err != nil {
			b.Fatalf("BuildCreateTableSQL() error = %v", err)
		}
	}
}
