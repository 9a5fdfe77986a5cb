package storage

import (
	"context"
	"strings"
	"testing"

	"nbaetl/internal/ddl"
)

// fakeRepo is a minimal Repository implementation for tests.
type fakeRepo struct {
	cfg    Config
	closed bool
}

func (f *fakeRepo) Exec(context.Context, string, ...any) (int64, error)  { return 0, nil }
func (f *fakeRepo) WithTx(ctx context.Context, fn func(Tx) error) error  { return nil }
func (f *fakeRepo) Query(context.Context, RowFunc, string, ...any) error { return nil }
func (f *fakeRepo) Count(context.Context, string) (int64, error)         { return 0, nil }
func (f *fakeRepo) Close()                                               { f.closed = true }

// TestRegisterAndNew_Success verifies that registering a backend enables New()
// to return the corresponding repository with the caller's config.
func TestRegisterAndNew_Success(t *testing.T) {
	t.Parallel()

	kind := "fake-success"
	Register(kind, func(ctx context.Context, cfg Config) (Repository, error) {
		return &fakeRepo{cfg: cfg}, nil
	})

	repo, err := New(context.Background(), Config{Kind: kind, DSN: "x", MaxParams: 999, BatchSize: 30})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	fr, ok := repo.(*fakeRepo)
	if !ok {
		t.Fatalf("New returned %T, want *fakeRepo", repo)
	}
	if fr.cfg.DSN != "x" || fr.cfg.MaxParams != 999 || fr.cfg.BatchSize != 30 {
		t.Fatalf("factory got cfg %+v", fr.cfg)
	}
	repo.Close()
	if !fr.closed {
		t.Fatalf("Close not delegated")
	}
}

// TestNew_UnknownKind verifies New returns an error naming the kind.
func TestNew_UnknownKind(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Config{Kind: "does-not-exist"})
	if err == nil {
		t.Fatalf("New() error = nil, want error")
	}
	if !strings.Contains(err.Error(), "does-not-exist") {
		t.Fatalf("error %q does not name the kind", err)
	}
}

type fakeDialect struct{}

func (fakeDialect) CreateTable(t ddl.TableDef) (string, error) { return "CREATE " + t.FQN, nil }
func (fakeDialect) CreateIndex(table string, ix ddl.IndexDef) (string, error) {
	return "INDEX " + ix.Name, nil
}
func (fakeDialect) DropTable(table string) (string, error) { return "DROP " + table, nil }

func TestDialectRegistry(t *testing.T) {
	t.Parallel()

	RegisterDDL("fake-ddl", fakeDialect{})
	d, err := DialectFor("fake-ddl")
	if err != nil {
		t.Fatalf("DialectFor error: %v", err)
	}
	if got, _ := d.DropTable("x"); got != "DROP x" {
		t.Fatalf("DropTable = %q", got)
	}
	if _, err := DialectFor("missing"); err == nil {
		t.Fatalf("DialectFor(missing) error = nil")
	}
}
