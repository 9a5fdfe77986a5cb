package schema

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"nbaetl/internal/ddl"
	"nbaetl/internal/storage"
)

// Manager creates and drops the star schema through the DDL dialect
// registered for a storage kind.
type Manager struct {
	dialect storage.Dialect
	tables  []ddl.TableDef
	log     *zap.Logger
}

// NewManager resolves the dialect for kind and checks that the declared
// tables are valid and ordered so every foreign key references an earlier
// table.
func NewManager(kind string, log *zap.Logger) (*Manager, error) {
	d, err := storage.DialectFor(kind)
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	tables := Star()
	if err := ddl.CheckOrder(tables); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{dialect: d, tables: tables, log: log}, nil
}

// Tables returns the managed tables in dependency order.
func (m *Manager) Tables() []ddl.TableDef { return m.tables }

// Ensure creates every missing table and index. Running it against a store
// that already has the schema is a no-op.
func (m *Manager) Ensure(ctx context.Context, w storage.Execer) error {
	for _, t := range m.tables {
		stmt, err := m.dialect.CreateTable(t)
		if err != nil {
			return fmt.Errorf("schema: render %s: %w", t.FQN, err)
		}
		if _, err := w.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema: create %s: %w", t.FQN, err)
		}
		for _, ix := range t.Indexes {
			stmt, err := m.dialect.CreateIndex(t.FQN, ix)
			if err != nil {
				return fmt.Errorf("schema: render index %s: %w", ix.Name, err)
			}
			if _, err := w.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("schema: create index %s: %w", ix.Name, err)
			}
		}
	}
	m.log.Debug("schema ensured", zap.Int("tables", len(m.tables)))
	return nil
}

// Drop removes every table, referencing tables first.
func (m *Manager) Drop(ctx context.Context, w storage.Execer) error {
	for i := len(m.tables) - 1; i >= 0; i-- {
		name := m.tables[i].FQN
		stmt, err := m.dialect.DropTable(name)
		if err != nil {
			return fmt.Errorf("schema: render drop %s: %w", name, err)
		}
		if _, err := w.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema: drop %s: %w", name, err)
		}
	}
	m.log.Debug("schema dropped", zap.Int("tables", len(m.tables)))
	return nil
}

// PrimaryKey returns the primary-key columns of a managed table.
func (m *Manager) PrimaryKey(table string) ([]string, error) {
	for _, t := range m.tables {
		if t.FQN == table {
			return t.PrimaryKey(), nil
		}
	}
	return nil, fmt.Errorf("schema: unknown table %q", table)
}
