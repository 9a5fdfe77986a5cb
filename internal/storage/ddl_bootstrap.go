package storage

import (
	"fmt"
	"sync"

	"nbaetl/internal/ddl"
)

// Dialect renders DDL statements for one backend from the generic ddl model.
//
// Backends (currently sqlite) register their implementation for a storage
// kind at init time; the schema manager looks it up by kind so it never
// imports a backend directly.
type Dialect interface {
	// CreateTable renders an idempotent CREATE TABLE statement.
	CreateTable(t ddl.TableDef) (string, error)

	// CreateIndex renders an idempotent CREATE INDEX statement.
	CreateIndex(table string, ix ddl.IndexDef) (string, error)

	// DropTable renders DROP TABLE IF EXISTS.
	DropTable(table string) (string, error)
}

var (
	ddlMu       sync.RWMutex
	ddlDialects = map[string]Dialect{}
)

// RegisterDDL registers (or replaces) the Dialect for the given storage kind.
func RegisterDDL(kind string, d Dialect) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlDialects[kind] = d
}

// DialectFor returns the Dialect registered for kind.
func DialectFor(kind string) (Dialect, error) {
	ddlMu.RLock()
	d, ok := ddlDialects[kind]
	ddlMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: no DDL dialect registered for kind %q", kind)
	}
	return d, nil
}
