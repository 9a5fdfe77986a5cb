// Package all wires the built-in storage backends into the storage factory.
//
// Importing it (as a blank import) runs the init functions of each backend,
// which register their factories and DDL dialects with the storage package.
// It currently makes "sqlite" (nbaetl/internal/storage/sqlite) available.
//
// Typical usage, in cmd/nbaetl:
//
//	import _ "nbaetl/internal/storage/all"
//
// The rest of the application depends only on the storage abstraction, so a
// binary supporting a different set of backends defines its own wiring
// package instead of this one.
package all

import (
	_ "nbaetl/internal/storage/sqlite"
)
