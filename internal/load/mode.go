package load

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects how a run reconciles incoming row-sets with the store.
type Mode string

const (
	// FullRefresh drops and recreates every table, then bulk-loads. Rows not
	// in the current extract are lost.
	FullRefresh Mode = "FULL_REFRESH"

	// Upsert replaces rows by key and leaves every other row untouched.
	// Re-running it with the same input yields the same store.
	Upsert Mode = "UPSERT"
)

// Modes lists the accepted modes.
var Modes = []Mode{FullRefresh, Upsert}

// ErrUnknownMode is matched by every *UnknownModeError.
var ErrUnknownMode = errors.New("unknown load mode")

// UnknownModeError reports a mode value that is not one of Modes.
type UnknownModeError struct {
	Value string
}

func (e *UnknownModeError) Error() string {
	return fmt.Sprintf("%s %q (want %s or %s)", ErrUnknownMode, e.Value, FullRefresh, Upsert)
}

func (e *UnknownModeError) Unwrap() error { return ErrUnknownMode }

// ParseMode accepts a mode name in any letter case, with "-" in place of
// "_".
func ParseMode(s string) (Mode, error) {
	norm := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	for _, m := range Modes {
		if string(m) == norm {
			return m, nil
		}
	}
	return "", &UnknownModeError{Value: s}
}

// TableError attributes a storage failure to the table and operation that
// raised it.
type TableError struct {
	Table string
	Op    string
	Err   error
}

func (e *TableError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
}

func (e *TableError) Unwrap() error { return e.Err }

// State is a step of the load state machine.
//
// Upsert:       Idle → SchemaEnsured → DimensionsReconciled → FactsReconciled → Committed
// Full refresh: Idle → Dropped → Recreated → BulkLoaded → Committed
//
// Any failure moves to Aborted.
type State int

const (
	Idle State = iota
	SchemaEnsured
	DimensionsReconciled
	FactsReconciled
	Dropped
	Recreated
	BulkLoaded
	Committed
	Aborted
)

var stateNames = [...]string{
	Idle:                 "idle",
	SchemaEnsured:        "schema_ensured",
	DimensionsReconciled: "dimensions_reconciled",
	FactsReconciled:      "facts_reconciled",
	Dropped:              "dropped",
	Recreated:            "recreated",
	BulkLoaded:           "bulk_loaded",
	Committed:            "committed",
	Aborted:              "aborted",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}
