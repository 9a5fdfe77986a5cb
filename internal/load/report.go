package load

import "nbaetl/internal/model"

// TableResult counts the writes one table received during a load.
type TableResult struct {
	Table string

	// Duplicates were dropped by primary key before writing.
	Duplicates int
	Deleted    int64
	Inserted   int64
	Batches    int64
}

// Report lists a TableResult for every table in load order.
type Report struct {
	Mode   Mode
	Tables []*TableResult
}

func newReport(mode Mode) *Report {
	rep := &Report{Mode: mode, Tables: make([]*TableResult, len(model.LoadOrder))}
	for i, name := range model.LoadOrder {
		rep.Tables[i] = &TableResult{Table: name}
	}
	return rep
}

func (r *Report) table(name string) *TableResult {
	for _, t := range r.Tables {
		if t.Table == name {
			return t
		}
	}
	t := &TableResult{Table: name}
	r.Tables = append(r.Tables, t)
	return t
}

// For returns the result recorded for table, or nil.
func (r *Report) For(table string) *TableResult {
	for _, t := range r.Tables {
		if t.Table == table {
			return t
		}
	}
	return nil
}

// Inserted sums inserted rows over all tables.
func (r *Report) Inserted() int64 {
	var n int64
	for _, t := range r.Tables {
		n += t.Inserted
	}
	return n
}
