// Package datasource defines how the extractor reaches source files.
package datasource

import (
	"context"
	"io"
)

// File is an opened source. Columnar readers need random access, so a
// plain io.Reader is not enough.
type File interface {
	io.ReaderAt
	io.Seeker
	io.Closer
}

// Source opens one source file.
type Source interface {
	// Name identifies the source in logs and errors.
	Name() string
	Open(ctx context.Context) (File, error)
}
