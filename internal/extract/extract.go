// Package extract reads the four source datasets into row-sets.
//
// A source path names a Parquet file or a directory of them. A directory
// contributes every *.parquet file in name order, concatenated into one
// row-set. Datasets may be read concurrently; reading is side-effect free.
package extract

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"nbaetl/internal/datasource/file"
	"nbaetl/internal/parser/parquet"
	"nbaetl/internal/rowset"
	"nbaetl/internal/transform"
)

// Ext is the file extension picked up from source directories.
const Ext = ".parquet"

// ErrNoSourceFiles is returned for a source directory without Parquet files.
var ErrNoSourceFiles = errors.New("extract: no source files")

// Paths locates each dataset.
type Paths struct {
	Players    string
	Schedule   string
	Boxscore   string
	PlayByPlay string
}

// Path returns the configured location of a dataset.
func (p Paths) Path(dataset string) string {
	switch dataset {
	case transform.DatasetPlayers:
		return p.Players
	case transform.DatasetSchedule:
		return p.Schedule
	case transform.DatasetBoxscore:
		return p.Boxscore
	case transform.DatasetPlayByPlay:
		return p.PlayByPlay
	}
	return ""
}

// Options configures an Extractor.
type Options struct {
	// Workers bounds how many datasets are read at once. Values below 1
	// read sequentially.
	Workers int

	// BatchSize is passed to the Parquet reader.
	BatchSize int64

	Logger *zap.Logger
}

// Extractor reads source datasets.
type Extractor struct {
	workers   int
	batchSize int64
	log       *zap.Logger
}

// New returns an Extractor.
func New(opts Options) *Extractor {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Extractor{workers: opts.Workers, batchSize: opts.BatchSize, log: opts.Logger}
}

// Extract reads every dataset. The first failure cancels the others.
func (e *Extractor) Extract(ctx context.Context, paths Paths) (transform.Sources, error) {
	var (
		mu  sync.Mutex
		out = map[string]*rowset.RowSet{}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for _, ds := range transform.Datasets {
		ds := ds
		g.Go(func() error {
			rs, err := e.Dataset(gctx, ds, paths.Path(ds))
			if err != nil {
				return err
			}
			mu.Lock()
			out[ds] = rs
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return transform.Sources{}, err
	}

	return transform.Sources{
		Players:    out[transform.DatasetPlayers],
		Schedule:   out[transform.DatasetSchedule],
		Boxscore:   out[transform.DatasetBoxscore],
		PlayByPlay: out[transform.DatasetPlayByPlay],
	}, nil
}

// Dataset reads one dataset from path.
func (e *Extractor) Dataset(ctx context.Context, dataset, path string) (*rowset.RowSet, error) {
	if path == "" {
		return nil, fmt.Errorf("extract: %s: no source path", dataset)
	}
	files, err := file.List(path, Ext)
	if err != nil {
		return nil, fmt.Errorf("extract: %s: %w", dataset, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s (%s)", ErrNoSourceFiles, path, dataset)
	}

	parts := make([]*rowset.RowSet, 0, len(files))
	for _, src := range file.Sources(files) {
		rs, err := parquet.Read(ctx, src, dataset, parquet.Options{BatchSize: e.batchSize})
		if err != nil {
			return nil, fmt.Errorf("extract: %s: %w", dataset, err)
		}
		parts = append(parts, rs)
	}

	rs := parts[0]
	if len(parts) > 1 {
		rs = rowset.Concat(dataset, parts...)
	}
	e.log.Info("dataset extracted",
		zap.String("dataset", dataset),
		zap.String("path", path),
		zap.Int("files", len(files)),
		zap.Int("rows", rs.Len()))
	return rs, nil
}
