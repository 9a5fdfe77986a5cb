// Package pipeline runs one batch: extract the four source datasets,
// transform them into star-schema row-sets, load them in the configured
// mode and count the rows of every table afterwards.
//
// Each stage is timed and recorded through internal/metrics. A failing
// stage aborts the rest of the run; units already committed by the loader
// stay committed.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nbaetl/internal/config"
	"nbaetl/internal/extract"
	"nbaetl/internal/load"
	"nbaetl/internal/metrics"
	"nbaetl/internal/model"
	"nbaetl/internal/schema"
	"nbaetl/internal/storage"
	"nbaetl/internal/transform"
)

// Stage names, as recorded in logs and metrics.
const (
	StageExtract   = "extract"
	StageTransform = "transform"
	StageLoad      = "load"
	StageCount     = "count"
)

// Test seams. Production code points at the real implementations.
var (
	newRepositoryFn = storage.New

	extractFn = func(ctx context.Context, paths extract.Paths, opts extract.Options) (transform.Sources, error) {
		return extract.New(opts).Extract(ctx, paths)
	}
)

// TableCount is the row count of one table after a run.
type TableCount struct {
	Table string
	Rows  int64
}

// Summary describes a finished (or aborted) run.
type Summary struct {
	RunID string
	Mode  load.Mode

	// Extracted maps each dataset to the rows read from it.
	Extracted map[string]int

	Transform *transform.Report
	Load      *load.Report

	// Counts lists every table in load order.
	Counts []TableCount

	Duration time.Duration
}

// Count returns the post-run row count of table.
func (s *Summary) Count(table string) (int64, bool) {
	for _, c := range s.Counts {
		if c.Table == table {
			return c.Rows, true
		}
	}
	return 0, false
}

// Runner executes runs for one configuration.
type Runner struct {
	cfg  config.Pipeline
	mode load.Mode
	log  *zap.Logger
}

// New validates cfg and returns a Runner. A nil log discards output.
func New(cfg config.Pipeline, log *zap.Logger) (*Runner, error) {
	mode, err := load.ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}
	if err := config.Errors(config.ValidatePipeline(cfg)); err != nil {
		return nil, fmt.Errorf("pipeline: invalid config: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{cfg: cfg, mode: mode, log: log}, nil
}

// Config returns the configuration the Runner was built with.
func (r *Runner) Config() config.Pipeline { return r.cfg }

// Run executes one run. The returned Summary is non-nil even on error and
// holds whatever the completed stages produced.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	sum := &Summary{RunID: uuid.NewString(), Mode: r.mode, Extracted: map[string]int{}}
	log := r.log.With(zap.String("run_id", sum.RunID), zap.String("job", r.cfg.Job))
	start := time.Now()
	defer func() { sum.Duration = time.Since(start) }()

	log.Info("run started", zap.String("mode", string(r.mode)), zap.String("dsn", r.cfg.Storage.DSN))

	var src transform.Sources
	err := r.stage(log, StageExtract, func() error {
		var err error
		src, err = extractFn(ctx, r.paths(), extract.Options{
			Workers:   r.cfg.Runtime.ReaderWorkers,
			BatchSize: r.cfg.Runtime.ReadBatchSize,
			Logger:    log,
		})
		if err != nil {
			return err
		}
		for _, ds := range transform.Datasets {
			var n int
			if rs := src.Dataset(ds); rs != nil {
				n = rs.Len()
			}
			sum.Extracted[ds] = n
			metrics.RecordRow(r.cfg.Job, "extracted", int64(n))
		}
		return nil
	})
	if err != nil {
		return sum, err
	}

	var tables *transform.Tables
	err = r.stage(log, StageTransform, func() error {
		var err error
		tables, sum.Transform, err = transform.All(src, log)
		if err != nil {
			return err
		}
		r.recordTransform(sum.Transform)
		return nil
	})
	if err != nil {
		return sum, err
	}

	repo, err := OpenStore(ctx, r.cfg, log)
	if err != nil {
		return sum, err
	}
	defer repo.Close()

	err = r.stage(log, StageLoad, func() error {
		sm, err := schema.NewManager(r.cfg.Storage.Kind, log)
		if err != nil {
			return err
		}
		rec, err := load.New(repo, sm, load.Options{Mode: r.mode, Job: r.cfg.Job, Logger: log})
		if err != nil {
			return err
		}
		sum.Load, err = rec.Load(ctx, tables)
		return err
	})
	if err != nil {
		return sum, err
	}

	err = r.stage(log, StageCount, func() error {
		counts, err := Counts(ctx, repo)
		sum.Counts = counts
		return err
	})
	if err != nil {
		return sum, err
	}
	for _, c := range sum.Counts {
		log.Info("table rows", zap.String("table", c.Table), zap.Int64("rows", c.Rows))
	}

	log.Info("run complete",
		zap.Int64("inserted", sum.Load.Inserted()),
		zap.Duration("took", time.Since(start).Truncate(time.Millisecond)))
	return sum, nil
}

// stage runs fn and records its latency and outcome.
func (r *Runner) stage(log *zap.Logger, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	d := time.Since(start)
	metrics.RecordStep(r.cfg.Job, name, err, d)
	if err != nil {
		log.Error("stage failed", zap.String("stage", name), zap.Duration("took", d), zap.Error(err))
		return fmt.Errorf("pipeline: %s: %w", name, err)
	}
	log.Debug("stage complete", zap.String("stage", name), zap.Duration("took", d))
	return nil
}

func (r *Runner) recordTransform(rep *transform.Report) {
	for _, st := range rep.Stats {
		metrics.RecordRow(r.cfg.Job, "invalid", int64(st.Invalid))
		metrics.RecordRow(r.cfg.Job, "skipped", int64(st.Skipped))
		metrics.RecordRow(r.cfg.Job, "excluded", int64(st.Excluded))
		metrics.RecordRow(r.cfg.Job, "unmatched", int64(st.Unmatched))
		metrics.RecordRow(r.cfg.Job, "duplicates", int64(st.Duplicates))
		metrics.RecordRow(r.cfg.Job, "orphaned", int64(st.Orphaned))
	}
}

func (r *Runner) paths() extract.Paths {
	s := r.cfg.Sources
	return extract.Paths{
		Players:    s.Players,
		Schedule:   s.Schedule,
		Boxscore:   s.Boxscore,
		PlayByPlay: s.PlayByPlay,
	}
}

// OpenStore opens the configured store. Callers close it.
func OpenStore(ctx context.Context, cfg config.Pipeline, log *zap.Logger) (storage.Repository, error) {
	repo, err := newRepositoryFn(ctx, storage.Config{
		Kind:      cfg.Storage.Kind,
		DSN:       cfg.Storage.DSN,
		MaxParams: cfg.Storage.MaxParams,
		BatchSize: cfg.Runtime.BatchSize,
		Logger:    log,
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: open %s store: %w", cfg.Storage.Kind, err)
	}
	return repo, nil
}

// Counts returns the row count of every star-schema table in load order.
func Counts(ctx context.Context, repo storage.Repository) ([]TableCount, error) {
	out := make([]TableCount, 0, len(model.LoadOrder))
	for _, t := range model.LoadOrder {
		n, err := repo.Count(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", t, err)
		}
		out = append(out, TableCount{Table: t, Rows: n})
	}
	return out, nil
}
