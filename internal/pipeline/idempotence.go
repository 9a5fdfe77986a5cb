package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"nbaetl/internal/verify"
)

// Idempotence is the outcome of two back-to-back runs over the same
// sources.
type Idempotence struct {
	First, Second *Summary

	// Before and After digest the store after each run.
	Before, After verify.Snapshot

	// Diff lists tables whose content changed on the second run.
	Diff []verify.Difference
}

// Idempotent reports whether the second run left every table unchanged.
func (i *Idempotence) Idempotent() bool { return len(i.Diff) == 0 }

// RunTwice runs the pipeline twice and compares the store contents after
// each run.
func (r *Runner) RunTwice(ctx context.Context) (*Idempotence, error) {
	out := &Idempotence{}

	var err error
	if out.First, err = r.Run(ctx); err != nil {
		return out, fmt.Errorf("first run: %w", err)
	}
	if out.Before, err = r.snapshot(ctx); err != nil {
		return out, err
	}
	if out.Second, err = r.Run(ctx); err != nil {
		return out, fmt.Errorf("second run: %w", err)
	}
	if out.After, err = r.snapshot(ctx); err != nil {
		return out, err
	}

	out.Diff = verify.Diff(out.Before, out.After)
	for _, d := range out.Diff {
		r.log.Warn("table changed on rerun", zap.String("table", d.Table),
			zap.Int64("rows_before", d.Before.Rows), zap.Int64("rows_after", d.After.Rows))
	}
	return out, nil
}

func (r *Runner) snapshot(ctx context.Context) (verify.Snapshot, error) {
	repo, err := OpenStore(ctx, r.cfg, r.log)
	if err != nil {
		return nil, err
	}
	defer repo.Close()
	return verify.Take(ctx, repo)
}
