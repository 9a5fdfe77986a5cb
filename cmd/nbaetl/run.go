package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"nbaetl/internal/pipeline"
	"nbaetl/internal/verify"
)

func (a *app) runCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once and print row counts per table.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.validate(); err != nil {
				return err
			}
			stop, err := a.startMetrics()
			if err != nil {
				return err
			}
			defer stop()

			r, err := pipeline.New(a.cfg, a.log)
			if err != nil {
				return err
			}
			sum, err := r.Run(cmd.Context())
			if err != nil {
				return err
			}
			printSummary(a.stdout, sum)
			return nil
		},
	}
}

func (a *app) verifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Run the pipeline twice and fail if the second run changed any table.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.validate(); err != nil {
				return err
			}
			stop, err := a.startMetrics()
			if err != nil {
				return err
			}
			defer stop()

			r, err := pipeline.New(a.cfg, a.log)
			if err != nil {
				return err
			}
			res, err := r.RunTwice(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(a.stdout, "%-24s %10s %10s\n", "table", "first", "second")
			for _, t := range res.After.Tables() {
				fmt.Fprintf(a.stdout, "%-24s %10d %10d\n", t, res.Before[t].Rows, res.After[t].Rows)
			}
			if !res.Idempotent() {
				for _, d := range res.Diff {
					fmt.Fprintf(a.stdout, "changed: %s\n", d)
				}
				fmt.Fprintf(a.stdout, "NOT IDEMPOTENT (%s): %d tables changed\n", r.Config().Mode, len(res.Diff))
				return errFailed
			}
			fmt.Fprintf(a.stdout, "idempotent (%s)\n", r.Config().Mode)
			return nil
		},
	}
}

func (a *app) checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run data-quality checks against the store; fail on error-severity findings.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := pipeline.OpenStore(cmd.Context(), a.cfg, a.log)
			if err != nil {
				return err
			}
			defer repo.Close()

			results, err := verify.Check(cmd.Context(), repo)
			if err != nil {
				return err
			}
			for _, r := range results {
				fmt.Fprintln(a.stdout, r)
				for _, d := range r.Details {
					fmt.Fprintf(a.stdout, "    %s\n", d)
				}
			}
			errs, warns := verify.Failed(results, verify.SeverityError), verify.Failed(results, verify.SeverityWarning)
			fmt.Fprintf(a.stdout, "%d checks, %d errors, %d warnings\n", len(results), errs, warns)
			if errs > 0 {
				return errFailed
			}
			return nil
		},
	}
}

func printSummary(w io.Writer, sum *pipeline.Summary) {
	fmt.Fprintf(w, "run %s (%s) finished in %s\n", sum.RunID, sum.Mode, sum.Duration.Round(time.Millisecond))
	for _, c := range sum.Counts {
		var deleted, inserted int64
		if res := sum.Load.For(c.Table); res != nil {
			deleted, inserted = res.Deleted, res.Inserted
		}
		fmt.Fprintf(w, "%-24s rows=%-8d deleted=%-8d inserted=%d\n", c.Table, c.Rows, deleted, inserted)
	}
}
