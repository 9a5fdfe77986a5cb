package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"nbaetl/internal/pipeline"
	"nbaetl/internal/schema"
	"nbaetl/internal/storage"
)

func (a *app) schemaCommand() *cobra.Command {
	sc := &cobra.Command{
		Use:   "schema",
		Short: "Create or drop the star schema.",
	}
	sc.AddCommand(a.schemaOp("ensure", "Create every missing table and index.", (*schema.Manager).Ensure))
	sc.AddCommand(a.schemaOp("drop", "Drop every star-schema table.", (*schema.Manager).Drop))
	return sc
}

func (a *app) schemaOp(use, short string, op func(*schema.Manager, context.Context, storage.Execer) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sm, err := schema.NewManager(a.cfg.Storage.Kind, a.log)
			if err != nil {
				return err
			}
			repo, err := pipeline.OpenStore(cmd.Context(), a.cfg, a.log)
			if err != nil {
				return err
			}
			defer repo.Close()

			if err := op(sm, cmd.Context(), repo); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "schema %s: %d tables in %s\n", use, len(sm.Tables()), a.cfg.Storage.DSN)
			return nil
		},
	}
}
