package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"nbaetl/internal/config"
)

func (a *app) configCommand() *cobra.Command {
	cc := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration.",
	}
	cc.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Print the effective configuration as YAML.",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			out, err := config.Dump(a.cfg)
			if err != nil {
				return err
			}
			_, err = a.stdout.Write(out)
			return err
		},
	})
	cc.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Lint the effective configuration; fail on errors.",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if err := a.validate(); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, "configuration is valid")
			return nil
		},
	})
	return cc
}
