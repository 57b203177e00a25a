package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/comigor/duochat/internal/history"
)

func newSeedCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Fill an empty store with the demo conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(cfg, log)
			if err != nil {
				return err
			}
			defer closeStore(store, log)

			seeded, err := history.SeedIfEmpty(cmd.Context(), store, time.Now())
			if err != nil {
				return err
			}
			if seeded {
				fmt.Fprintln(cmd.OutOrStdout(), "seeded the demo conversation")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "store already has messages, nothing to do")
			}
			return nil
		},
	}
}
