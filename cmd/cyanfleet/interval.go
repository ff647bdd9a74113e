package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kingrea/cyan-fleet-control/internal/config"
)

func newIntervalCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "interval [duration]",
		Short: "Show or persist the pause between refresh operations",
		Long: `Without an argument prints sync.interval from .cyanfleet/config.yaml.
With a duration (for example 5s) writes it back; a running dashboard picks
the change up without a restart.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := opts.projectDir()
			if err != nil {
				return err
			}
			if err := config.InitStateDir(dir); err != nil {
				return err
			}
			cfg, err := config.NewConfig(dir)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cfg.Project.Sync.Interval)
				return nil
			}
			d, err := time.ParseDuration(args[0])
			if err != nil {
				return fmt.Errorf("parse interval: %w", err)
			}
			if err := cfg.SetSyncInterval(d); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sync interval set to %s\n", d)
			return nil
		},
	}
}
