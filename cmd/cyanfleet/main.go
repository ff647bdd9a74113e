// cmd/cyanfleet/main.go
//
// This is the entry point for the cyanfleet CLI.
// When you run `cyanfleet` from any directory, this is what executes.
//
// Flow:
// 1. Make sure .cyanfleet/ exists and load config.yaml plus the API token
// 2. Start the sync engine, the config watcher and the local status server
// 3. Launch the TUI; quitting it stops everything else

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	dir      string
	interval time.Duration
	noStatus bool
	verbose  bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "cyanfleet",
		Short:         "SpaceTraders fleet dashboard",
		Long:          "cyanfleet keeps a local view of your SpaceTraders agent in sync and lets you\ncommand ships, contracts and purchases from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDashboard(cmd.Context(), opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.dir, "dir", "", "project directory holding .cyanfleet (defaults to the working directory)")
	flags.DurationVar(&opts.interval, "interval", 0, "override sync.interval for this run")
	flags.BoolVar(&opts.verbose, "verbose", false, "write debug entries to the diagnostic log")
	cmd.Flags().BoolVar(&opts.noStatus, "no-status", false, "do not start the local status server")

	cmd.AddCommand(newStatusCmd(opts))
	cmd.AddCommand(newIntervalCmd(opts))
	return cmd
}

func (o *rootOptions) projectDir() (string, error) {
	if o.dir != "" {
		return o.dir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return cwd, nil
}
