package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// newRunCmd creates the run subcommand: one fuel check, then exit.
func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [config]",
		Short: "Perform one fuel check",
		Long:  `Read the last known states, check every structure, notify on changes and save the new states.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, args)
			if err != nil {
				return err
			}
			defer a.close()

			res, err := a.svc.Run(ctx)
			if err != nil {
				a.logger.WithRun(res.RunID).Errorf("Fuel check failed: %v", err)
				return err
			}
			a.logger.WithRun(res.RunID).Infof("Fuel check done in %v: %d listed, %d evaluated, %d changed",
				res.Duration, res.Listed, res.Evaluated, res.Changed)
			return nil
		},
	}
}
