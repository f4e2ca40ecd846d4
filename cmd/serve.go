package cmd

import (
	"github.com/spf13/cobra"
)

// newServeCmd creates the 'serve' subcommand: scheduled crawling plus the
// ops API, running until a termination signal.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Runs the scheduler and the ops API",
		Long: `Starts the cron scheduler that crawls every enabled source on the
configured cadence and serves the read-only ops API with health, metrics,
and run history endpoints. Blocks until SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			return appInstance.Run(cmd.Context())
		},
	}
}
