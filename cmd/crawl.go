package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// newCrawlCmd creates the 'crawl' subcommand: one pass over the named
// sources, then exit. With no arguments it crawls every enabled source.
func newCrawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl [source...]",
		Short: "Crawls the given sources once and exits",
		Long: `Runs a single crawl pass over the named sources, or over every
enabled source when none are given. Each source resumes from its saved
checkpoint. Interrupting with SIGINT stops cleanly after the page in flight.`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCommand,
	}
}

func runCrawlCommand(cmd *cobra.Command, args []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := appInstance.RunOnce(ctx, args); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
