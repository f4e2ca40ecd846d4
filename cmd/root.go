// Package cmd defines the CLI commands for the jobminer executable.
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/steamahead/jobminer/internal/app"
	"github.com/steamahead/jobminer/internal/config"
)

var cfgFile string

// appKeyType is the key for storing the App in the command context.
type appKeyType string

const appKey appKeyType = "app"

// App is the slice of *app.App the commands use. An interface so tests can
// inject a fake.
type App interface {
	RunOnce(ctx context.Context, sources []string) error
	Run(ctx context.Context) error
	Close(ctx context.Context) error
}

// newApp is the application factory, a variable so tests can replace it.
var newApp = func(ctx context.Context, cfg config.Config) (App, error) {
	return app.Build(ctx, cfg)
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobminer",
		Short: "A polite crawler for Polish data-job boards.",
		Long: `jobminer walks job boards on a schedule, extracts normalized
listings and skill tags, and checkpoints its position so interrupted runs
resume where they stopped. Progress is observable over a small read-only
HTTP API.`,
		SilenceUsage:  true,
		SilenceErrors: true,

		// Runs after flag parsing and before the subcommand: load config,
		// build the dependency graph, hand it to subcommands via context.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			appInstance, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("initialize application: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			appInstance, ok := cmd.Context().Value(appKey).(App)
			if !ok || appInstance == nil {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = appInstance.Close(ctx)
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional, env vars apply either way)")

	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, fmt.Errorf("application services not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
