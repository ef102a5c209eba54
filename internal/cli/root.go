// Package cli is the plannr command line: the bot server plus local task commands.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"plannr/internal/app"
	"plannr/internal/config"
)

// Opener builds the application a command works on.
type Opener func(ctx context.Context) (*app.App, error)

// DefaultOpener loads the environment configuration and opens the app.
func DefaultOpener(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return app.Open(ctx, cfg)
}

// NewRootCmd assembles the command tree. Without a subcommand the bot is served.
func NewRootCmd(open Opener) *cobra.Command {
	root := &cobra.Command{
		Use:   "plannr",
		Short: "plannr - daily tasks, streaks and achievements",
		Long: `plannr keeps a personal task list with a daily completion streak and
achievement levels. It runs as a Telegram bot and offers the same engine
through local commands.`,
		RunE:          func(cmd *cobra.Command, _ []string) error { return runServe(cmd, open) },
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(open),
		newLoginCmd(open),
		newTodayCmd(open),
		newUpcomingCmd(open),
		newAddCmd(open),
		newDoneCmd(open),
		newStatsCmd(open),
		newExportCmd(open),
		newImportCmd(open),
		newClearCmd(open),
	)
	return root
}

// Execute runs the root command
func Execute(ctx context.Context, version string) error {
	root := NewRootCmd(DefaultOpener)
	root.Version = version
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// withApp opens the app for the length of fn.
func withApp(cmd *cobra.Command, open Opener, fn func(a *app.App) error) error {
	a, err := open(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
