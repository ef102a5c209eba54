package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"plannr/internal/app"
)

func newExportCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write a JSON backup to a file, or to stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(a *app.App) error {
				data, err := a.Planner.ExportJSON()
				if err != nil {
					return err
				}
				if len(args) == 0 {
					_, err := cmd.OutOrStdout().Write(append(data, '\n'))
					return err
				}
				if err := os.WriteFile(args[0], data, 0o600); err != nil {
					return fmt.Errorf("write backup: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s\n", args[0])
				return nil
			})
		},
	}
}

func newImportCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace tasks (and the profile, if present) from a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read backup: %w", err)
			}
			return withApp(cmd, open, func(a *app.App) error {
				res := a.Planner.Import(cmd.Context(), data)
				if !res.Success {
					return errors.New(res.Message)
				}
				fmt.Fprintln(cmd.OutOrStdout(), res.Message)
				return nil
			})
		},
	}
}
