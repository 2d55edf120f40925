package command

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewWhoamiCmd creates the whoami command.
func NewWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the configured identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := GetApp()
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Syncer.RefreshDirectory(cmd.Context()); err != nil {
				return err
			}
			label := app.Directory.Label(app.Config.UserID)
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) in workspace %s at %s\n",
				label, app.Config.UserID, app.Config.WorkspaceID, app.Config.BaseURL)
			return nil
		},
	}
}
