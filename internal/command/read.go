package command

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewReadCmd creates the read command.
func NewReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <channel>",
		Short: "Mark a channel read up to its latest message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := GetApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			ch, err := app.ResolveChannel(ctx, args[0])
			if err != nil {
				return err
			}
			if err := app.Syncer.OpenChannel(ctx, ch.ID, time.Now()); err != nil {
				return err
			}
			app.Scheduler.StopAll()

			latest, ok := app.Store.Latest()
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%s has no messages\n", ch.Name)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s read through %s\n", ch.Name, latest.ID)
			return nil
		},
	}
}
