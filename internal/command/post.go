package command

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parcelops/hub/internal/mention"
)

// NewPostCmd creates the post command.
func NewPostCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post <channel> <body>",
		Short: "Post a message to a channel",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := GetApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ch, err := app.ResolveChannel(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			app.Store.SetActive(ch.ID)

			// Literal @Name references against the member directory become
			// mention records, same as completions in the chat UI.
			var mentionedUserIDs []string
			if err := app.Syncer.RefreshDirectory(cmd.Context()); err == nil {
				mentionedUserIDs = mention.MentionedUserIDs(args[1], app.Directory.Candidates())
			}

			sent, err := app.Optimistic.Send(cmd.Context(), ch.ID, args[1], mentionedUserIDs)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "posted %s to %s\n", sent.ID, ch.Name)
			return nil
		},
	}
	return cmd
}
