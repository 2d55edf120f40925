package command

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parcelops/hub/internal/types"
)

// NewMentionsCmd creates the mentions command.
func NewMentionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mentions",
		Short: "Show messages that mention you",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := GetApp()
			if err != nil {
				return err
			}
			defer app.Close()

			all, _ := cmd.Flags().GetBool("all")
			ctx := cmd.Context()

			if all {
				// Bypass the session watermark by listing the raw feed.
				resp, err := app.Client.ListMentions(ctx, 50)
				if err != nil {
					return err
				}
				return printMentions(cmd, resp.Mentions)
			}

			fresh, err := app.Syncer.PollMentions(ctx)
			if err != nil {
				return err
			}
			return printMentions(cmd, fresh)
		},
	}
	cmd.Flags().Bool("all", false, "include mentions already seen")
	return cmd
}

func printMentions(cmd *cobra.Command, notices []types.MentionNotice) error {
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(notices)
	}
	if len(notices) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no new mentions")
		return nil
	}
	for _, notice := range notices {
		msg := notice.Message
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n",
			msg.CreatedAt.Local().Format("Jan 02 15:04"), msg.ChannelID, msg.Body)
	}
	return nil
}
