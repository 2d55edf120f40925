package command

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parcelops/hub/internal/engine"
	"github.com/parcelops/hub/internal/types"
)

// NewChannelsCmd creates the channels command.
func NewChannelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "channels",
		Short: "List workspace channels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := GetApp()
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Syncer.RefreshChannels(cmd.Context()); err != nil {
				return err
			}
			channels := app.Store.Channels()

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(channels)
			}

			for _, ch := range channels {
				marker := " "
				if engine.HasUnread(ch) {
					marker = "●"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s%-24s %s\n", marker, glyph(ch.Kind), ch.Name, ch.ID)
			}
			return nil
		},
	}
	return cmd
}

func glyph(kind types.ChannelKind) string {
	switch kind {
	case types.ChannelKindDM:
		return "@"
	case types.ChannelKindRoom:
		return "~"
	default:
		return "#"
	}
}
