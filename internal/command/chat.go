package command

import (
	"github.com/spf13/cobra"

	"github.com/parcelops/hub/internal/chat"
)

// NewChatCmd creates the chat command.
func NewChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Open the interactive chat UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := GetApp()
			if err != nil {
				return err
			}
			defer app.Close()

			return chat.Run(chat.Options{
				Store:      app.Store,
				Syncer:     app.Syncer,
				Optimistic: app.Optimistic,
				Directory:  app.Directory,
				Scheduler:  app.Scheduler,
				Cache:      app.Cache,
				UserID:     app.Config.UserID,
				Workspace:  app.Config.WorkspaceID,
			})
		},
	}
}
