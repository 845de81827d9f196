package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diogo/lmchat/internal/models"
	"github.com/diogo/lmchat/internal/render"
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history SESSION_ID",
		Short: "Show a conversation stored on the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			defer client.Close()

			messages, err := client.History(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to load history: %w", err)
			}

			out := a.deps.Out
			if len(messages) == 0 {
				fmt.Fprintln(out, "No messages found.")
				return nil
			}

			fmt.Fprintf(out, "Session: %s\n", args[0])
			fmt.Fprintf(out, "Messages: %d\n\n", len(messages))

			for i, msg := range messages {
				content := msg.Content
				if msg.Role == models.RoleAssistant {
					content = render.CleanResponse(content)
				}
				if limit > 0 && len(content) > limit {
					content = content[:limit] + "..."
				}
				fmt.Fprintf(out, "[%d] %s:\n  %s\n\n", i+1, msg.Role, strings.ReplaceAll(content, "\n", "\n  "))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Truncate each message to this many bytes (0 = no limit)")
	return cmd
}
