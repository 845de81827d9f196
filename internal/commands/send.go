package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/diogo/lmchat/internal/models"
	"github.com/diogo/lmchat/internal/render"
)

var replyBubbleStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("#9ece6a")).
	Padding(0, 1)

func newSendCmd(a *app) *cobra.Command {
	var (
		session string
		raw     bool
	)

	cmd := &cobra.Command{
		Use:   "send MESSAGE...",
		Short: "Send a single message and print the reply",
		Long: `Send one message and print the reply. The session ID is printed to
stderr so the conversation can be continued with --session.

Use "-" as the message to read it from stdin.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.Join(args, " ")
			if message == "-" {
				data, err := io.ReadAll(a.deps.In)
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				message = string(data)
			}
			return a.runSend(cmd, message, session, raw)
		},
	}

	cmd.Flags().StringVarP(&session, "session", "s", "", "Continue the conversation with this session ID")
	cmd.Flags().BoolVarP(&raw, "raw", "r", false, "Print the reply without markdown rendering")
	return cmd
}

func (a *app) runSend(cmd *cobra.Command, message, session string, raw bool) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return fmt.Errorf("message cannot be empty")
	}

	client, err := a.client()
	if err != nil {
		return err
	}
	defer client.Close()

	tty := a.deps.IsTerminal()

	var spin *spinner
	if tty && !raw {
		spin = newSpinner(a.deps.Err, a.text.Typing)
		spin.start()
	}

	resp, err := client.Chat(cmd.Context(), models.ChatRequest{
		Message:   message,
		SessionID: models.StringPtr(session),
	})
	if err != nil {
		if spin != nil {
			spin.stopWithError()
		}
		a.logger.Warn("send failed", zap.Error(err))
		return err
	}
	if spin != nil {
		spin.stop()
	}

	if raw || !tty {
		fmt.Fprintln(a.deps.Out, render.CleanResponse(resp.Response))
	} else {
		width := a.deps.TerminalWidth() - 4
		opts := render.FromConfig(a.cfg.Markdown).WithWidth(width - 4)
		fmt.Fprintln(a.deps.Out, replyBubbleStyle.Width(width).Render(render.Reply(resp.Response, opts)))
	}
	fmt.Fprintf(a.deps.Err, "session: %s\n", resp.SessionID)

	return nil
}
