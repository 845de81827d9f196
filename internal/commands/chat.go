package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/diogo/lmchat/internal/render"
	"github.com/diogo/lmchat/internal/repl"
	"github.com/diogo/lmchat/internal/tui"
)

func newChatCmd(a *app) *cobra.Command {
	var (
		plain   bool
		session string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session.

Enter sends, Alt+Enter inserts a newline, Ctrl+L clears the conversation,
Ctrl+Y copies the last reply. Type /exit or press Esc to leave.

When stdout is not a terminal, or with --plain, the chat runs in line mode:
one message per input line, 'exit' to quit, '/clear' to clear,
'/copy' to copy the last reply.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runChat(cmd.Context(), plain, session)
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "Line mode instead of the full-screen interface")
	cmd.Flags().StringVarP(&session, "session", "s", "", "Continue the conversation with this session ID")
	return cmd
}

func (a *app) runChat(ctx context.Context, plain bool, session string) error {
	client, err := a.client()
	if err != nil {
		return err
	}
	defer client.Close()

	if plain || !a.deps.IsTerminal() {
		return a.deps.REPL(ctx, client, repl.Options{
			In:       a.deps.In,
			Out:      a.deps.Out,
			Err:      a.deps.Err,
			Strings:  a.text,
			ResumeID: session,
			Logger:   a.logger,
		})
	}

	return a.deps.TUI.RunChat(ctx, client, tui.Options{
		Strings:        a.text,
		BaseURL:        client.BaseURL(),
		ResumeID:       session,
		MaxInputHeight: a.cfg.MaxInputHeight,
		AutoCopy:       a.cfg.CopyToClipboard,
		Markdown:       render.FromConfig(a.cfg.Markdown),
		Logger:         a.logger,
	})
}
