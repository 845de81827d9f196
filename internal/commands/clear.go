package commands

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newClearCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear SESSION_ID",
		Short: "Clear a conversation on the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if !yes && !promptYesNo(a.deps.In, a.deps.Out, a.text.ClearConfirm) {
				fmt.Fprintln(a.deps.Out, "Cancelled.")
				return nil
			}

			client, err := a.client()
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.Clear(cmd.Context(), id); err != nil {
				return fmt.Errorf("%s: %w", strings.TrimSuffix(a.text.ClearFailed, "."), err)
			}
			fmt.Fprintf(a.deps.Out, "Cleared session %s\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

// promptYesNo writes prompt and reads one answer line; only y/yes accept
func promptYesNo(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
