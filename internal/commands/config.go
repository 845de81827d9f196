package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diogo/lmchat/internal/config"
	"github.com/diogo/lmchat/internal/render"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
		Long: `Show or change lmchat settings stored in ~/.lmchat/config.json.

Environment variables (LMCHAT_BASE_URL, LMCHAT_LOCALE, LMCHAT_REQUEST_TIMEOUT,
LMCHAT_VERBOSE, LMCHAT_TUI_THEME, LMCHAT_LOG_FILE) override the file, and
command-line flags override both.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.showConfig()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.showConfig()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(a.deps.Out, path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Change one setting",
		Long: fmt.Sprintf(`Change one setting and save it.

Keys: %s
TUI themes: %s`, strings.Join(config.Keys(), ", "), strings.Join(render.TUIThemeNames(), ", ")),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			if key == "tui_theme" {
				if _, ok := render.GetTUIThemeByName(value); !ok {
					return fmt.Errorf("unknown theme %q (available: %s)", value, strings.Join(render.TUIThemeNames(), ", "))
				}
			}
			if _, err := config.SetAndSave(key, value); err != nil {
				return err
			}
			fmt.Fprintf(a.deps.Out, "%s = %s\n", key, value)
			return nil
		},
	})

	return cmd
}

func (a *app) showConfig() error {
	data, err := json.MarshalIndent(a.cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Fprintln(a.deps.Out, string(data))
	return nil
}
