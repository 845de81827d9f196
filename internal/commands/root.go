// Package commands provides CLI commands for lmchat.
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/diogo/lmchat/internal/api"
	"github.com/diogo/lmchat/internal/config"
	"github.com/diogo/lmchat/internal/logging"
	"github.com/diogo/lmchat/internal/models"
	"github.com/diogo/lmchat/internal/render"
	"github.com/diogo/lmchat/internal/tui"
)

var (
	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// app is the state shared by every command of one invocation
type app struct {
	deps   *Dependencies
	cfg    config.Config
	logger *zap.Logger
	text   models.Strings

	urlFlag     string
	verboseFlag bool
	localeFlag  string
}

// NewRootCmd builds the command tree around deps
func NewRootCmd(deps *Dependencies) *cobra.Command {
	if deps == nil {
		deps = NewDependencies()
	}
	a := &app{deps: deps, logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "lmchat",
		Short: "Terminal client for an LM chat server",
		Long: `lmchat talks to a chat server exposing POST /api/chat and
POST /api/clear/{session_id}, keeping one conversation per session.

Examples:
  lmchat                                 Start interactive chat
  lmchat chat --session abc123           Continue an existing conversation
  lmchat chat --plain < questions.txt    Line mode, one message per line
  lmchat send "What is Go?"              Send a single message
  lmchat clear abc123                    Clear a conversation on the server
  lmchat config set base_url http://localhost:5000`,
		Version:       fmt.Sprintf("%s (built %s)", Version, BuildTime),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runChat(cmd.Context(), false, "")
		},
	}
	root.SetIn(deps.In)
	root.SetOut(deps.Out)
	root.SetErr(deps.Err)

	pf := root.PersistentFlags()
	pf.StringVar(&a.urlFlag, "url", "", "Chat server base URL (default "+models.DefaultBaseURL+")")
	pf.BoolVar(&a.verboseFlag, "verbose", false, "Write debug entries to the log file")
	pf.StringVar(&a.localeFlag, "locale", "", "Message language, e.g. en or ja (default from LANG)")

	root.AddCommand(newChatCmd(a))
	root.AddCommand(newSendCmd(a))
	root.AddCommand(newHistoryCmd(a))
	root.AddCommand(newClearCmd(a))
	root.AddCommand(newConfigCmd(a))

	return root
}

// setup loads the config, applies flag overrides and builds the logger
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := a.deps.LoadConfig()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("url") {
		cfg.BaseURL = strings.TrimRight(a.urlFlag, "/")
	}
	if flags.Changed("verbose") {
		cfg.Verbose = a.verboseFlag
	}
	if flags.Changed("locale") {
		cfg.Locale = a.localeFlag
	}
	a.cfg = cfg

	getenv := a.deps.Getenv
	a.text = models.StringsFor(cfg.Locale, getenv("LC_ALL"), getenv("LC_MESSAGES"), getenv("LANG"))

	logger, err := a.deps.NewLogger(logging.Options{Path: cfg.LogFile, Verbose: cfg.Verbose})
	if err != nil {
		return err
	}
	a.logger = logger

	if cfg.TUITheme != "" && render.SetTUITheme(cfg.TUITheme) {
		tui.UpdateTheme()
	}

	a.logger.Debug("starting",
		zap.String("command", cmd.CommandPath()),
		zap.String("base_url", cfg.BaseURL),
		zap.String("version", Version),
	)
	return nil
}

// client validates the effective config and builds the server client
func (a *app) client() (api.ChatClientInterface, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := a.deps.NewClient(a.cfg, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

var rootCmd = NewRootCmd(nil)

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, tui.FormatError(err))
		stop()
		os.Exit(1)
	}
}
