package commands

import (
	"context"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/diogo/lmchat/internal/api"
	"github.com/diogo/lmchat/internal/chat"
	"github.com/diogo/lmchat/internal/config"
	"github.com/diogo/lmchat/internal/logging"
	"github.com/diogo/lmchat/internal/repl"
	"github.com/diogo/lmchat/internal/tui"
)

// TUIInterface defines the methods required from the TUI package.
type TUIInterface interface {
	RunChat(ctx context.Context, backend chat.Backend, opts tui.Options) error
}

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	LoadConfig func() (config.Config, error)
	NewLogger  func(opts logging.Options) (*zap.Logger, error)
	// NewClient builds the chat server client from the effective config.
	NewClient func(cfg config.Config, logger *zap.Logger) (api.ChatClientInterface, error)

	// TUI is the full-screen interface; REPL the line-mode fallback.
	TUI  TUIInterface
	REPL func(ctx context.Context, backend chat.Backend, opts repl.Options) error

	// IsTerminal reports whether stdout is a terminal.
	IsTerminal    func() bool
	TerminalWidth func() int
	Getenv        func(key string) string
}

// DefaultTUI is the production implementation of TUIInterface.
type DefaultTUI struct{}

func (d *DefaultTUI) RunChat(ctx context.Context, backend chat.Backend, opts tui.Options) error {
	return tui.Run(ctx, backend, opts)
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		In:            os.Stdin,
		Out:           os.Stdout,
		Err:           os.Stderr,
		LoadConfig:    config.LoadConfig,
		NewLogger:     logging.New,
		NewClient:     newAPIClient,
		TUI:           &DefaultTUI{},
		REPL:          repl.Run,
		IsTerminal:    isStdoutTTY,
		TerminalWidth: getTerminalWidth,
		Getenv:        os.Getenv,
	}
}

func newAPIClient(cfg config.Config, logger *zap.Logger) (api.ChatClientInterface, error) {
	return api.NewClient(
		api.WithBaseURL(cfg.BaseURL),
		api.WithTimeout(time.Duration(cfg.RequestTimeout)*time.Second),
		api.WithLogger(logger),
		api.WithUserAgent("lmchat/"+Version),
	)
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// isStdoutTTY returns true if stdout is connected to a terminal
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
