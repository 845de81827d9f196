// Package repl runs a conversation over plain line-oriented I/O, for pipes
// and terminals where the full-screen interface is unwanted.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/atotto/clipboard"
	"go.uber.org/zap"

	"github.com/diogo/lmchat/internal/chat"
	"github.com/diogo/lmchat/internal/logging"
	"github.com/diogo/lmchat/internal/models"
	"github.com/diogo/lmchat/internal/render"
)

// Options configures a REPL session
type Options struct {
	In  io.Reader
	Out io.Writer
	// Err receives prompts, the typing notice, clear notices and alerts, so
	// Out carries only the conversation.
	Err      io.Writer
	Strings  models.Strings
	ResumeID string
	Logger   *zap.Logger
	// Copy puts text on the clipboard; nil uses the system clipboard.
	Copy func(string) error
}

// REPL reads one message per line and prints each rendered entry as
// "role: content"
type REPL struct {
	scanner *bufio.Scanner
	out     io.Writer
	errOut  io.Writer
	text    models.Strings
	copy    func(string) error
	logger  *zap.Logger
}

// Run drives a conversation until EOF, an exit command or ctx ends.
func Run(ctx context.Context, backend chat.Backend, opts Options) error {
	r := &REPL{
		scanner: bufio.NewScanner(opts.In),
		out:     opts.Out,
		errOut:  opts.Err,
		text:    opts.Strings,
		copy:    opts.Copy,
		logger:  logging.OrNop(opts.Logger).Named("repl"),
	}
	if r.errOut == nil {
		r.errOut = io.Discard
	}
	if r.copy == nil {
		r.copy = clipboard.WriteAll
	}
	// long pasted messages
	r.scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	controller, err := chat.New(chat.Deps{
		Backend:   backend,
		Sink:      r,
		Confirmer: r,
		Alerter:   r,
		Strings:   opts.Strings,
		Logger:    opts.Logger,
	})
	if err != nil {
		return err
	}
	r.text = controller.Strings()

	if opts.ResumeID != "" {
		if err := controller.Resume(ctx, opts.ResumeID); err != nil {
			return err
		}
	}

	return r.loop(ctx, controller)
}

func (r *REPL) loop(ctx context.Context, controller *chat.Controller) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprint(r.errOut, "> ")
		line, ok := r.readLine()
		if !ok {
			fmt.Fprintln(r.errOut)
			return r.scanner.Err()
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "exit", "quit", "/exit", "/quit":
			return nil
		case "/clear":
			// failures were already alerted
			if _, err := controller.Clear(ctx); err != nil {
				r.logger.Debug("clear finished with error", zap.Error(err))
			}
			continue
		case "/copy":
			r.copyLastReply(controller)
			continue
		}

		if err := controller.Submit(ctx, line); err != nil && !errors.Is(err, chat.ErrBusy) {
			return err
		}
	}
}

func (r *REPL) copyLastReply(controller *chat.Controller) {
	reply, ok := controller.LastReply()
	if !ok {
		fmt.Fprintln(r.errOut, r.text.NothingToCopy)
		return
	}
	if err := r.copy(render.CleanResponse(reply)); err != nil {
		fmt.Fprintln(r.errOut, r.text.CopyFailed+err.Error())
		return
	}
	fmt.Fprintln(r.errOut, r.text.CopyDone)
}

func (r *REPL) readLine() (string, bool) {
	if !r.scanner.Scan() {
		return "", false
	}
	return r.scanner.Text(), true
}

// Append prints a finished entry
func (r *REPL) Append(msg models.Message) {
	content := msg.Content
	if msg.Role == models.RoleAssistant {
		content = render.CleanResponse(content)
	}
	fmt.Fprintf(r.out, "%s: %s\n", msg.Role, content)
}

func (r *REPL) ShowPending() {
	fmt.Fprintf(r.errOut, "%s...\n", r.text.Typing)
}

// HidePending is a no-op; printed lines cannot be taken back.
func (r *REPL) HidePending() {}

func (r *REPL) ClearAllButFirst() {
	fmt.Fprintln(r.errOut, "---")
}

// Confirm asks on the error stream and reads the answer from the next input
// line
func (r *REPL) Confirm(_ context.Context, prompt string) bool {
	fmt.Fprintf(r.errOut, "%s [y/N] ", prompt)
	line, ok := r.readLine()
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func (r *REPL) Alert(message string) {
	fmt.Fprintln(r.errOut, message)
}
