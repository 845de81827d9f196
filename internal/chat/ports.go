package chat

import (
	"context"

	"github.com/diogo/lmchat/internal/models"
)

// Backend is the network side of a conversation. api.Client implements it.
type Backend interface {
	Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error)
	Clear(ctx context.Context, sessionID string) error
	History(ctx context.Context, sessionID string) ([]models.Message, error)
}

// Sink renders the conversation. Calls arrive in log order and must not call
// back into the Controller.
type Sink interface {
	// Append shows msg as the newest entry and keeps it in view.
	Append(msg models.Message)
	// ShowPending displays the typing placeholder.
	ShowPending()
	// HidePending removes the typing placeholder if present.
	HidePending()
	// ClearAllButFirst removes every rendered entry except the greeting,
	// including a visible placeholder.
	ClearAllButFirst()
}

// Input is the text entry control
type Input interface {
	// Clear empties the field and shrinks it back to fit its content.
	Clear()
	SetEnabled(enabled bool)
}

// Confirmer asks the user a yes/no question and blocks for the answer
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// Alerter shows a message the user has to acknowledge
type Alerter interface {
	Alert(message string)
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

// AlertFunc adapts a function to Alerter
type AlertFunc func(message string)

func (f AlertFunc) Alert(message string) { f(message) }

// AlwaysConfirm accepts every prompt; used for non-interactive clears.
var AlwaysConfirm = ConfirmFunc(func(context.Context, string) bool { return true })

type nopInput struct{}

func (nopInput) Clear()          {}
func (nopInput) SetEnabled(bool) {}

var nopAlerter = AlertFunc(func(string) {})
