// Package chat implements the conversation controller: it turns submitted
// text and clear requests into backend calls and ordered render updates.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	apierrors "github.com/diogo/lmchat/internal/errors"
	"github.com/diogo/lmchat/internal/logging"
	"github.com/diogo/lmchat/internal/models"
)

// ErrBusy is returned by Submit and Resume while a send is in flight.
var ErrBusy = errors.New("a message is already being sent")

// State of the send lifecycle
type State int

const (
	StateIdle State = iota
	StateSending
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Deps are the collaborators of a Controller. Backend and Sink are
// required; the rest fall back to no-op implementations and AlwaysConfirm.
type Deps struct {
	Backend   Backend
	Sink      Sink
	Input     Input
	Confirmer Confirmer
	Alerter   Alerter
	Strings   models.Strings
	Logger    *zap.Logger
}

// Controller owns the message log and the conversation identifier.
type Controller struct {
	backend Backend
	sink    Sink
	input   Input
	confirm Confirmer
	alert   Alerter
	text    models.Strings
	logger  *zap.Logger

	mu         sync.Mutex
	log        *MessageLog
	sessionID  string
	hasSession bool
	state      State
	pending    bool
	// epoch increments on every clear; replies to sends started in an older
	// epoch are dropped.
	epoch uint64
}

// New creates a Controller and renders the greeting.
func New(deps Deps) (*Controller, error) {
	if deps.Backend == nil {
		return nil, fmt.Errorf("chat: backend is required")
	}
	if deps.Sink == nil {
		return nil, fmt.Errorf("chat: sink is required")
	}
	if deps.Input == nil {
		deps.Input = nopInput{}
	}
	if deps.Confirmer == nil {
		deps.Confirmer = AlwaysConfirm
	}
	if deps.Alerter == nil {
		deps.Alerter = nopAlerter
	}
	if deps.Strings == (models.Strings{}) {
		deps.Strings = models.StringsFor()
	}

	greeting := models.NewMessage(models.RoleAssistant, deps.Strings.Greeting)
	c := &Controller{
		backend: deps.Backend,
		sink:    deps.Sink,
		input:   deps.Input,
		confirm: deps.Confirmer,
		alert:   deps.Alerter,
		text:    deps.Strings,
		logger:  logging.OrNop(deps.Logger).Named("chat"),
		log:     NewMessageLog(greeting),
	}
	c.sink.Append(greeting)

	return c, nil
}

// Submit sends text as a user message and renders the outcome. Blank text
// is ignored. Endpoint and transport failures are rendered as error messages
// rather than returned; the only error is ErrBusy.
func (c *Controller) Submit(ctx context.Context, text string) error {
	message := strings.TrimSpace(text)
	if message == "" {
		return nil
	}

	c.mu.Lock()
	if c.state == StateSending {
		c.mu.Unlock()
		return ErrBusy
	}
	c.state = StateSending
	epoch := c.epoch
	req := models.ChatRequest{Message: message, SessionID: c.sessionPtrLocked()}

	c.appendLocked(models.NewMessage(models.RoleUser, message))
	c.input.Clear()
	c.input.SetEnabled(false)
	c.pending = true
	c.sink.ShowPending()
	c.mu.Unlock()

	c.logger.Debug("sending message",
		zap.Int("length", len(message)),
		zap.Bool("new_session", req.SessionID == nil),
	)

	resp, err := c.backend.Chat(ctx, req)
	if err == nil && resp == nil {
		err = apierrors.NewTransportError(models.PathChat, apierrors.ErrInvalidResponse)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.finishLocked()

	if c.epoch != epoch {
		c.logger.Debug("discarding reply for a cleared conversation", zap.Error(err))
		return nil
	}

	if err != nil {
		c.logger.Warn("send failed",
			zap.Bool("endpoint_error", apierrors.IsEndpointError(err)),
			zap.Int("status", apierrors.GetHTTPStatus(err)),
			zap.Error(err),
		)
		c.hidePendingLocked()
		c.appendLocked(c.errorMessage(err))
		return nil
	}

	c.sessionID = resp.SessionID
	c.hasSession = true
	c.hidePendingLocked()
	c.appendLocked(models.NewMessage(models.RoleAssistant, resp.Response))
	c.logger.Debug("reply received", zap.String("session_id", resp.SessionID))

	return nil
}

// Clear asks for confirmation, then drops every message but the greeting and
// forgets the conversation identifier. The server-side clear is best effort:
// the local clear always happens, and a remote failure is logged, alerted
// and returned. The bool reports whether the user confirmed.
func (c *Controller) Clear(ctx context.Context) (bool, error) {
	if !c.confirm.Confirm(ctx, c.text.ClearConfirm) {
		return false, nil
	}

	c.mu.Lock()
	sessionID, hadSession := c.sessionID, c.hasSession
	c.log.TruncateToFirst()
	c.sink.ClearAllButFirst()
	c.pending = false
	c.sessionID = ""
	c.hasSession = false
	c.epoch++
	c.mu.Unlock()

	if !hadSession {
		return true, nil
	}

	if err := c.backend.Clear(ctx, sessionID); err != nil {
		c.logger.Error("failed to clear server session", zap.String("session_id", sessionID), zap.Error(err))
		c.alert.Alert(c.text.ClearFailed)
		return true, fmt.Errorf("clear session %s: %w", sessionID, err)
	}

	c.logger.Debug("server session cleared", zap.String("session_id", sessionID))
	return true, nil
}

// Resume replaces the log with a server-side transcript and adopts its
// identifier. Nothing changes when the history cannot be fetched.
func (c *Controller) Resume(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return apierrors.ErrEmptySessionID
	}

	c.mu.Lock()
	if c.state == StateSending {
		c.mu.Unlock()
		return ErrBusy
	}
	c.state = StateSending
	c.input.SetEnabled(false)
	epoch := c.epoch
	c.mu.Unlock()

	history, err := c.backend.History(ctx, sessionID)

	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.finishLocked()

	if err != nil {
		return fmt.Errorf("load history for %s: %w", sessionID, err)
	}
	if c.epoch != epoch {
		return nil
	}

	c.log.TruncateToFirst()
	c.sink.ClearAllButFirst()
	for _, msg := range history {
		c.appendLocked(msg)
	}
	c.sessionID = sessionID
	c.hasSession = true

	c.logger.Info("conversation resumed", zap.String("session_id", sessionID), zap.Int("messages", len(history)))
	return nil
}

// Messages returns a snapshot of the log, greeting first
func (c *Controller) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.log.Messages()
}

// LastReply returns the newest assistant message, if any beyond the greeting
func (c *Controller) LastReply() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg, ok := c.log.LastOf(models.RoleAssistant)
	if !ok {
		return "", false
	}
	return msg.Content, true
}

// SessionID returns the conversation identifier and whether one is set
func (c *Controller) SessionID() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID, c.hasSession
}

// State returns the current send state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// InputEnabled reports whether a new message may be submitted
func (c *Controller) InputEnabled() bool {
	return c.State() == StateIdle
}

// Pending reports whether the typing placeholder is shown
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Strings returns the message catalog in use
func (c *Controller) Strings() models.Strings {
	return c.text
}

func (c *Controller) sessionPtrLocked() *string {
	if !c.hasSession {
		return nil
	}
	id := c.sessionID
	return &id
}

func (c *Controller) appendLocked(msg models.Message) {
	c.log.Append(msg)
	c.sink.Append(msg)
}

func (c *Controller) hidePendingLocked() {
	if c.pending {
		c.pending = false
		c.sink.HidePending()
	}
}

func (c *Controller) finishLocked() {
	c.state = StateIdle
	c.input.SetEnabled(true)
}

func (c *Controller) errorMessage(err error) models.Message {
	return models.NewMessage(models.RoleError, ErrorText(c.text, err))
}

// ErrorText is the user-facing text for a failed call: the localized endpoint
// or transport prefix followed by the error's description.
func ErrorText(text models.Strings, err error) string {
	prefix := text.TransportErrorPrefix
	if apierrors.IsEndpointError(err) {
		prefix = text.EndpointErrorPrefix
	}
	return prefix + apierrors.Describe(err)
}
