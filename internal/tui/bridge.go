package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/diogo/lmchat/internal/models"
)

// Messages posted by the Bridge. Update applies them in arrival order.
type (
	appendMsg struct {
		message models.Message
	}
	pendingMsg struct {
		show bool
	}
	clearViewMsg    struct{}
	inputClearMsg   struct{}
	inputEnabledMsg struct {
		enabled bool
	}
	confirmMsg struct {
		prompt string
		reply  chan<- bool
	}
	alertMsg struct {
		text string
	}
)

// Bridge implements the controller's Sink, Input, Confirmer and Alerter by
// posting messages to a bubbletea program. Until a sender is attached every
// call is dropped and Confirm answers no.
type Bridge struct {
	mu   sync.RWMutex
	send func(tea.Msg)
}

// NewBridge returns an unattached Bridge
func NewBridge() *Bridge {
	return &Bridge{}
}

// Attach routes future calls to send, usually (*tea.Program).Send.
func (b *Bridge) Attach(send func(tea.Msg)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.send = send
}

func (b *Bridge) post(msg tea.Msg) bool {
	b.mu.RLock()
	send := b.send
	b.mu.RUnlock()
	if send == nil {
		return false
	}
	send(msg)
	return true
}

func (b *Bridge) Append(msg models.Message) { b.post(appendMsg{message: msg}) }
func (b *Bridge) ShowPending()              { b.post(pendingMsg{show: true}) }
func (b *Bridge) HidePending()              { b.post(pendingMsg{show: false}) }
func (b *Bridge) ClearAllButFirst()         { b.post(clearViewMsg{}) }
func (b *Bridge) Clear()                    { b.post(inputClearMsg{}) }
func (b *Bridge) SetEnabled(enabled bool)   { b.post(inputEnabledMsg{enabled: enabled}) }
func (b *Bridge) Alert(text string)         { b.post(alertMsg{text: text}) }

// Confirm shows a y/n overlay and blocks until it is answered or ctx ends.
func (b *Bridge) Confirm(ctx context.Context, prompt string) bool {
	reply := make(chan bool, 1)
	if !b.post(confirmMsg{prompt: prompt, reply: reply}) {
		return false
	}
	select {
	case ok := <-reply:
		return ok
	case <-ctx.Done():
		return false
	}
}
