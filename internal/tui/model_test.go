package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diogo/lmchat/internal/api"
	"github.com/diogo/lmchat/internal/chat"
	apierrors "github.com/diogo/lmchat/internal/errors"
	"github.com/diogo/lmchat/internal/models"
	"github.com/diogo/lmchat/internal/render"
)

// harness wires a controller to a Bridge whose messages are queued so the
// test can feed them to Update in order
type harness struct {
	t      *testing.T
	client *api.MockClient
	posted chan tea.Msg
	model  Model
	copied []string
}

func newHarness(t *testing.T, client *api.MockClient, opts Options) *harness {
	t.Helper()
	h := &harness{t: t, client: client, posted: make(chan tea.Msg, 64)}

	text := opts.Strings
	if text == (models.Strings{}) {
		text = models.StringsFor("en")
	}

	bridge := NewBridge()
	controller, err := chat.New(chat.Deps{
		Backend:   client,
		Sink:      bridge,
		Input:     bridge,
		Confirmer: bridge,
		Alerter:   bridge,
		Strings:   text,
	})
	require.NoError(t, err)
	bridge.Attach(func(msg tea.Msg) { h.posted <- msg })

	if opts.Markdown == (render.Options{}) {
		opts.Markdown = render.DefaultOptions().WithStyle("notty")
	}
	if opts.MaxInputHeight == 0 {
		opts.MaxInputHeight = 4
	}
	opts.BaseURL = "http://127.0.0.1:5000"

	h.model = NewModel(context.Background(), controller, opts)
	h.model.copyFn = func(s string) error {
		h.copied = append(h.copied, s)
		return nil
	}
	h.update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return h
}

func (h *harness) update(msg tea.Msg) tea.Cmd {
	h.t.Helper()
	updated, cmd := h.model.Update(msg)
	m, ok := updated.(Model)
	require.True(h.t, ok, "Update returned %T, want Model", updated)
	h.model = m
	return cmd
}

// drain applies every message posted so far
func (h *harness) drain() {
	h.t.Helper()
	for {
		select {
		case msg := <-h.posted:
			h.update(msg)
		default:
			return
		}
	}
}

// waitFor applies posted messages until one satisfies match
func (h *harness) waitFor(match func(tea.Msg) bool) {
	h.t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg := <-h.posted:
			h.update(msg)
			if match(msg) {
				return
			}
		case <-deadline:
			h.t.Fatal("expected message was never posted")
		}
	}
}

func (h *harness) typeText(s string) {
	h.model.textarea.SetValue(s)
	h.model.fitInput()
}

func (h *harness) press(k tea.KeyMsg) tea.Cmd {
	return h.update(k)
}

// async runs cmd in the background, the way the bubbletea runtime does
func async(cmd tea.Cmd) <-chan tea.Msg {
	result := make(chan tea.Msg, 1)
	go func() { result <- cmd() }()
	return result
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestNewModelShowsGreeting(t *testing.T) {
	h := newHarness(t, &api.MockClient{}, Options{})

	require.Len(t, h.model.messages, 1)
	assert.True(t, h.model.inputEnabled)
	assert.Contains(t, h.model.View(), "Hello")
}

func TestViewBeforeWindowSize(t *testing.T) {
	c, err := chat.New(chat.Deps{Backend: &api.MockClient{}, Sink: NewBridge()})
	require.NoError(t, err)

	m := NewModel(context.Background(), c, Options{})
	assert.Contains(t, m.View(), "Initializing")
}

func TestSubmitRoundTrip(t *testing.T) {
	client := &api.MockClient{ChatVal: &models.ChatResponse{SessionID: "abc123", Response: "hi there"}}
	h := newHarness(t, client, Options{})

	h.typeText("hello")
	cmd := h.press(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd, "expected a submit command")
	assert.False(t, h.model.inputEnabled, "input should be disabled as soon as Enter is pressed")
	assert.Empty(t, h.model.textarea.Value(), "the sent text leaves the input at once")

	h.typeText("again")
	assert.Nil(t, h.press(tea.KeyMsg{Type: tea.KeyEnter}), "no second send while the first is in flight")

	done := cmd()
	h.drain()
	h.update(done)

	require.Len(t, h.model.messages, 3)
	assert.Equal(t, models.NewMessage(models.RoleUser, "hello"), h.model.messages[1])
	assert.Equal(t, models.NewMessage(models.RoleAssistant, "hi there"), h.model.messages[2])
	assert.False(t, h.model.pending)
	assert.True(t, h.model.inputEnabled)
	assert.Equal(t, "again", h.model.textarea.Value(), "text typed during the send is kept")
	assert.Equal(t, "abc123", h.model.sessionID)
	assert.Contains(t, h.model.View(), "session abc123")

	reqs := client.Requests()
	require.Len(t, reqs, 1)
	assert.Nil(t, reqs[0].SessionID)
}

func TestTypingContinuesWhileReplyPending(t *testing.T) {
	gate := make(chan struct{})
	client := &api.MockClient{
		ChatFunc: func(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
			<-gate
			return &models.ChatResponse{SessionID: "s1", Response: "done"}, nil
		},
	}
	h := newHarness(t, client, Options{})

	h.typeText("first")
	result := async(h.press(tea.KeyMsg{Type: tea.KeyEnter}))

	// the controller's own input clear has been applied once the placeholder shows
	h.waitFor(func(msg tea.Msg) bool {
		p, ok := msg.(pendingMsg)
		return ok && p.show
	})
	require.True(t, h.model.pending)

	h.press(runes("next"))
	assert.Equal(t, "next", h.model.textarea.Value())
	assert.Nil(t, h.press(tea.KeyMsg{Type: tea.KeyEnter}), "Enter stays gated while sending")

	close(gate)
	var done tea.Msg
	select {
	case done = <-result:
	case <-time.After(2 * time.Second):
		t.Fatal("send did not finish")
	}
	h.drain()
	h.update(done)

	assert.Equal(t, "next", h.model.textarea.Value())
	assert.True(t, h.model.inputEnabled)
	assert.Len(t, client.Requests(), 1)
}

func TestBusySubmitRestoresText(t *testing.T) {
	h := newHarness(t, &api.MockClient{}, Options{})
	h.model.inputEnabled = false

	h.update(submitDoneMsg{text: "hello", err: chat.ErrBusy, inputEnabled: true})

	assert.Equal(t, "hello", h.model.textarea.Value())
	assert.True(t, h.model.inputEnabled)
}

func TestEmptyReplyRendersError(t *testing.T) {
	// the zero MockClient answers with neither a reply nor an error
	h := newHarness(t, &api.MockClient{}, Options{})

	h.typeText("hello")
	done := h.press(tea.KeyMsg{Type: tea.KeyEnter})()
	h.drain()
	h.update(done)

	require.Len(t, h.model.messages, 3)
	assert.Equal(t, models.RoleError, h.model.messages[2].Role)
	assert.True(t, strings.HasPrefix(h.model.messages[2].Content, "Connection error: "))
	assert.True(t, h.model.inputEnabled)
}

func TestPendingPlaceholder(t *testing.T) {
	h := newHarness(t, &api.MockClient{}, Options{})

	assert.NotNil(t, h.update(pendingMsg{show: true}), "showing the placeholder should start the spinner")
	assert.Contains(t, h.model.viewport.View(), "Typing")

	h.update(pendingMsg{show: false})
	assert.NotContains(t, h.model.viewport.View(), "Typing")
}

func TestErrorMessageRendered(t *testing.T) {
	h := newHarness(t, &api.MockClient{}, Options{})

	h.update(appendMsg{message: models.NewMessage(models.RoleError, "Error: rate limited")})
	assert.Contains(t, h.model.viewport.View(), "rate limited")
}

func TestChannelMarkersStripped(t *testing.T) {
	h := newHarness(t, &api.MockClient{}, Options{})

	h.update(appendMsg{message: models.NewMessage(models.RoleAssistant, "<|channel|>final<|message|>clean answer")})
	view := h.model.viewport.View()
	assert.NotContains(t, view, "<|")
	assert.Contains(t, view, "clean answer")
}

func TestInputGrowsWithContent(t *testing.T) {
	h := newHarness(t, &api.MockClient{}, Options{MaxInputHeight: 3})

	require.Equal(t, 1, h.model.textarea.Height())
	vpBefore := h.model.viewport.Height

	h.typeText("a\nb")
	assert.Equal(t, 2, h.model.textarea.Height())
	assert.Equal(t, vpBefore-1, h.model.viewport.Height, "viewport should shrink with the input")

	h.typeText("a\nb\nc\nd\ne")
	assert.Equal(t, 3, h.model.textarea.Height(), "height is capped")

	h.update(inputClearMsg{})
	assert.Equal(t, 1, h.model.textarea.Height(), "clear shrinks the input back")
}

func TestAltEnterInsertsNewline(t *testing.T) {
	h := newHarness(t, &api.MockClient{}, Options{})

	h.typeText("line one")
	h.press(tea.KeyMsg{Type: tea.KeyEnter, Alt: true})
	h.press(tea.KeyMsg{Type: tea.KeyCtrlJ})

	assert.Equal(t, 2, strings.Count(h.model.textarea.Value(), "\n"))
	assert.True(t, h.model.inputEnabled, "inserting a newline must not submit")
	assert.Equal(t, 3, h.model.textarea.Height())
}

func TestExitCommands(t *testing.T) {
	for _, input := range []string{"/exit", "/quit", "  /quit  "} {
		h := newHarness(t, &api.MockClient{}, Options{})
		h.typeText(input)
		assert.True(t, isQuit(h.press(tea.KeyMsg{Type: tea.KeyEnter})), "%q should quit", input)
		assert.Empty(t, h.client.Requests(), "%q should not be sent", input)
	}
}

func TestQuitKeys(t *testing.T) {
	for _, k := range []tea.KeyMsg{{Type: tea.KeyCtrlC}, {Type: tea.KeyEscape}} {
		h := newHarness(t, &api.MockClient{}, Options{})
		assert.True(t, isQuit(h.press(k)), "%s should quit", k.String())
	}
}

func TestBlankEnterDoesNothing(t *testing.T) {
	h := newHarness(t, &api.MockClient{}, Options{})
	h.typeText("   ")
	assert.Nil(t, h.press(tea.KeyMsg{Type: tea.KeyEnter}))
	assert.True(t, h.model.inputEnabled)
}

// clearFlow starts a clear and returns once the confirmation overlay is up
func clearFlow(t *testing.T, h *harness) <-chan tea.Msg {
	t.Helper()
	cmd := h.press(tea.KeyMsg{Type: tea.KeyCtrlL})
	require.NotNil(t, cmd, "expected a clear command")
	result := async(cmd)

	h.waitFor(func(msg tea.Msg) bool {
		_, ok := msg.(confirmMsg)
		return ok
	})
	require.NotNil(t, h.model.confirm, "confirmation overlay should be shown")
	assert.Contains(t, h.model.View(), "Clear the conversation history?")
	return result
}

func waitResult(t *testing.T, result <-chan tea.Msg) tea.Msg {
	t.Helper()
	select {
	case msg := <-result:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("clear did not finish")
		return nil
	}
}

// exchange sends one message and applies its outcome
func exchange(h *harness, text string) {
	h.typeText(text)
	done := h.press(tea.KeyMsg{Type: tea.KeyEnter})()
	h.drain()
	h.update(done)
}

func TestClearConfirmed(t *testing.T) {
	client := &api.MockClient{ChatVal: &models.ChatResponse{SessionID: "abc123", Response: "hi"}}
	h := newHarness(t, client, Options{})
	exchange(h, "hello")

	result := clearFlow(t, h)
	h.press(runes("y"))
	msg := waitResult(t, result)
	h.drain()
	h.update(msg)

	assert.Nil(t, h.model.confirm)
	assert.Len(t, h.model.messages, 1)
	assert.Empty(t, h.model.sessionID)
	assert.Equal(t, []string{"abc123"}, client.ClearedIDs)
	assert.False(t, h.model.clearing)
}

func TestClearDeclined(t *testing.T) {
	client := &api.MockClient{ChatVal: &models.ChatResponse{SessionID: "abc123", Response: "hi"}}
	h := newHarness(t, client, Options{})
	exchange(h, "hello")

	result := clearFlow(t, h)
	h.press(runes("n"))
	h.update(waitResult(t, result))
	h.drain()

	assert.Len(t, h.model.messages, 3)
	assert.Equal(t, "abc123", h.model.sessionID)
	assert.Empty(t, client.ClearedIDs)
}

func TestClearIgnoredWhileOneIsRunning(t *testing.T) {
	client := &api.MockClient{ChatVal: &models.ChatResponse{SessionID: "abc123", Response: "hi"}}
	h := newHarness(t, client, Options{})
	exchange(h, "hello")

	first := h.press(tea.KeyMsg{Type: tea.KeyCtrlL})
	require.NotNil(t, first)

	// pressed again before the overlay arrives
	assert.Nil(t, h.press(tea.KeyMsg{Type: tea.KeyCtrlL}))
	h.typeText("/clear")
	assert.Nil(t, h.press(tea.KeyMsg{Type: tea.KeyEnter}))

	result := async(first)
	h.waitFor(func(msg tea.Msg) bool {
		_, ok := msg.(confirmMsg)
		return ok
	})
	h.press(runes("y"))
	msg := waitResult(t, result)
	h.drain()
	h.update(msg)

	assert.Equal(t, []string{"abc123"}, client.ClearedIDs)
	assert.False(t, h.model.clearing)
	assert.NotNil(t, h.press(tea.KeyMsg{Type: tea.KeyCtrlL}), "a new clear can start once the first is done")
}

func TestSecondConfirmationIsDeclined(t *testing.T) {
	h := newHarness(t, &api.MockClient{}, Options{})

	first := make(chan bool, 1)
	second := make(chan bool, 1)
	h.update(confirmMsg{prompt: "first?", reply: first})
	h.update(confirmMsg{prompt: "second?", reply: second})

	select {
	case ok := <-second:
		assert.False(t, ok)
	default:
		t.Fatal("the second request must be answered at once")
	}
	require.NotNil(t, h.model.confirm)
	assert.Equal(t, "first?", h.model.confirm.prompt)

	h.press(runes("y"))
	assert.True(t, <-first)
	assert.Nil(t, h.model.confirm)
}

func TestClearFailureShowsAlert(t *testing.T) {
	client := &api.MockClient{
		ChatVal:  &models.ChatResponse{SessionID: "abc123", Response: "hi"},
		ClearErr: errors.New("network down"),
	}
	h := newHarness(t, client, Options{})
	exchange(h, "hello")

	result := clearFlow(t, h)
	h.press(runes("y"))
	msg := waitResult(t, result)
	h.drain()
	h.update(msg)

	assert.Len(t, h.model.messages, 1, "local clear still happens")
	assert.Equal(t, "Failed to clear the chat.", h.model.alert)
	assert.Contains(t, h.model.View(), "Failed to clear the chat.")

	// keys other than acknowledgement are swallowed by the alert
	h.typeText("")
	h.press(runes("x"))
	assert.Empty(t, h.model.textarea.Value())

	h.press(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, h.model.alert, "enter dismisses the alert")
}

func TestSlashClearStartsClear(t *testing.T) {
	h := newHarness(t, &api.MockClient{}, Options{})
	h.typeText("/clear")

	cmd := h.press(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd, "expected a clear command")
	assert.Empty(t, h.model.textarea.Value(), "the command text is removed from the input")

	result := async(cmd)
	h.waitFor(func(msg tea.Msg) bool {
		_, ok := msg.(confirmMsg)
		return ok
	})
	h.press(tea.KeyMsg{Type: tea.KeyEscape})
	assert.IsType(t, clearDoneMsg{}, waitResult(t, result))
}

func TestCopyLastReply(t *testing.T) {
	h := newHarness(t, &api.MockClient{}, Options{})

	h.press(tea.KeyMsg{Type: tea.KeyCtrlY})
	assert.Equal(t, "No reply to copy yet", h.model.flash)

	h.update(appendMsg{message: models.NewMessage(models.RoleUser, "q")})
	h.update(appendMsg{message: models.NewMessage(models.RoleAssistant, "<|message|>first")})
	h.update(appendMsg{message: models.NewMessage(models.RoleError, "Error: boom")})

	cmd := h.press(tea.KeyMsg{Type: tea.KeyCtrlY})
	require.NotNil(t, cmd, "expected a copy command")
	h.update(cmd())

	assert.Equal(t, []string{"first"}, h.copied)
	assert.Equal(t, "Copied reply to clipboard", h.model.flash)
}

func TestCopyNoticesAreLocalized(t *testing.T) {
	h := newHarness(t, &api.MockClient{}, Options{Strings: models.StringsFor("ja")})

	h.press(tea.KeyMsg{Type: tea.KeyCtrlY})
	assert.Equal(t, "コピーできる返信はまだありません", h.model.flash)

	h.model.copyFn = func(string) error { return errors.New("no display") }
	h.update(appendMsg{message: models.NewMessage(models.RoleAssistant, "答え")})
	cmd := h.press(tea.KeyMsg{Type: tea.KeyCtrlY})
	require.NotNil(t, cmd)
	h.update(cmd())

	assert.Equal(t, "コピーに失敗しました: no display", h.model.flash)
}

func TestAutoCopy(t *testing.T) {
	h := newHarness(t, &api.MockClient{}, Options{AutoCopy: true})

	cmd := h.update(appendMsg{message: models.NewMessage(models.RoleAssistant, "auto")})
	require.NotNil(t, cmd, "expected a copy command")

	// tea.Batch of a single command returns it unchanged
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			if c != nil {
				h.update(c())
			}
		}
	} else {
		h.update(msg)
	}

	assert.Equal(t, []string{"auto"}, h.copied)
}

func TestResumeOnStart(t *testing.T) {
	client := &api.MockClient{HistoryVal: []models.Message{
		models.NewMessage(models.RoleUser, "earlier question"),
		models.NewMessage(models.RoleAssistant, "earlier answer"),
	}}
	h := newHarness(t, client, Options{ResumeID: "abc123"})

	done := h.model.resumeCmd("abc123")()
	h.drain()
	h.update(done)

	assert.Len(t, h.model.messages, 3, "greeting plus history")
	assert.Equal(t, "abc123", h.model.sessionID)
}

func TestResumeFailureAlerts(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want string
	}{
		{"endpoint", apierrors.NewEndpointError(404, models.HistoryPath("missing"), "not found"), "Error: not found"},
		{"transport", apierrors.NewTransportError(models.HistoryPath("missing"), errors.New("connection refused")), "Connection error: connection refused"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, &api.MockClient{HistoryErr: tc.err}, Options{})

			done := h.model.resumeCmd("missing")()
			h.drain()
			h.update(done)

			assert.Equal(t, tc.want, h.model.alert)
			assert.Empty(t, h.model.sessionID, "failed resume must not set a session")
		})
	}
}
