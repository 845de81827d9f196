package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/diogo/lmchat/internal/chat"
	"github.com/diogo/lmchat/internal/logging"
	"github.com/diogo/lmchat/internal/models"
	"github.com/diogo/lmchat/internal/render"
)

// Results of controller calls made from commands
type (
	submitDoneMsg struct {
		text         string
		err          error
		sessionID    string
		inputEnabled bool
	}
	clearDoneMsg struct {
		confirmed bool
		err       error
	}
	resumeDoneMsg struct {
		err       error
		sessionID string
	}
	copiedMsg struct {
		err error
	}
)

// Options configures the chat screen
type Options struct {
	Strings models.Strings
	BaseURL string
	// ResumeID, when set, loads that conversation on start.
	ResumeID       string
	MaxInputHeight int
	// AutoCopy copies every assistant reply to the clipboard.
	AutoCopy bool
	Markdown render.Options
	Logger   *zap.Logger
}

// Model is the bubbletea model of the chat screen. Controller calls run in
// commands; Update only applies the messages the Bridge posts and never
// calls into the controller.
type Model struct {
	controller *chat.Controller
	ctx        context.Context
	text       models.Strings
	baseURL    string
	resumeID   string
	maxInput   int
	autoCopy   bool
	markdown   render.Options
	copyFn     func(string) error
	logger     *zap.Logger

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// State
	messages     []models.Message
	rendered     []string
	pending      bool
	inputEnabled bool
	// input clears the controller will post for sends whose text the model
	// already took out of the textarea
	skipInputClears int
	confirm         *confirmMsg
	clearing        bool
	alert           string
	flash           string
	sessionID       string
	ready           bool

	width  int
	height int
}

// NewModel creates the chat model around a controller whose Sink and Input
// are a Bridge attached to the running program.
func NewModel(ctx context.Context, controller *chat.Controller, opts Options) Model {
	text := controller.Strings()

	maxInput := opts.MaxInputHeight
	if maxInput < 1 {
		maxInput = 1
	}
	if opts.Markdown == (render.Options{}) {
		opts.Markdown = render.DefaultOptions()
	}

	ta := textarea.New()
	ta.Placeholder = text.InputPlaceholder
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"))
	ta.SetHeight(1)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Ellipsis
	s.Style = pendingStyle

	m := Model{
		controller:   controller,
		ctx:          ctx,
		text:         text,
		baseURL:      opts.BaseURL,
		resumeID:     opts.ResumeID,
		maxInput:     maxInput,
		autoCopy:     opts.AutoCopy,
		markdown:     opts.Markdown,
		copyFn:       clipboard.WriteAll,
		logger:       logging.OrNop(opts.Logger).Named("tui"),
		textarea:     ta,
		spinner:      s,
		inputEnabled: true,
	}
	if id, ok := controller.SessionID(); ok {
		m.sessionID = id
	}
	for _, msg := range controller.Messages() {
		m.messages = append(m.messages, msg)
		m.rendered = append(m.rendered, m.renderMessage(msg))
	}
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink}
	if m.resumeID != "" {
		cmds = append(cmds, m.resumeCmd(m.resumeID))
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(0, 0)
			m.ready = true
		}
		m.layout()
		m.rerender()
		m.viewport.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		m.flash = ""
		if m.confirm != nil {
			return m.updateConfirm(msg)
		}
		if m.alert != "" {
			return m.updateAlert(msg)
		}

		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "ctrl+l":
			return m.startClear()
		case "ctrl+y":
			return m.copyLastReply()
		case "enter":
			return m.submit()
		case "pgup", "pgdown":
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

		// typing continues while a reply is pending; only Enter is gated
		m.textarea, cmd = m.textarea.Update(msg)
		m.fitInput()
		cmds = append(cmds, cmd)

	case tea.MouseMsg:
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)

	case appendMsg:
		m.messages = append(m.messages, msg.message)
		m.rendered = append(m.rendered, m.renderMessage(msg.message))
		m.refresh()
		if m.autoCopy && msg.message.Role == models.RoleAssistant {
			cmds = append(cmds, m.copyCmd(render.CleanResponse(msg.message.Content)))
		}

	case pendingMsg:
		m.pending = msg.show
		m.refresh()
		if msg.show {
			cmds = append(cmds, m.spinner.Tick)
		}

	case clearViewMsg:
		if len(m.messages) > 1 {
			m.messages = m.messages[:1]
			m.rendered = m.rendered[:1]
		}
		m.pending = false
		m.refresh()

	case inputClearMsg:
		if m.skipInputClears > 0 {
			m.skipInputClears--
			break
		}
		m.textarea.Reset()
		m.fitInput()

	case inputEnabledMsg:
		m.inputEnabled = msg.enabled

	case confirmMsg:
		if m.confirm != nil {
			// one overlay at a time; a second request is declined
			msg.reply <- false
			break
		}
		c := msg
		m.confirm = &c

	case alertMsg:
		m.alert = msg.text

	case submitDoneMsg:
		m.skipInputClears = 0
		if errors.Is(msg.err, chat.ErrBusy) {
			// nothing was sent; give the text back
			m.inputEnabled = msg.inputEnabled
			if m.textarea.Value() == "" {
				m.textarea.SetValue(msg.text)
				m.fitInput()
			}
		} else if msg.err != nil {
			m.logger.Warn("submit failed", zap.Error(msg.err))
		}
		m.sessionID = msg.sessionID

	case clearDoneMsg:
		m.clearing = false
		if msg.confirmed {
			m.sessionID = ""
		}
		if msg.err != nil {
			m.logger.Warn("clear failed", zap.Error(msg.err))
		}

	case resumeDoneMsg:
		if msg.err != nil {
			m.alert = chat.ErrorText(m.text, msg.err)
			break
		}
		m.sessionID = msg.sessionID

	case copiedMsg:
		if msg.err != nil {
			m.flash = m.text.CopyFailed + msg.err.Error()
		} else {
			m.flash = m.text.CopyDone
		}

	case spinner.TickMsg:
		if m.pending {
			m.spinner, cmd = m.spinner.Update(msg)
			m.refresh()
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.answer(true)
	case "n", "N", "esc":
		m.answer(false)
	case "ctrl+c":
		m.answer(false)
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) answer(ok bool) {
	m.confirm.reply <- ok
	m.confirm = nil
}

func (m Model) updateAlert(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc", " ":
		m.alert = ""
	case "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

// submit handles Enter: local commands first, then a controller send
func (m Model) submit() (tea.Model, tea.Cmd) {
	if !m.inputEnabled {
		return m, nil
	}

	text := strings.TrimSpace(m.textarea.Value())
	switch text {
	case "":
		return m, nil
	case "/exit", "/quit":
		return m, tea.Quit
	case "/clear":
		m.textarea.Reset()
		m.fitInput()
		return m.startClear()
	}

	// the controller disables input too; doing it here keeps a fast second
	// Enter from reaching it. The textarea is emptied now so the next message
	// can be typed while this one is in flight.
	value := m.textarea.Value()
	m.inputEnabled = false
	m.textarea.Reset()
	m.fitInput()
	m.skipInputClears++
	return m, m.submitCmd(value)
}

func (m Model) submitCmd(text string) tea.Cmd {
	ctrl, ctx := m.controller, m.ctx
	return func() tea.Msg {
		err := ctrl.Submit(ctx, text)
		id, _ := ctrl.SessionID()
		return submitDoneMsg{text: text, err: err, sessionID: id, inputEnabled: ctrl.InputEnabled()}
	}
}

// startClear runs a clear unless one is already waiting for its answer
func (m Model) startClear() (tea.Model, tea.Cmd) {
	if m.clearing {
		return m, nil
	}
	m.clearing = true
	return m, m.clearCmd()
}

func (m Model) clearCmd() tea.Cmd {
	ctrl, ctx := m.controller, m.ctx
	return func() tea.Msg {
		confirmed, err := ctrl.Clear(ctx)
		return clearDoneMsg{confirmed: confirmed, err: err}
	}
}

func (m Model) resumeCmd(id string) tea.Cmd {
	ctrl, ctx := m.controller, m.ctx
	return func() tea.Msg {
		err := ctrl.Resume(ctx, id)
		sid, _ := ctrl.SessionID()
		return resumeDoneMsg{err: err, sessionID: sid}
	}
}

func (m Model) copyCmd(text string) tea.Cmd {
	copyFn := m.copyFn
	return func() tea.Msg {
		return copiedMsg{err: copyFn(text)}
	}
}

func (m Model) copyLastReply() (tea.Model, tea.Cmd) {
	for i := len(m.messages) - 1; i >= 1; i-- {
		if m.messages[i].Role == models.RoleAssistant {
			return m, m.copyCmd(render.CleanResponse(m.messages[i].Content))
		}
	}
	m.flash = m.text.NothingToCopy
	return m, nil
}

// fitInput grows or shrinks the textarea to its line count, capped at the
// configured maximum
func (m *Model) fitInput() {
	h := m.textarea.LineCount()
	if h < 1 {
		h = 1
	}
	if h > m.maxInput {
		h = m.maxInput
	}
	if h != m.textarea.Height() {
		m.textarea.SetHeight(h)
		m.layout()
	}
}

// layout sizes the viewport and textarea from the window and input height
func (m *Model) layout() {
	if !m.ready {
		return
	}
	contentWidth := m.width - 2

	headerHeight := 3
	inputHeight := m.textarea.Height() + 3
	statusHeight := 1
	frame := 2

	vpHeight := m.height - headerHeight - inputHeight - statusHeight - frame
	if vpHeight < 3 {
		vpHeight = 3
	}

	m.viewport.Width = contentWidth - 2
	m.viewport.Height = vpHeight
	m.textarea.SetWidth(contentWidth - 2)
}

func (m *Model) bubbleWidth() int {
	w := m.viewport.Width - 6
	if w < 20 {
		w = 20
	}
	return w
}

func (m *Model) renderMessage(msg models.Message) string {
	width := m.bubbleWidth()

	switch msg.Role {
	case models.RoleUser:
		return userLabelStyle.Render("You") + "\n" +
			userBubbleStyle.Width(width).Render(msg.Content)
	case models.RoleError:
		return errorLabelStyle.Render("Error") + "\n" +
			errorBubbleStyle.Width(width).Render(msg.Content)
	default:
		body := render.Reply(msg.Content, m.markdown.WithWidth(width-4))
		return assistantLabelStyle.Render("Assistant") + "\n" +
			assistantBubbleStyle.Width(width).Render(body)
	}
}

// rerender rebuilds every entry, e.g. after a resize
func (m *Model) rerender() {
	m.rendered = m.rendered[:0]
	for _, msg := range m.messages {
		m.rendered = append(m.rendered, m.renderMessage(msg))
	}
	m.refresh()
}

// refresh sets the viewport content and keeps the newest entry in view
func (m *Model) refresh() {
	var content strings.Builder
	for i, r := range m.rendered {
		if i > 0 {
			content.WriteString("\n")
		}
		content.WriteString(r)
		content.WriteString("\n")
	}
	if m.pending {
		content.WriteString("\n")
		content.WriteString(m.pendingView())
		content.WriteString("\n")
	}
	m.viewport.SetContent(content.String())
	m.viewport.GotoBottom()
}

func (m Model) pendingView() string {
	return pendingStyle.Render(m.text.Typing) + m.spinner.View()
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return pendingStyle.Render("  Initializing...")
	}

	contentWidth := m.width - 2
	var sections []string

	headerParts := []string{
		titleStyle.Render("lmchat"),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(m.baseURL),
	}
	if m.sessionID != "" {
		headerParts = append(headerParts,
			hintStyle.Render("  •  "),
			subtitleStyle.Render("session "+m.sessionID),
		)
	}
	header := headerStyle.Width(contentWidth).
		Render(lipgloss.JoinHorizontal(lipgloss.Center, headerParts...))
	sections = append(sections, header)

	messages := messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(m.viewport.View())
	sections = append(sections, messages)

	switch {
	case m.confirm != nil:
		body := m.confirm.prompt + "\n" +
			statusKeyStyle.Render("y") + statusDescStyle.Render(" yes  ") +
			statusKeyStyle.Render("n") + statusDescStyle.Render(" no")
		sections = append(sections, confirmStyle.Width(contentWidth).Render(body))
	case m.alert != "":
		body := m.alert + "\n" + statusDescStyle.Render("press enter to continue")
		sections = append(sections, alertStyle.Width(contentWidth).Render(body))
	default:
		input := lipgloss.JoinVertical(
			lipgloss.Left,
			inputLabelStyle.Render("You"),
			m.textarea.View(),
		)
		sections = append(sections, inputPanelStyle.Width(contentWidth).Render(input))
	}

	sections = append(sections, m.renderStatusBar(contentWidth))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderStatusBar renders the bottom status bar with shortcuts
func (m Model) renderStatusBar(width int) string {
	if m.flash != "" {
		return statusBarStyle.Width(width).Align(lipgloss.Center).Render(flashStyle.Render(m.flash))
	}

	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"Alt+Enter", "Newline"},
		{"Ctrl+L", "Clear"},
		{"Ctrl+Y", "Copy"},
		{"Esc", "Quit"},
	}

	var items []string
	for _, s := range shortcuts {
		items = append(items, statusKeyStyle.Render(s.key)+statusDescStyle.Render(" "+s.desc))
	}

	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(strings.Join(items, "  │  "))
}

// Run starts the chat screen against backend and blocks until the user
// quits.
func Run(ctx context.Context, backend chat.Backend, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	bridge := NewBridge()
	controller, err := chat.New(chat.Deps{
		Backend:   backend,
		Sink:      bridge,
		Input:     bridge,
		Confirmer: bridge,
		Alerter:   bridge,
		Strings:   opts.Strings,
		Logger:    opts.Logger,
	})
	if err != nil {
		return err
	}

	p := tea.NewProgram(
		NewModel(ctx, controller, opts),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	bridge.Attach(p.Send)

	_, err = p.Run()
	return err
}
