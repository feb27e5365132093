// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/chatptq/internal/commands"
	"github.com/jeranaias/chatptq/internal/config"
	"github.com/jeranaias/chatptq/internal/logging"
	"github.com/jeranaias/chatptq/internal/model"
	"github.com/jeranaias/chatptq/internal/session"
	"github.com/jeranaias/chatptq/internal/ui/styles"
)

const (
	// ScrollCoalesce is how long transcript changes are collected before the
	// view scrolls to the newest entry.
	ScrollCoalesce = 200 * time.Millisecond

	// StatusTTL is how long a status message stays visible.
	StatusTTL = 4 * time.Second

	inputHeight = 3
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	theme  *styles.Theme
	keys   KeyMap
	logger *zap.Logger
	ctx    context.Context

	// Collaborators
	session    *session.Session
	store      *config.Store
	registry   *commands.Registry
	parser     *commands.Parser
	completer  *commands.Completer
	completion *commands.CompletionState
	events     *bridge
	copyFn     func(string) error
	now        func() time.Time

	// Components
	input    textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	md       *markdown
	hold     *HoldTracker

	// Dimensions
	width  int
	height int

	// State mirrored from events
	convs   []model.Conversation
	sending bool
	cfg     config.AppConfig

	// Transient UI state
	overlay    string
	status     string
	statusErr  bool
	statusSeq  int
	scrollSeq  int
	followTail bool
}

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Model) { m.logger = l }
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(fn func(string) error) Option {
	return func(m *Model) { m.copyFn = fn }
}

// WithClock replaces the clock used for long press detection.
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// WithContext sets the context that session requests are started with.
func WithContext(ctx context.Context) Option {
	return func(m *Model) { m.ctx = ctx }
}

// New creates the chat view and subscribes it to the session and the
// config store. The session's listener is replaced.
func New(theme *styles.Theme, sess *session.Session, store *config.Store, opts ...Option) Model {
	registry := commands.NewRegistry()

	m := Model{
		theme:      theme,
		keys:       DefaultKeyMap(),
		logger:     zap.NewNop(),
		ctx:        context.Background(),
		session:    sess,
		store:      store,
		registry:   registry,
		parser:     commands.NewParser(registry),
		completer:  commands.NewCompleter(registry),
		completion: commands.NewCompletionState(),
		events:     newBridge(),
		copyFn:     clipboard.WriteAll,
		now:        time.Now,
		md:         newMarkdown(theme.GlamourStyle()),
		cfg:        store.Current(),
		convs:      sess.Conversations(),
		sending:    sess.Submitting(),
		followTail: true,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.logger = logging.OrNop(m.logger)
	m.hold = NewHoldTracker(time.Duration(m.cfg.FastSendLongPressMS)*time.Millisecond, DefaultRepeatGap)
	m.completer.EntriesFn = sess.Len

	ta := textarea.New()
	ta.Prompt = "┃ "
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(inputHeight)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Placeholder = placeholder(m.cfg)
	ta.Focus()
	m.input = ta

	m.viewport = viewport.New(80, 20)
	m.viewport.KeyMap = viewport.KeyMap{}

	m.spinner = spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(theme.Spinner))

	events := m.events
	sess.SetListener(events.sessionListener())
	store.Subscribe(func(cfg config.AppConfig) {
		events.send(ConfigMsg{Config: cfg})
	})

	m.refresh()
	return m
}

// Notify shows text in the status line from any goroutine.
func (m Model) Notify(text string) {
	m.events.send(NotifyMsg{Text: text})
}

// Close stops event delivery. Pending session callbacks return immediately.
func (m Model) Close() {
	m.events.close()
}

// Init starts cursor blink and event delivery.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, m.events.listen()}
	if m.sending {
		cmds = append(cmds, m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		m.followTail = m.viewport.AtBottom()
		return m, cmd

	case TranscriptMsg:
		return m.handleTranscript(msg)

	case SendingMsg:
		m.sending = msg.Sending
		cmds := []tea.Cmd{m.events.listen()}
		if msg.Sending {
			cmds = append(cmds, m.spinner.Tick)
		}
		return m, tea.Batch(cmds...)

	case NotifyMsg:
		cmd := m.setStatus(msg.Text, true)
		return m, tea.Batch(cmd, m.events.listen())

	case ConfigMsg:
		return m.handleConfig(msg)

	case scrollFlushMsg:
		if msg.seq == m.scrollSeq && m.followTail && m.overlay == "" {
			m.viewport.GotoBottom()
		}
		return m, nil

	case statusExpiredMsg:
		if msg.seq == m.statusSeq {
			m.status, m.statusErr = "", false
		}
		return m, nil

	case spinner.TickMsg:
		if !m.sending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	// header (1) + input border (1) + input + status bar (1)
	const chrome = 3
	vpHeight := m.height - chrome - inputHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = max(m.width, 1)
	m.viewport.Height = vpHeight
	m.input.SetWidth(max(m.width-2, 10))

	m.refresh()
	if m.followTail && m.overlay == "" {
		m.viewport.GotoBottom()
	}
	return m, nil
}

func (m Model) handleTranscript(msg TranscriptMsg) (tea.Model, tea.Cmd) {
	m.convs = msg.Conversations
	m.refresh()

	m.scrollSeq++
	seq := m.scrollSeq
	flush := tea.Tick(ScrollCoalesce, func(time.Time) tea.Msg {
		return scrollFlushMsg{seq: seq}
	})
	return m, tea.Batch(flush, m.events.listen())
}

func (m Model) handleConfig(msg ConfigMsg) (tea.Model, tea.Cmd) {
	m.cfg = msg.Config
	m.hold.SetThreshold(time.Duration(m.cfg.FastSendLongPressMS) * time.Millisecond)
	m.input.Placeholder = placeholder(m.cfg)
	m.refresh()
	return m, m.events.listen()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keyStr := msg.String()

	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	// Overlay has priority: it only scrolls and closes.
	if m.overlay != "" {
		switch {
		case key.Matches(msg, m.keys.Close), keyStr == "enter", keyStr == "q":
			m.overlay = ""
			m.refresh()
			m.viewport.GotoBottom()
			m.followTail = true
			return m, nil
		}
		m.scroll(msg)
		return m, nil
	}

	if m.completion.Visible {
		switch {
		case key.Matches(msg, m.keys.Complete):
			m.completion.Next()
			return m, nil
		case key.Matches(msg, m.keys.Prev):
			m.completion.Prev()
			return m, nil
		case keyStr == "enter":
			m.acceptCompletion()
			return m, nil
		case key.Matches(msg, m.keys.Close):
			m.completion.Clear()
			return m, nil
		}
		m.completion.Clear()
	}

	switch {
	case key.Matches(msg, m.keys.Complete):
		m.startCompletion()
		return m, nil
	case key.Matches(msg, m.keys.Help):
		return m.handleIntent(commands.Help{}, "")
	case key.Matches(msg, m.keys.Copy):
		return m.handleIntent(commands.Copy{Index: commands.LastEntry}, "")
	case key.Matches(msg, m.keys.Clear):
		return m.handleIntent(commands.Clear{}, "")
	case m.scroll(msg):
		return m, nil
	}

	action := ResolveKey(m.cfg.FastSendMode, keyStr)
	if action == KeyHold {
		action = m.hold.Press(m.now())
	} else {
		m.hold.Reset()
	}

	switch action {
	case KeySubmit:
		return m.submitInput()
	case KeyNewline:
		m.input.InsertString("\n")
		return m, nil
	case KeySwallow:
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// scroll applies a transcript navigation key and reports whether msg was one.
func (m *Model) scroll(msg tea.KeyMsg) bool {
	switch {
	case key.Matches(msg, m.keys.LineUp):
		m.viewport.LineUp(1)
	case key.Matches(msg, m.keys.LineDown):
		m.viewport.LineDown(1)
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
	default:
		return false
	}
	if m.overlay == "" {
		m.followTail = m.viewport.AtBottom()
	}
	return true
}

// =============================================================================
// INTENTS
// =============================================================================

// submitInput parses the input box and acts on the resulting intent.
func (m Model) submitInput() (tea.Model, tea.Cmd) {
	raw := m.input.Value()
	intent, err := m.parser.Intent(raw)
	if err != nil {
		return m, m.setStatus(err.Error(), true)
	}
	return m.handleIntent(intent, raw)
}

func (m Model) handleIntent(intent commands.Intent, raw string) (tea.Model, tea.Cmd) {
	switch in := intent.(type) {
	case commands.Submit:
		if m.session.Submitting() {
			return m, nil
		}
		if err := m.session.Submit(m.ctx, in.Text); err != nil {
			// The session already notified; keep the input for editing.
			return m, nil
		}
		m.input.Reset()
		m.followTail = true
		return m, nil

	case commands.TranslateInput:
		if strings.TrimSpace(in.Text) == "" {
			return m, m.setStatus("Enter text to translate", true)
		}
		return m.handleIntent(commands.Submit{Text: session.TranslatePrompt(in.Text, in.Lang)}, raw)

	case commands.Retranslate:
		if m.session.Submitting() {
			return m, nil
		}
		index, _ := commands.ResolveIndex(in.Index, len(m.convs))
		if err := m.session.Retranslate(m.ctx, index, in.Lang); err != nil {
			return m, nil
		}
		m.input.Reset()
		m.followTail = true
		return m, nil

	case commands.Clear:
		m.session.Clear()
		m.input.Reset()
		m.followTail = true
		return m, m.setStatus("Conversation cleared", false)

	case commands.Copy:
		m.input.Reset()
		return m, m.copyEntry(in.Index)

	case commands.UpdateConfig:
		if err := m.store.Set(in.Key, in.Value); err != nil {
			m.logger.Warn("config update failed", zap.String("key", in.Key), zap.Error(err))
			return m, m.setStatus(configErrorText(err), true)
		}
		m.input.Reset()
		return m, m.setStatus("Updated "+in.Key, false)

	case commands.ShowConfig:
		text, err := m.configText(in.Key)
		if err != nil {
			return m, m.setStatus(err.Error(), true)
		}
		m.input.Reset()
		m.showOverlay(text)
		return m, nil

	case commands.Help:
		text, err := m.registry.HelpText(in.Topic)
		if err != nil {
			return m, m.setStatus(err.Error(), true)
		}
		if in.Topic == "" {
			text += "\n" + keyHelpText(m.keys)
		}
		m.input.Reset()
		m.showOverlay(text)
		return m, nil

	case commands.Quit:
		return m, tea.Quit
	}

	m.logger.Warn("unhandled intent", zap.String("type", fmt.Sprintf("%T", intent)))
	return m, nil
}

func (m *Model) copyEntry(index int) tea.Cmd {
	if index == commands.LastEntry {
		index = lastAssistant(m.convs)
	}
	i, ok := commands.ResolveIndex(index, len(m.convs))
	if !ok {
		return m.setStatus("Nothing to copy", true)
	}
	content := m.convs[i].Message.Content
	if err := m.copyFn(content); err != nil {
		m.logger.Warn("clipboard write failed", zap.Error(err))
		return m.setStatus("Failed to copy: "+err.Error(), true)
	}
	return m.setStatus(fmt.Sprintf("Copied entry %d (%d chars)", i+1, len([]rune(content))), false)
}

func (m *Model) configText(key string) (string, error) {
	cfg := m.store.Current().Redacted()
	if key != "" {
		v, err := cfg.Get(key)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("`%s` = `%s`", key, v), nil
	}

	path, _ := m.store.Path()
	data, err := config.Encode(cfg, path)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("### Configuration\n\n`%s`\n\n```toml\n%s```\n", path, data), nil
}

// =============================================================================
// COMPLETION
// =============================================================================

func (m *Model) startCompletion() {
	value := m.input.Value()
	completions := m.completer.Complete(value, len(value))
	switch len(completions) {
	case 0:
		return
	case 1:
		m.input.SetValue(applyCompletion(value, completions[0].Value))
		m.input.CursorEnd()
	default:
		m.completion.Update(value, completions)
	}
}

func (m *Model) acceptCompletion() {
	value := m.completion.Accept()
	if value != "" {
		m.input.SetValue(applyCompletion(m.completion.OriginalInput, value))
		m.input.CursorEnd()
	}
	m.completion.Clear()
}

// applyCompletion replaces the token being typed with value.
func applyCompletion(input, value string) string {
	if i := strings.LastIndexAny(input, " \t"); i >= 0 {
		return input[:i+1] + value + " "
	}
	return value + " "
}

// =============================================================================
// HELPERS
// =============================================================================

// refresh re-renders the viewport content.
func (m *Model) refresh() {
	width := max(m.viewport.Width, 10)
	if m.overlay != "" {
		m.viewport.SetContent(m.md.Render(m.overlay, width-2))
		return
	}
	m.viewport.SetContent(renderTranscript(m.theme, m.md, m.convs, m.cfg.GPTName, width))
}

func (m *Model) showOverlay(text string) {
	m.overlay = text
	m.refresh()
	m.viewport.GotoTop()
}

// setStatus shows text in the status bar and schedules its removal.
func (m *Model) setStatus(text string, isErr bool) tea.Cmd {
	m.statusSeq++
	m.status, m.statusErr = text, isErr
	seq := m.statusSeq
	return tea.Tick(StatusTTL, func(time.Time) tea.Msg {
		return statusExpiredMsg{seq: seq}
	})
}

func placeholder(cfg config.AppConfig) string {
	return fmt.Sprintf("Chat with %s...", cfg.GPTName)
}

func lastAssistant(convs []model.Conversation) int {
	for i := len(convs) - 1; i >= 0; i-- {
		if convs[i].Message.IsAssistant() {
			return i
		}
	}
	return commands.LastEntry
}

// configErrorText summarizes a failed config update for the status line.
func configErrorText(err error) string {
	var applyErr *config.ApplyError
	if errors.As(err, &applyErr) && applyErr.Failed(config.GroupAutoStart) {
		return "Launch at login is not supported; the setting was saved"
	}
	return err.Error()
}

func keyHelpText(k KeyMap) string {
	var b strings.Builder
	b.WriteString("### Keys\n\n")
	for _, group := range k.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			fmt.Fprintf(&b, "- `%s` %s\n", h.Key, h.Desc)
		}
	}
	b.WriteString("- `Ctrl+S` send in every mode\n")
	return b.String()
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(ctx context.Context, m Model) error {
	defer m.Close()
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
