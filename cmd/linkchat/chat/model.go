// Package chat implements the linkchat widget: a Bubble Tea model that takes
// a link, has the RAG service ingest it, and then answers questions about it.
package chat

import (
	"context"
	"sync"

	"linkchat/cmd/linkchat/ui"
	"linkchat/internal/config"
	"linkchat/internal/logging"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/google/uuid"
)

// Layout constants
const (
	headerHeight = 3 // title row, summary row, divider
	inputHeight  = 6 // two bordered single-line fields
	footerHeight = 1
	statusHeight = 1 // spinner row, reserved even when idle
	defaultWidth = 80
)

// New creates the widget in PhaseAwaitingLink with the link field focused.
// A nil cfg means defaults.
func New(backend Backend, cfg *config.Config) Model {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	styles := ui.NewStyles(ui.ThemeByName(cfg.UI.Theme))

	li := textinput.New()
	li.Placeholder = linkPlaceholder
	li.Prompt = "🔗 "
	li.CharLimit = inputCharLimit
	li.Width = defaultWidth - 6
	li.PromptStyle = styles.Prompt
	li.TextStyle = styles.UserInput
	li.KeyMap.Paste = key.NewBinding(key.WithDisabled()) // handled in handleKey
	li.Focus()

	qi := textinput.New()
	qi.Placeholder = queryLockedText
	qi.Prompt = "│ "
	qi.CharLimit = inputCharLimit
	qi.Width = defaultWidth - 6
	qi.PromptStyle = styles.Prompt
	qi.TextStyle = styles.UserInput
	qi.KeyMap.Paste = key.NewBinding(key.WithDisabled())

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	vp := viewport.New(defaultWidth, 20)
	vp.SetContent("")

	ctx, cancel := context.WithCancel(context.Background())
	sessionID := uuid.NewString()
	uiLog := logging.Get(logging.CategoryUI).With("session", sessionID)

	var renderer *glamour.TermRenderer
	if cfg.UI.Markdown {
		renderer = newRenderer(styles, defaultWidth, uiLog)
	}

	m := Model{
		linkInput:  li,
		queryInput: qi,
		viewport:   vp,
		spinner:    sp,
		styles:     styles,
		renderer:   renderer,
		mdCache:    ui.NewRenderCache(256),
		phase:      PhaseAwaitingLink,
		focus:      FieldLink,
		debouncer:  ui.NewDebouncer(queryDebounceID, cfg.GetDebounce()),
		backend:       backend,
		cfg:           cfg,
		readClipboard: clipboard.ReadAll,
		sessionID:     sessionID,
		log:           logging.Get(logging.CategorySession).With("session", sessionID),
		uiLog:         uiLog,
		ctx:           ctx,
		cancel:        cancel,
		closeOnce:     &sync.Once{},
	}
	m.log.Info("widget created (debounce=%s, link_trigger=%s)", m.debouncer.Duration(), cfg.Chat.LinkTrigger)
	return m
}

// newRenderer builds a glamour renderer for the widget theme. A nil result
// means answers are shown as plain text.
func newRenderer(styles ui.Styles, width int, log *logging.Logger) *glamour.TermRenderer {
	wrap := width - 8
	if wrap < 20 {
		wrap = 20
	}
	style := "light"
	if styles.Theme.IsDark {
		style = "dark"
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		log.Warn("markdown renderer unavailable (style=%s): %v", style, err)
		return nil
	}
	return renderer
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Close tears the widget down: the armed debounce is dropped and the root
// context is cancelled. Safe to call more than once.
func (m Model) Close() {
	m.closeOnce.Do(func() {
		m.debouncer.Cancel()
		m.cancel()
		m.log.Info("widget closed (messages=%d)", m.transcript.Len())
	})
}

// Phase returns the current phase.
func (m Model) Phase() Phase { return m.phase }

// Transcript returns the conversation so far.
func (m Model) Transcript() Transcript { return m.transcript }

// Notification returns the blocking notification, or nil.
func (m Model) Notification() *Notification { return m.notification }

// Focus returns the focused input field.
func (m Model) Focus() Field { return m.focus }

// LinkValue returns the contents of the link field.
func (m Model) LinkValue() string { return m.linkInput.Value() }

// QueryValue returns the contents of the query field.
func (m Model) QueryValue() string { return m.queryInput.Value() }

// Summary returns the service message from the last successful ingestion.
func (m Model) Summary() string { return m.summary }

// DebouncePending reports whether a query submission is armed.
func (m Model) DebouncePending() bool { return m.debouncer.Pending() }

// SessionID identifies this widget instance in the logs.
func (m Model) SessionID() string { return m.sessionID }

func (m *Model) setPhase(p Phase) {
	if m.phase != p {
		m.log.Debug("phase %s -> %s", m.phase, p)
	}
	m.phase = p

	if p == PhaseAwaitingLink {
		m.queryInput.Placeholder = queryLockedText
	} else {
		m.queryInput.Placeholder = queryPlaceholder
	}

	if p.Busy() {
		m.linkInput.Blur()
		m.queryInput.Blur()
		return
	}
	if p == PhaseAwaitingLink {
		m.focus = FieldLink
	}
	m.focusField(m.focus)
}

// focusField moves the cursor to f. The query field cannot take focus
// before a link has been ingested.
func (m *Model) focusField(f Field) {
	if f == FieldQuery && m.phase == PhaseAwaitingLink {
		f = FieldLink
	}
	m.focus = f
	if m.phase.Busy() {
		return
	}
	if f == FieldLink {
		m.queryInput.Blur()
		m.linkInput.Focus()
	} else {
		m.linkInput.Blur()
		m.queryInput.Focus()
	}
}

func (m *Model) appendMessage(msg Message) {
	m.transcript.Append(msg)
	m.refresh()
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	vpHeight := height - headerHeight - inputHeight - footerHeight - statusHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	vpWidth := width - 2
	if vpWidth < 1 {
		vpWidth = 1
	}
	m.viewport.Width = vpWidth
	m.viewport.Height = vpHeight
	m.ready = true

	inputWidth := width - 8
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.linkInput.Width = inputWidth
	m.queryInput.Width = inputWidth

	if m.renderer != nil {
		m.renderer = newRenderer(m.styles, width, m.uiLog)
	}
	m.refresh()
}
