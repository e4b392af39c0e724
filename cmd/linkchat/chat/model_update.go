package chat

import (
	"strings"

	"linkchat/cmd/linkchat/ui"
	"linkchat/internal/config"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		// The tick chain stops once nothing is in flight.
		if !m.phase.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ui.DebounceMsg:
		return m.handleDebounceFired(msg)

	case ingestDoneMsg:
		return m.handleIngestDone(msg)

	case queryDoneMsg:
		return m.handleQueryDone(msg)

	case clearDoneMsg:
		return m.handleClearDone(msg)

	case pasteMsg:
		return m.handlePaste(msg)
	}

	// Cursor blink and other component messages go to the focused field.
	var cmd tea.Cmd
	if m.focus == FieldLink {
		m.linkInput, cmd = m.linkInput.Update(msg)
	} else {
		m.queryInput, cmd = m.queryInput.Update(msg)
	}
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m.quit()
	}

	// A notification blocks everything until dismissed.
	if m.notification != nil {
		switch msg.Type {
		case tea.KeyEnter, tea.KeyEsc:
			m.uiLog.Debug("notification dismissed")
			m.notification = nil
		}
		return m, nil
	}

	switch msg.Type {
	case tea.KeyEsc:
		return m.quit()

	case tea.KeyCtrlR:
		if m.phase.Busy() {
			return m, nil
		}
		return m.startClear()

	case tea.KeyTab, tea.KeyShiftTab:
		if !m.phase.Busy() {
			if m.focus == FieldLink {
				m.focusField(FieldQuery)
			} else {
				m.focusField(FieldLink)
			}
		}
		return m, nil

	case tea.KeyPgUp, tea.KeyPgDown, tea.KeyCtrlU, tea.KeyCtrlD:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if m.phase.Busy() {
		m.uiLog.Debug("key %q rejected while %s", msg.String(), m.phase)
		return m, nil
	}

	if msg.Type == tea.KeyCtrlV {
		return m, m.pasteCmd(m.focus)
	}

	if m.focus == FieldLink {
		return m.handleLinkKey(msg)
	}
	return m.handleQueryKey(msg)
}

// pasteCmd reads the clipboard off the Update loop.
func (m Model) pasteCmd(f Field) tea.Cmd {
	read := m.readClipboard
	return func() tea.Msg {
		text, err := read()
		return pasteMsg{field: f, text: text, err: err}
	}
}

// handlePaste applies clipboard text as a single edit of the field it was
// read for, so it takes the same transitions as typed or bracketed input.
func (m Model) handlePaste(msg pasteMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.uiLog.Warn("clipboard read failed: %v", msg.err)
		return m, nil
	}
	if m.notification != nil || m.phase.Busy() || msg.field != m.focus {
		m.uiLog.Debug("paste into %s field dropped while %s", msg.field, m.phase)
		return m, nil
	}
	if msg.text == "" {
		return m, nil
	}

	m.uiLog.Debug("paste into %s field (%d chars)", msg.field, len(msg.text))
	edit := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(msg.text), Paste: true}
	if msg.field == FieldLink {
		return m.handleLinkKey(edit)
	}
	return m.handleQueryKey(edit)
}

func (m Model) handleLinkKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEnter {
		link := strings.TrimSpace(m.linkInput.Value())
		if link == "" {
			return m, nil
		}
		return m.startIngest(link)
	}

	before := m.linkInput.Value()
	var cmd tea.Cmd
	m.linkInput, cmd = m.linkInput.Update(msg)
	after := m.linkInput.Value()

	if after == before || m.cfg.Chat.LinkTrigger == config.LinkTriggerSubmit {
		return m, cmd
	}

	link := strings.TrimSpace(after)
	if link == "" {
		return m, cmd
	}
	m.uiLog.Debug("link edited, starting ingestion")
	next, ingest := m.startIngest(link)
	return next, tea.Batch(cmd, ingest)
}

func (m Model) handleQueryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.phase != PhaseAwaitingQuery {
		return m, nil
	}

	if msg.Type == tea.KeyEnter {
		query := strings.TrimSpace(m.queryInput.Value())
		if query == "" {
			return m, nil
		}
		m.debouncer.Cancel()
		return m.submitQuery(query)
	}

	before := m.queryInput.Value()
	var cmd tea.Cmd
	m.queryInput, cmd = m.queryInput.Update(msg)
	after := m.queryInput.Value()

	if after == before {
		return m, cmd
	}
	if strings.TrimSpace(after) == "" {
		m.debouncer.Cancel()
		return m, cmd
	}
	m.uiLog.Debug("query edited, submitting after %s", m.debouncer.Duration())
	return m, tea.Batch(cmd, m.debouncer.Cmd())
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.Close()
	return m, tea.Quit
}
