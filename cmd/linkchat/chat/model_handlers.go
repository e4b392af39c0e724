package chat

import (
	"strings"
	"time"

	"linkchat/cmd/linkchat/ui"
	"linkchat/internal/ragclient"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// INGESTION
// =============================================================================

func (m Model) startIngest(link string) (Model, tea.Cmd) {
	m.debouncer.Cancel()
	m.statusMessage = LoadingText
	m.setPhase(PhaseIngesting)
	m.log.Info("ingesting %s", link)
	return m, tea.Batch(m.ingestCmd(link), m.spinner.Tick)
}

func (m Model) ingestCmd(link string) tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		resp, err := backend.Load(ctx, link)
		return ingestDoneMsg{link: link, resp: resp, err: err}
	}
}

func (m Model) handleIngestDone(msg ingestDoneMsg) (tea.Model, tea.Cmd) {
	m.statusMessage = ""
	if msg.err != nil {
		m.fail(msg.err, LoadFailedText)
		m.setPhase(PhaseAwaitingLink)
		return m, nil
	}

	m.summary = msg.resp.Message
	m.appendMessage(Message{Role: RoleAssistant, Text: GreetingText, Time: time.Now()})
	m.setPhase(PhaseAwaitingQuery)
	m.focusField(FieldQuery)
	m.log.Info("ingested %s: %s", msg.link, msg.resp.Message)
	return m, nil
}

// =============================================================================
// QUERY
// =============================================================================

func (m Model) handleDebounceFired(msg ui.DebounceMsg) (tea.Model, tea.Cmd) {
	if msg.ID != queryDebounceID || !m.debouncer.Fire(msg.Seq) {
		m.uiLog.Debug("stale debounce fire (seq=%d) ignored", msg.Seq)
		return m, nil
	}

	query := strings.TrimSpace(m.queryInput.Value())
	if m.phase != PhaseAwaitingQuery || query == "" {
		m.uiLog.Debug("debounce fire dropped (phase=%s, empty=%t)", m.phase, query == "")
		return m, nil
	}
	return m.submitQuery(query)
}

func (m Model) submitQuery(query string) (Model, tea.Cmd) {
	m.appendMessage(Message{Role: RoleUser, Text: query, Time: time.Now()})
	m.queryInput.SetValue("")
	m.statusMessage = LoadingText
	m.setPhase(PhaseSubmittingQuery)
	m.log.Info("query submitted (%d chars)", len(query))
	return m, tea.Batch(m.queryCmd(query), m.spinner.Tick)
}

func (m Model) queryCmd(query string) tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		resp, err := backend.Query(ctx, query)
		return queryDoneMsg{query: query, resp: resp, err: err}
	}
}

func (m Model) handleQueryDone(msg queryDoneMsg) (tea.Model, tea.Cmd) {
	m.statusMessage = ""
	if msg.err != nil {
		m.fail(msg.err, QueryFailedText)
		if m.cfg.Chat.RestoreQueryOnFailure {
			m.queryInput.SetValue(msg.query)
			m.queryInput.CursorEnd()
		}
		m.setPhase(PhaseAwaitingQuery)
		return m, nil
	}

	m.appendMessage(Message{Role: RoleAssistant, Text: msg.resp.Response, Time: time.Now()})
	m.setPhase(PhaseAwaitingQuery)
	return m, nil
}

// =============================================================================
// CLEAR
// =============================================================================

func (m Model) startClear() (Model, tea.Cmd) {
	m.debouncer.Cancel()
	m.phaseBefore = m.phase
	m.statusMessage = ClearingText
	m.setPhase(PhaseIngesting)
	m.log.Info("clearing index")
	return m, tea.Batch(m.clearCmd(), m.spinner.Tick)
}

func (m Model) clearCmd() tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		resp, err := backend.Clear(ctx)
		return clearDoneMsg{resp: resp, err: err}
	}
}

func (m Model) handleClearDone(msg clearDoneMsg) (tea.Model, tea.Cmd) {
	m.statusMessage = ""
	if msg.err != nil {
		m.fail(msg.err, ClearFailedText)
		m.setPhase(m.phaseBefore)
		return m, nil
	}

	m.summary = ""
	m.linkInput.Reset()
	m.queryInput.Reset()
	m.setPhase(PhaseAwaitingLink)
	m.log.Info("index cleared: %s", msg.resp.Message)
	return m, nil
}

// fail raises the blocking notification for err. rejectedText is shown when
// the service answered with an error status; transport failures always show
// the network text.
func (m *Model) fail(err error, rejectedText string) {
	n := &Notification{
		Kind:   TransportFailed,
		Title:  notificationTitle,
		Text:   NetworkErrorText,
		Detail: err.Error(),
	}
	if ragclient.IsServerRejected(err) {
		n.Kind = ServerRejected
		n.Text = rejectedText
		m.log.Warn("server rejected request: %v", err)
	} else {
		m.log.Error("transport failure: %v", err)
	}
	m.notification = n
}
