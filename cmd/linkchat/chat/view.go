package chat

import (
	"strings"

	"linkchat/cmd/linkchat/ui"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) renderHistory() string {
	var sb strings.Builder

	for _, msg := range m.transcript.messages {
		switch msg.Role {
		case RoleUser:
			userStyle := m.styles.Bold.
				Foreground(m.styles.Theme.Primary).
				MarginTop(1)
			sb.WriteString(userStyle.Render(userLabel) + "\n")
			sb.WriteString(m.styles.UserInput.Render(msg.Text))
			sb.WriteString("\n\n")

		default: // assistant
			assistantStyle := m.styles.Bold.
				Foreground(m.styles.Theme.Accent).
				MarginTop(1)
			sb.WriteString(assistantStyle.Render(assistantLabel) + "\n")
			sb.WriteString(m.safeRenderMarkdown(msg.Text))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// safeRenderMarkdown renders markdown through the render cache. Without a
// renderer the text is returned as is.
func (m Model) safeRenderMarkdown(content string) string {
	if m.renderer == nil || content == "" {
		return content
	}
	key := ui.ComputeKey(content, m.width, m.styles.Theme.IsDark)
	return m.mdCache.GetOrCompute(key, func() string {
		return m.renderMarkdown(content)
	})
}

// renderMarkdown renders markdown with panic recovery
func (m Model) renderMarkdown(content string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			// If glamour panics, return plain text
			result = content
		}
	}()

	rendered, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.notification != nil {
		return m.renderNotification()
	}

	header := m.renderHeader()
	chatView := m.styles.Content.Render(m.viewport.View())

	// Status row
	status := ""
	if m.phase.Busy() {
		status = m.styles.Spinner.Render(m.spinner.View()) + " " + m.statusMessage
	}

	linkBox := m.inputStyle(FieldLink).Render(m.linkInput.View())
	queryBox := m.inputStyle(FieldQuery).Render(m.queryInput.View())

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		chatView,
		status,
		linkBox,
		queryBox,
		m.renderFooter(),
	)
}

func (m Model) renderHeader() string {
	title := m.styles.Header.Render("linkchat")
	badge := m.styles.Badge.Render(m.phase.String())
	top := lipgloss.JoinHorizontal(lipgloss.Center, title, " ", badge)

	summary := m.summary
	if summary == "" {
		summary = "No link loaded"
	}
	maxWidth := m.width - 2
	if r := []rune(summary); maxWidth > 3 && len(r) > maxWidth {
		summary = string(r[:maxWidth-3]) + "..."
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		top,
		m.styles.Muted.Render(summary),
		m.styles.RenderDivider(m.width),
	)
}

func (m Model) inputStyle(f Field) lipgloss.Style {
	width := m.width - 4
	if width < 10 {
		width = 10
	}

	style := m.styles.InputIdle
	switch {
	case m.phase.Busy(), f == FieldQuery && m.phase == PhaseAwaitingLink:
		style = m.styles.InputDisabled
	case m.focus == f:
		style = m.styles.InputActive
	}
	return style.Width(width)
}

func (m Model) renderFooter() string {
	help := "enter: send • tab: switch field • ctrl+r: clear index • pgup/pgdn: scroll • esc: quit"
	if m.phase.Busy() {
		help = "waiting for the service • ctrl+c: quit"
	}
	return m.styles.Muted.Render(help)
}

func (m Model) renderNotification() string {
	n := m.notification

	var sb strings.Builder
	sb.WriteString(m.styles.Error.Render(n.Title))
	sb.WriteString("\n\n")
	sb.WriteString(m.styles.Bold.Render(n.Text))
	if n.Detail != "" {
		sb.WriteString("\n\n")
		sb.WriteString(m.styles.Muted.Render(n.Detail))
	}
	sb.WriteString("\n\n")
	sb.WriteString(m.styles.Muted.Render("enter/esc: dismiss"))

	width := 60
	if m.width-10 < width {
		width = m.width - 10
	}
	if width < 20 {
		width = 20
	}
	box := m.styles.Notification.Width(width).Render(sb.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
