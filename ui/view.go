package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the message list, the compose box and the status line.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.title.Render("chatdesk"))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.styles.compose.Width(max(m.width-2, 10)).Render(m.compose.View()))
	b.WriteString("\n")
	if m.state.Sending {
		b.WriteString(m.spinner.View())
		b.WriteString(m.styles.sending.Render(" Sending..."))
	}
	b.WriteString("\n")
	b.WriteString(m.styles.help.Render("enter send/save • ↑/↓ select • pgup/pgdn scroll • ctrl+e edit • ctrl+d delete • ctrl+r reload • esc quit"))

	return b.String()
}

// renderMessages returns the list content and the first line of every row.
func (m Model) renderMessages() (string, []int) {
	if len(m.state.Messages) == 0 {
		return m.styles.empty.Render("No messages yet."), nil
	}

	rows := make([]string, 0, len(m.state.Messages))
	offsets := make([]int, 0, len(m.state.Messages)+1)
	line := 0
	for i, entry := range m.state.Messages {
		row := m.renderEntry(i, entry)
		rows = append(rows, row)
		offsets = append(offsets, line)
		line += lipgloss.Height(row)
	}
	offsets = append(offsets, line)
	return lipgloss.JoinVertical(lipgloss.Left, rows...), offsets
}

func (m Model) renderEntry(index int, entry Entry) string {
	marker := "  "
	if index == m.selected {
		marker = m.styles.selected.Render("▸ ")
	}

	if entry.Editing {
		editor := m.edit.View()
		if index != m.selected {
			editor = entry.UpdatedMessage
		}
		return marker + m.styles.editing.Render(editor)
	}

	body := m.renderBody(entry.Message.Message)
	if rowClass(entry, m.opts.SelfSender) == "sent" {
		row := m.styles.sent.Render(body)
		return marker + lipgloss.PlaceHorizontal(max(m.width-2, lipgloss.Width(row)), lipgloss.Right, row)
	}

	row := m.styles.received.Render(body)
	if entry.Sender != "" {
		row = lipgloss.JoinVertical(lipgloss.Left, m.styles.sender.Render(entry.Sender), row)
	}
	return marker + row
}

func (m Model) renderBody(body string) string {
	if m.renderer == nil {
		return body
	}
	out, err := m.renderer.Render(body)
	if err != nil {
		return body
	}
	return strings.TrimSpace(out)
}

// rowClass names the treatment a row gets: "sent" for the local sender,
// "received" otherwise.
func rowClass(entry Entry, selfSender string) string {
	if selfSender != "" && entry.Sender == selfSender {
		return "sent"
	}
	return "received"
}
