package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Catppuccin Mocha palette.
var (
	ctpBase     = lipgloss.Color("#1e1e2e")
	ctpSurface0 = lipgloss.Color("#313244")
	ctpSurface1 = lipgloss.Color("#45475a")
	ctpOverlay0 = lipgloss.Color("#6c7086")
	ctpOverlay1 = lipgloss.Color("#7f849c")
	ctpText     = lipgloss.Color("#cdd6f4")
	ctpBlue     = lipgloss.Color("#89b4fa")
	ctpGreen    = lipgloss.Color("#a6e3a1")
	ctpRed      = lipgloss.Color("#f38ba8")
	ctpYellow   = lipgloss.Color("#f9e2af")
	ctpMauve    = lipgloss.Color("#cba6f7")
)

type styles struct {
	title    lipgloss.Style
	sent     lipgloss.Style
	received lipgloss.Style
	selected lipgloss.Style
	sender   lipgloss.Style
	editing  lipgloss.Style
	compose  lipgloss.Style
	sending  lipgloss.Style
	help     lipgloss.Style
	empty    lipgloss.Style
}

func defaultStyles() styles {
	bubble := lipgloss.NewStyle().Padding(0, 1).MarginBottom(1)
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(ctpMauve).Padding(0, 1),
		sent:     bubble.Foreground(ctpBase).Background(ctpBlue),
		received: bubble.Foreground(ctpText).Background(ctpSurface0),
		selected: lipgloss.NewStyle().Foreground(ctpYellow).Bold(true),
		sender:   lipgloss.NewStyle().Foreground(ctpOverlay1).Italic(true),
		editing:  lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(ctpGreen).Padding(0, 1),
		compose:  lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(ctpSurface1).Padding(0, 1),
		sending:  lipgloss.NewStyle().Foreground(ctpGreen),
		help:     lipgloss.NewStyle().Foreground(ctpOverlay0),
		empty:    lipgloss.NewStyle().Foreground(ctpRed).Faint(true),
	}
}
