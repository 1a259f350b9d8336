// Package tui is the terminal dashboard: APIs, Tests and Results pages backed
// by the security-testing backend.
package tui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/pyneda/stapi/pkg/client"
)

var (
	Primary     = lipgloss.Color("#101F38")
	Accent      = lipgloss.Color("#8BC34A")
	Muted       = lipgloss.Color("#6b7280")
	Border      = lipgloss.Color("#2a3850")
	Destructive = lipgloss.Color("#e53935")
	Warning     = lipgloss.Color("#FFC107")
	Success     = lipgloss.Color("#8BC34A")
)

type Styles struct {
	Header    lipgloss.Style
	Tab       lipgloss.Style
	ActiveTab lipgloss.Style
	Title     lipgloss.Style
	Muted     lipgloss.Style
	Help      lipgloss.Style
	Success   lipgloss.Style
	Error     lipgloss.Style
	Label     lipgloss.Style
	Focused   lipgloss.Style
	Table     table.Styles
}

func DefaultStyles() Styles {
	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(Border).
		BorderBottom(true).
		Bold(true)
	ts.Selected = ts.Selected.
		Foreground(lipgloss.Color("#ffffff")).
		Background(Primary).
		Bold(false)

	return Styles{
		Header: lipgloss.NewStyle().
			Background(Primary).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 2).
			Bold(true),
		Tab: lipgloss.NewStyle().
			Foreground(Muted).
			Padding(0, 2),
		ActiveTab: lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true).
			Underline(true).
			Padding(0, 2),
		Title:   lipgloss.NewStyle().Bold(true).MarginBottom(1),
		Muted:   lipgloss.NewStyle().Foreground(Muted),
		Help:    lipgloss.NewStyle().Foreground(Muted).Padding(0, 1),
		Success: lipgloss.NewStyle().Foreground(Success),
		Error:   lipgloss.NewStyle().Foreground(Destructive).Bold(true),
		Label:   lipgloss.NewStyle().Bold(true).Width(14),
		Focused: lipgloss.NewStyle().Foreground(Accent),
		Table:   ts,
	}
}

// StatusStyle colours a result status.
func (s Styles) StatusStyle(status client.Status) lipgloss.Style {
	switch status {
	case client.StatusVulnerable:
		return lipgloss.NewStyle().Foreground(Destructive).Bold(true)
	case client.StatusError:
		return lipgloss.NewStyle().Foreground(Warning)
	case client.StatusSafe:
		return lipgloss.NewStyle().Foreground(Success)
	}
	return s.Muted
}
