package tui

import "github.com/charmbracelet/lipgloss"

type Styles struct {
	Title    lipgloss.Style
	Account  lipgloss.Style
	Selected lipgloss.Style
	Item     lipgloss.Style
	Success  lipgloss.Style
	Error    lipgloss.Style
	Muted    lipgloss.Style
	Button   lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF8800")).MarginBottom(1),
		Account:  lipgloss.NewStyle().Foreground(lipgloss.Color("#00AFFF")),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#5F5FD7")).Padding(0, 1),
		Item:     lipgloss.NewStyle().Padding(0, 1),
		Success:  lipgloss.NewStyle().Foreground(lipgloss.Color("#00D75F")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F")),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("#8A8A8A")),
		Button:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#FF8800")).Padding(0, 1),
	}
}
