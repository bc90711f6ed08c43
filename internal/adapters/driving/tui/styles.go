package tui

import "github.com/charmbracelet/lipgloss"

// Styles contains the pre-configured lipgloss styles for the chat UI.
type Styles struct {
	Title    lipgloss.Style
	User     lipgloss.Style
	Answer   lipgloss.Style
	Citation lipgloss.Style
	Notice   lipgloss.Style
	Error    lipgloss.Style
	Input    lipgloss.Style
	Help     lipgloss.Style
}

// DefaultStyles returns the default chat styling.
func DefaultStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7C3AED")).
			Bold(true).
			Padding(0, 1),
		User: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#06B6D4")).
			Bold(true),
		Answer: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CDD6F4")),
		Citation: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086")),
		Notice: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F9E2AF")),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F38BA8")),
		Input: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#45475A")).
			Padding(0, 1),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086")),
	}
}
