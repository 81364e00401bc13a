package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles holds the styled components shared by prompts and the browser.
type Styles struct {
	theme Theme

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Body     lipgloss.Style
	Muted    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style

	Tab       lipgloss.Style
	ActiveTab lipgloss.Style
	Selected  lipgloss.Style
	Cursor    lipgloss.Style
	Help      lipgloss.Style
}

// NewStyles creates Styles from the resolved theme.
func NewStyles() *Styles {
	return NewStylesWithTheme(ResolveTheme())
}

// NewStylesWithTheme creates Styles for a specific theme.
func NewStylesWithTheme(theme Theme) *Styles {
	s := &Styles{theme: theme}

	s.Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.Primary)

	s.Subtitle = lipgloss.NewStyle().
		Foreground(theme.Secondary)

	s.Body = lipgloss.NewStyle().
		Foreground(theme.Foreground)

	s.Muted = lipgloss.NewStyle().
		Foreground(theme.Muted)

	s.Success = lipgloss.NewStyle().
		Foreground(theme.Success)

	s.Warning = lipgloss.NewStyle().
		Foreground(theme.Warning)

	s.Error = lipgloss.NewStyle().
		Foreground(theme.Error).
		Bold(true)

	s.Tab = lipgloss.NewStyle().
		Foreground(theme.Muted).
		Padding(0, 2)

	s.ActiveTab = lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true).
		Underline(true).
		Padding(0, 2)

	s.Selected = lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	s.Cursor = lipgloss.NewStyle().
		Foreground(theme.Primary)

	s.Help = lipgloss.NewStyle().
		Foreground(theme.Muted).
		Italic(true)

	return s
}

// Theme returns the palette the styles were built from.
func (s *Styles) Theme() Theme {
	return s.theme
}

// RenderKeyValue renders a key-value pair.
func (s *Styles) RenderKeyValue(key, value string) string {
	return s.Muted.Render(key+": ") + s.Body.Render(value)
}

// RenderStatus renders a status line with a check or cross.
func (s *Styles) RenderStatus(ok bool, message string) string {
	if ok {
		return s.Success.Render("✓ " + message)
	}
	return s.Error.Render("✗ " + message)
}
