// Package tui provides terminal user interface components.
package tui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme modes accepted by ApplyMode. They match the values the settings
// store persists.
const (
	ModeSystem = "system"
	ModeLight  = "light"
	ModeDark   = "dark"
)

// Theme defines the color palette for the TUI.
type Theme struct {
	Primary    lipgloss.AdaptiveColor
	Secondary  lipgloss.AdaptiveColor
	Success    lipgloss.AdaptiveColor
	Warning    lipgloss.AdaptiveColor
	Error      lipgloss.AdaptiveColor
	Muted      lipgloss.AdaptiveColor
	Foreground lipgloss.AdaptiveColor
	Border     lipgloss.AdaptiveColor
}

// DefaultTheme returns the plates palette: saffron primary, bush green accents.
func DefaultTheme() Theme {
	return Theme{
		Primary:    lipgloss.AdaptiveColor{Light: "#c2570c", Dark: "#f59e0b"},
		Secondary:  lipgloss.AdaptiveColor{Light: "#166534", Dark: "#4ade80"},
		Success:    lipgloss.AdaptiveColor{Light: "#15803d", Dark: "#86efac"},
		Warning:    lipgloss.AdaptiveColor{Light: "#a16207", Dark: "#fde047"},
		Error:      lipgloss.AdaptiveColor{Light: "#b91c1c", Dark: "#f87171"},
		Muted:      lipgloss.AdaptiveColor{Light: "#78716c", Dark: "#a8a29e"},
		Foreground: lipgloss.AdaptiveColor{Light: "#1c1917", Dark: "#f5f5f4"},
		Border:     lipgloss.AdaptiveColor{Light: "#d6d3d1", Dark: "#44403c"},
	}
}

// NoColorTheme returns a theme with empty colors (honors NO_COLOR).
// Lipgloss treats empty strings as "no color".
func NoColorTheme() Theme {
	empty := lipgloss.AdaptiveColor{}
	return Theme{
		Primary:    empty,
		Secondary:  empty,
		Success:    empty,
		Warning:    empty,
		Error:      empty,
		Muted:      empty,
		Foreground: empty,
		Border:     empty,
	}
}

// ResolveTheme returns NoColorTheme when NO_COLOR is set, DefaultTheme otherwise.
func ResolveTheme() Theme {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return NoColorTheme()
	}
	return DefaultTheme()
}

// ApplyMode pins lipgloss's background detection to the stored theme mode.
// System leaves detection to the terminal. Unknown modes behave like System.
func ApplyMode(mode string) {
	switch strings.ToLower(mode) {
	case ModeLight:
		lipgloss.SetHasDarkBackground(false)
	case ModeDark:
		lipgloss.SetHasDarkBackground(true)
	}
}

// Pick returns the light or dark variant of c for the given mode, or the
// dark variant when the mode is System and the terminal reports a dark
// background.
func Pick(c lipgloss.AdaptiveColor, mode string) string {
	switch strings.ToLower(mode) {
	case ModeLight:
		return c.Light
	case ModeDark:
		return c.Dark
	}
	if lipgloss.HasDarkBackground() {
		return c.Dark
	}
	return c.Light
}
