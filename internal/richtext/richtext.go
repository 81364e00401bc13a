// Package richtext renders Markdown for the terminal.
// It uses glamour for styled rendering and falls back to the raw text.
package richtext

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"

	"github.com/mzansiplatess/plates-cli/internal/tui"
)

// DefaultWidth is used when the terminal width is unknown.
const DefaultWidth = 80

// RenderMarkdown renders md with word wrap at width. mode is a settings
// theme mode: light and dark pin the glamour style, anything else lets
// glamour detect the terminal background.
func RenderMarkdown(md string, width int, mode string) (string, error) {
	if strings.TrimSpace(md) == "" {
		return "", nil
	}
	if width <= 0 {
		width = DefaultWidth
	}

	style := glamour.WithAutoStyle()
	switch strings.ToLower(mode) {
	case tui.ModeLight:
		style = glamour.WithStandardStyle(styles.LightStyle)
	case tui.ModeDark:
		style = glamour.WithStandardStyle(styles.DarkStyle)
	}

	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return md, err
	}
	out, err := r.Render(md)
	if err != nil {
		return md, err
	}
	return strings.TrimRight(out, "\n") + "\n", nil
}

// EscapeInline escapes characters that would otherwise start Markdown
// emphasis or links inside a single line of user text.
func EscapeInline(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		"*", `\*`,
		"_", `\_`,
		"[", `\[`,
		"]", `\]`,
		"`", "\\`",
	)
	return r.Replace(s)
}
