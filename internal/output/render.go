package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/term"

	"github.com/mzansiplatess/plates-cli/internal/richtext"
	"github.com/mzansiplatess/plates-cli/internal/tui"
)

// Renderer handles styled terminal output.
type Renderer struct {
	width     int
	styled    bool
	themeMode string

	Summary   lipgloss.Style
	Muted     lipgloss.Style
	Data      lipgloss.Style
	Error     lipgloss.Style
	Hint      lipgloss.Style
	Warning   lipgloss.Style
	Header    lipgloss.Style
	Cell      lipgloss.Style
	CellMuted lipgloss.Style
}

// NewRenderer creates a renderer with styles from the resolved theme.
// Styling is enabled when writing to a TTY, or when forceStyled is true.
func NewRenderer(w io.Writer, forceStyled bool) *Renderer {
	return NewRendererWithTheme(w, forceStyled, tui.ResolveTheme())
}

// NewRendererWithTheme creates a renderer with a specific theme.
func NewRendererWithTheme(w io.Writer, forceStyled bool, theme tui.Theme) *Renderer {
	width, isTTY := terminalInfo(w)
	r := &Renderer{width: width, styled: isTTY || forceStyled}

	plain := lipgloss.NewStyle()
	if !r.styled {
		r.Summary, r.Muted, r.Data, r.Error, r.Hint = plain, plain, plain, plain, plain
		r.Warning, r.Header, r.Cell, r.CellMuted = plain, plain, plain, plain
		return r
	}

	r.Summary = lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
	r.Muted = lipgloss.NewStyle().Foreground(theme.Muted)
	r.Data = lipgloss.NewStyle().Foreground(theme.Foreground)
	r.Error = lipgloss.NewStyle().Foreground(theme.Error).Bold(true)
	r.Hint = lipgloss.NewStyle().Foreground(theme.Muted).Italic(true)
	r.Warning = lipgloss.NewStyle().Foreground(theme.Warning)
	r.Header = lipgloss.NewStyle().Foreground(theme.Foreground).Bold(true)
	r.Cell = lipgloss.NewStyle().Foreground(theme.Foreground)
	r.CellMuted = lipgloss.NewStyle().Foreground(theme.Muted)
	return r
}

// terminalInfo returns the terminal width and whether the writer is a TTY.
func terminalInfo(w io.Writer) (width int, isTTY bool) {
	width = 80
	if f, ok := w.(*os.File); ok {
		if cols, _, err := term.GetSize(f.Fd()); err == nil && cols >= 40 {
			width = cols
		}
		isTTY = term.IsTerminal(f.Fd())
	}
	return width, isTTY
}

// RenderResponse renders a success response to the writer.
func (r *Renderer) RenderResponse(w io.Writer, resp *Response) error {
	var b strings.Builder

	if resp.Summary != "" {
		b.WriteString(r.Summary.Render(resp.Summary))
		b.WriteString("\n\n")
	}
	if resp.Notice != "" {
		b.WriteString(r.Warning.Render("! " + resp.Notice))
		b.WriteString("\n\n")
	}

	if resp.Document != "" {
		out, err := richtext.RenderMarkdown(resp.Document, r.width, r.themeMode)
		if err != nil {
			out = resp.Document + "\n"
		}
		b.WriteString(out)
	} else {
		r.renderData(&b, NormalizeData(resp.Data))
	}

	if len(resp.Breadcrumbs) > 0 {
		b.WriteString("\n")
		b.WriteString(r.Muted.Render("Next:"))
		b.WriteString("\n")
		for _, bc := range resp.Breadcrumbs {
			line := "  " + bc.Cmd
			if bc.Description != "" {
				line += "  # " + bc.Description
			}
			b.WriteString(r.Muted.Render(line) + "\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderError renders an error response to the writer.
func (r *Renderer) RenderError(w io.Writer, resp *ErrorResponse) error {
	var b strings.Builder
	b.WriteString(r.Error.Render("Error: " + resp.Error))
	b.WriteString("\n")
	if resp.Hint != "" {
		b.WriteString(r.Hint.Render("Hint: " + resp.Hint))
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (r *Renderer) renderData(b *strings.Builder, data any) {
	switch d := data.(type) {
	case []map[string]any:
		if len(d) == 0 {
			b.WriteString(r.Muted.Render("(no results)") + "\n")
			return
		}
		r.renderTable(b, d)
	case map[string]any:
		r.renderObject(b, d)
	case []any:
		if len(d) == 0 {
			b.WriteString(r.Muted.Render("(no results)") + "\n")
			return
		}
		for _, item := range d {
			b.WriteString(r.Data.Render("• "+formatCell(item)) + "\n")
		}
	case string:
		b.WriteString(r.Data.Render(d) + "\n")
	case nil:
		b.WriteString(r.Muted.Render("(no data)") + "\n")
	default:
		b.WriteString(r.Data.Render(fmt.Sprintf("%v", data)) + "\n")
	}
}

// Column priority for table rendering (lower = higher priority).
var columnPriority = map[string]int{
	"_id":         1,
	"id":          1,
	"completed":   1,
	"name":        2,
	"itemType":    2,
	"quantity":    2,
	"city":        3,
	"category":    3,
	"itemId":      3,
	"unit":        3,
	"rating":      4,
	"difficulty":  4,
	"startDate":   4,
	"startTime":   5,
	"price":       5,
	"currency":    6,
	"prepTime":    6,
	"cookTime":    6,
	"address":     7,
	"phone":       8,
	"description": 9,
	"createdAt":   20,
	"updatedAt":   21,
}

// Columns rendered in muted style.
var mutedColumns = map[string]bool{
	"_id":       true,
	"id":        true,
	"createdAt": true,
	"updatedAt": true,
}

// Columns never shown in tables.
var skipColumns = map[string]bool{
	"image_url":       true,
	"ingredients":     true,
	"instructions":    true,
	"tags":            true,
	"contactEmail":    true,
	"contactPhone":    true,
	"organizer":       true,
	"profileImageUrl": true,
	"preferences":     true,
}

type column struct {
	key      string
	header   string
	priority int
	muted    bool
}

func (r *Renderer) renderTable(b *strings.Builder, data []map[string]any) {
	columns := detectColumns(data)
	if len(columns) == 0 {
		return
	}
	columns = r.selectColumns(columns)
	cellWidth := max(10, r.width/len(columns)-2)

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.Header
			}
			if col < len(columns) && columns[col].muted {
				return r.CellMuted
			}
			return r.Cell
		})

	headers := make([]string, len(columns))
	for i, col := range columns {
		headers[i] = col.header
	}
	t.Headers(headers...)

	for _, item := range data {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = ansi.Truncate(formatDateValue(col.key, item[col.key]), cellWidth, "…")
		}
		t.Row(row...)
	}

	b.WriteString(t.Render())
	b.WriteString("\n")
}

func detectColumns(data []map[string]any) []column {
	seen := make(map[string]bool)
	var cols []column
	for _, row := range data {
		for k, v := range row {
			if seen[k] || skipColumns[k] {
				continue
			}
			switch v.(type) {
			case map[string]any, []map[string]any:
				continue
			}
			seen[k] = true
			priority := columnPriority[k]
			if priority == 0 {
				priority = 50
			}
			cols = append(cols, column{
				key:      k,
				header:   formatHeader(k),
				priority: priority,
				muted:    mutedColumns[k],
			})
		}
	}
	sort.Slice(cols, func(i, j int) bool {
		if cols[i].priority != cols[j].priority {
			return cols[i].priority < cols[j].priority
		}
		return cols[i].key < cols[j].key
	})
	return cols
}

// selectColumns keeps as many columns as fit the terminal, assuming a
// minimum of 12 cells each, and never fewer than two.
func (r *Renderer) selectColumns(cols []column) []column {
	limit := max(2, r.width/12)
	if len(cols) > limit {
		return cols[:limit]
	}
	return cols
}

func (r *Renderer) renderObject(b *strings.Builder, data map[string]any) {
	keys := make([]string, 0, len(data))
	for k, v := range data {
		if _, nested := v.(map[string]any); nested {
			continue
		}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		pi, pj := columnPriority[keys[i]], columnPriority[keys[j]]
		if pi == 0 {
			pi = 50
		}
		if pj == 0 {
			pj = 50
		}
		if pi != pj {
			return pi < pj
		}
		return keys[i] < keys[j]
	})

	if len(keys) == 0 {
		b.WriteString(r.Muted.Render("(no data)") + "\n")
		return
	}

	maxLen := 0
	for _, k := range keys {
		maxLen = max(maxLen, len(formatHeader(k)))
	}
	for _, k := range keys {
		label := r.Muted.Render(fmt.Sprintf("%-*s: ", maxLen, formatHeader(k)))
		style := r.Data
		if mutedColumns[k] {
			style = r.CellMuted
		}
		b.WriteString(label + style.Render(formatDateValue(k, data[k])) + "\n")
	}
}

// formatHeader turns snake_case and camelCase keys into "Title Case".
func formatHeader(key string) string {
	var spaced strings.Builder
	for i, r := range key {
		if r >= 'A' && r <= 'Z' && i > 0 {
			spaced.WriteByte(' ')
		}
		spaced.WriteRune(r)
	}
	words := strings.Fields(strings.ReplaceAll(spaced.String(), "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func formatCell(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "yes"
		}
		return "no"
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%.1f", v)
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			items = append(items, formatCell(item))
		}
		return strings.Join(items, ", ")
	default:
		return fmt.Sprintf("%v", v)
	}
}

// formatDateValue shortens timestamps in *At and *Date columns.
func formatDateValue(key string, val any) string {
	if !strings.HasSuffix(key, "At") && !strings.HasSuffix(key, "Date") {
		return formatCell(val)
	}
	str, ok := val.(string)
	if !ok || str == "" {
		return formatCell(val)
	}
	if t, err := time.Parse(time.RFC3339, str); err == nil {
		return t.Format("Jan 2, 2006")
	}
	if t, err := time.Parse(time.DateOnly, str); err == nil {
		return t.Format("Mon, Jan 2 2006")
	}
	return str
}
