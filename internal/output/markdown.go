package output

import (
	"fmt"
	"io"
	"strings"
)

// MarkdownRenderer outputs literal Markdown syntax (portable, pipeable).
type MarkdownRenderer struct{}

// NewMarkdownRenderer creates a renderer for literal Markdown output.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// RenderResponse renders a success response as literal Markdown.
func (r *MarkdownRenderer) RenderResponse(w io.Writer, resp *Response) error {
	var b strings.Builder

	if resp.Summary != "" {
		b.WriteString("## " + resp.Summary + "\n\n")
	}
	if resp.Notice != "" {
		b.WriteString("> **Warning:** " + resp.Notice + "\n\n")
	}

	if resp.Document != "" {
		b.WriteString(strings.TrimRight(resp.Document, "\n") + "\n")
	} else {
		r.renderData(&b, NormalizeData(resp.Data))
	}

	if len(resp.Breadcrumbs) > 0 {
		b.WriteString("\n### Next\n\n")
		for _, bc := range resp.Breadcrumbs {
			line := "- `" + bc.Cmd + "`"
			if bc.Description != "" {
				line += ": " + bc.Description
			}
			b.WriteString(line + "\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderError renders an error response as literal Markdown.
func (r *MarkdownRenderer) RenderError(w io.Writer, resp *ErrorResponse) error {
	var b strings.Builder
	b.WriteString("**Error:** " + resp.Error + "\n")
	if resp.Hint != "" {
		b.WriteString("\n*Hint: " + resp.Hint + "*\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (r *MarkdownRenderer) renderData(b *strings.Builder, data any) {
	switch d := data.(type) {
	case []map[string]any:
		if len(d) == 0 {
			b.WriteString("*No results*\n")
			return
		}
		cols := detectColumns(d)
		headers := make([]string, len(cols))
		seps := make([]string, len(cols))
		for i, c := range cols {
			headers[i] = c.header
			seps[i] = "---"
		}
		b.WriteString("| " + strings.Join(headers, " | ") + " |\n")
		b.WriteString("| " + strings.Join(seps, " | ") + " |\n")
		for _, item := range d {
			cells := make([]string, len(cols))
			for i, c := range cols {
				cells[i] = strings.ReplaceAll(formatDateValue(c.key, item[c.key]), "|", `\|`)
			}
			b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
		}
	case map[string]any:
		for _, c := range detectColumns([]map[string]any{d}) {
			fmt.Fprintf(b, "- **%s:** %s\n", c.header, formatDateValue(c.key, d[c.key]))
		}
	case []any:
		for _, item := range d {
			b.WriteString("- " + formatCell(item) + "\n")
		}
	case nil:
		b.WriteString("*No data*\n")
	default:
		fmt.Fprintf(b, "%v\n", d)
	}
}
