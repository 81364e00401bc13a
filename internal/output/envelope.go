package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/x/term"
)

// Response is the success envelope for JSON output.
type Response struct {
	OK          bool           `json:"ok"`
	Data        any            `json:"data,omitempty"`
	Summary     string         `json:"summary,omitempty"`
	Notice      string         `json:"notice,omitempty"`
	Breadcrumbs []Breadcrumb   `json:"breadcrumbs,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`

	// Document is Markdown shown in place of Data by the styled and
	// markdown formats. JSON output never carries it.
	Document string `json:"-"`
}

// Breadcrumb is a suggested follow-up command.
type Breadcrumb struct {
	Action      string `json:"action"`
	Cmd         string `json:"cmd"`
	Description string `json:"description"`
}

// ErrorResponse is the error envelope for JSON output.
type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	Code  string `json:"code"`
	Hint  string `json:"hint,omitempty"`
}

// Format specifies the output format.
type Format int

const (
	FormatAuto     Format = iota // TTY → Styled, otherwise JSON
	FormatJSON                   // Full envelope
	FormatMarkdown               // Literal Markdown (pipeable)
	FormatStyled                 // ANSI styled, even when piped
	FormatQuiet                  // Data only
	FormatIDs                    // One id per line
	FormatCount                  // Number of items
)

// ParseFormat maps a config/flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "auto":
		return FormatAuto, nil
	case "json":
		return FormatJSON, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "styled":
		return FormatStyled, nil
	case "quiet":
		return FormatQuiet, nil
	case "ids":
		return FormatIDs, nil
	case "count":
		return FormatCount, nil
	}
	return FormatAuto, ErrUsageHint(fmt.Sprintf("unknown format %q", s), "Use one of: auto, json, markdown, styled, quiet, ids, count")
}

// Options controls output behavior.
type Options struct {
	Format    Format
	Writer    io.Writer
	JQ        string // optional jq program applied to JSON and quiet output
	ThemeMode string // settings theme mode, used to pick Markdown styles
}

// Writer handles all output formatting.
type Writer struct {
	opts Options
}

// New creates a new output writer.
func New(opts Options) *Writer {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	return &Writer{opts: opts}
}

// EffectiveFormat resolves FormatAuto against the destination.
func (w *Writer) EffectiveFormat() Format {
	if w.opts.Format != FormatAuto {
		return w.opts.Format
	}
	if w.opts.JQ != "" || !isTTY(w.opts.Writer) {
		return FormatJSON
	}
	return FormatStyled
}

// OK outputs a success response.
func (w *Writer) OK(data any, opts ...ResponseOption) error {
	resp := &Response{OK: true, Data: data}
	for _, opt := range opts {
		opt(resp)
	}
	return w.write(resp)
}

// Err outputs an error response.
func (w *Writer) Err(err error) error {
	e := AsError(err)
	return w.write(&ErrorResponse{
		OK:    false,
		Error: e.Message,
		Code:  e.Code,
		Hint:  e.Hint,
	})
}

func (w *Writer) write(v any) error {
	switch w.EffectiveFormat() {
	case FormatQuiet:
		if resp, ok := v.(*Response); ok {
			return w.writeJSON(resp.Data)
		}
		return w.writeJSON(v)
	case FormatIDs:
		return w.writeIDs(v)
	case FormatCount:
		return w.writeCount(v)
	case FormatMarkdown:
		return w.writeMarkdown(v)
	case FormatStyled:
		return w.writeStyled(v)
	default:
		return w.writeJSON(v)
	}
}

func isTTY(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(f.Fd())
	}
	return false
}

func (w *Writer) writeJSON(v any) error {
	if w.opts.JQ != "" {
		if _, isErr := v.(*ErrorResponse); !isErr {
			return applyJQ(w.opts.Writer, w.opts.JQ, v)
		}
	}
	enc := json.NewEncoder(w.opts.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (w *Writer) writeIDs(v any) error {
	resp, ok := v.(*Response)
	if !ok {
		return w.writeJSON(v)
	}

	switch d := NormalizeData(resp.Data).(type) {
	case []map[string]any:
		for _, item := range d {
			if id, ok := recordID(item); ok {
				fmt.Fprintln(w.opts.Writer, id)
			}
		}
	case map[string]any:
		if id, ok := recordID(d); ok {
			fmt.Fprintln(w.opts.Writer, id)
		}
	}
	return nil
}

// recordID returns the API's "_id", or "id" for local records.
func recordID(m map[string]any) (any, bool) {
	if id, ok := m["_id"]; ok {
		return id, true
	}
	id, ok := m["id"]
	return id, ok
}

func (w *Writer) writeCount(v any) error {
	resp, ok := v.(*Response)
	if !ok {
		return w.writeJSON(v)
	}

	switch d := NormalizeData(resp.Data).(type) {
	case []any:
		fmt.Fprintln(w.opts.Writer, len(d))
	case []map[string]any:
		fmt.Fprintln(w.opts.Writer, len(d))
	case nil:
		fmt.Fprintln(w.opts.Writer, 0)
	default:
		fmt.Fprintln(w.opts.Writer, 1)
	}
	return nil
}

// NormalizeData converts typed values to the generic shapes the renderers
// understand: []map[string]any, map[string]any, []any or scalars.
func NormalizeData(data any) any {
	if raw, ok := data.(json.RawMessage); ok {
		var unmarshaled any
		if err := json.Unmarshal(raw, &unmarshaled); err == nil {
			return normalizeUnmarshaled(unmarshaled)
		}
		return data
	}

	switch data.(type) {
	case []map[string]any, map[string]any, nil, string:
		return data
	case []any:
		return normalizeUnmarshaled(data)
	default:
		b, err := json.Marshal(data)
		if err != nil {
			return data
		}
		var unmarshaled any
		if err := json.Unmarshal(b, &unmarshaled); err != nil {
			return data
		}
		return normalizeUnmarshaled(unmarshaled)
	}
}

// normalizeUnmarshaled converts []any to []map[string]any if all elements are maps.
func normalizeUnmarshaled(v any) any {
	d, ok := v.([]any)
	if !ok {
		return v
	}
	if len(d) == 0 {
		return []map[string]any{}
	}
	maps := make([]map[string]any, 0, len(d))
	for _, item := range d {
		m, ok := item.(map[string]any)
		if !ok {
			return v
		}
		maps = append(maps, m)
	}
	return maps
}

func (w *Writer) writeStyled(v any) error {
	r := NewRenderer(w.opts.Writer, true)
	r.themeMode = w.opts.ThemeMode
	switch resp := v.(type) {
	case *Response:
		return r.RenderResponse(w.opts.Writer, resp)
	case *ErrorResponse:
		return r.RenderError(w.opts.Writer, resp)
	default:
		return w.writeJSON(v)
	}
}

func (w *Writer) writeMarkdown(v any) error {
	r := NewMarkdownRenderer()
	switch resp := v.(type) {
	case *Response:
		return r.RenderResponse(w.opts.Writer, resp)
	case *ErrorResponse:
		return r.RenderError(w.opts.Writer, resp)
	default:
		return w.writeJSON(v)
	}
}

// ResponseOption modifies a Response.
type ResponseOption func(*Response)

// WithSummary adds a summary line.
func WithSummary(s string) ResponseOption {
	return func(r *Response) { r.Summary = s }
}

// WithNotice adds a warning shown alongside the data, e.g. a failed
// refresh whose previous results are still being shown.
func WithNotice(s string) ResponseOption {
	return func(r *Response) { r.Notice = s }
}

// WithBreadcrumbs adds follow-up suggestions.
func WithBreadcrumbs(b ...Breadcrumb) ResponseOption {
	return func(r *Response) { r.Breadcrumbs = append(r.Breadcrumbs, b...) }
}

// WithDocument attaches Markdown rendered by the human-facing formats.
func WithDocument(md string) ResponseOption {
	return func(r *Response) { r.Document = md }
}

// WithMeta adds metadata to the response.
func WithMeta(key string, value any) ResponseOption {
	return func(r *Response) {
		if r.Meta == nil {
			r.Meta = make(map[string]any)
		}
		r.Meta[key] = value
	}
}
