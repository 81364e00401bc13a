// Package browse is the full-screen terminal browser for restaurants,
// recipes and events. Each tab is bound to one data pool: it shows a
// spinner while the first load runs, keeps the last results visible when a
// reload fails, and prints the failure underneath.
package browse

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/mzansiplatess/plates-cli/internal/data"
	"github.com/mzansiplatess/plates-cli/internal/models"
	"github.com/mzansiplatess/plates-cli/internal/tui"
	"github.com/mzansiplatess/plates-cli/internal/tui/empty"
)

// Tab identifies one of the browser's tabs.
type Tab int

const (
	TabRestaurants Tab = iota
	TabRecipes
	TabEvents
	tabCount
)

var tabNames = [tabCount]string{"Restaurants", "Recipes", "Events"}

func (t Tab) String() string {
	if t < 0 || t >= tabCount {
		return fmt.Sprintf("Tab(%d)", int(t))
	}
	return tabNames[t]
}

// ParseTab accepts a tab name in any case, singular or plural.
func ParseTab(s string) (Tab, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s") {
	case "", "restaurant":
		return TabRestaurants, nil
	case "recipe":
		return TabRecipes, nil
	case "event":
		return TabEvents, nil
	}
	return 0, fmt.Errorf("unknown tab %q (want restaurants, recipes or events)", s)
}

// row is one rendered line of a tab.
type row struct {
	title  string
	detail string
}

// view is what a tab shows at one instant.
type view struct {
	rows    []row
	loading bool
	err     string
	hasData bool
}

// section binds a tab to its pool without exposing the element type.
type section interface {
	key() string
	fetch(ctx context.Context) tea.Cmd
	fetchIfStale(ctx context.Context) tea.Cmd
	snapshot() view
}

type poolSection[T any] struct {
	pool   *data.Pool[T]
	render func(T) row
}

func (s poolSection[T]) key() string { return s.pool.Key() }

func (s poolSection[T]) fetch(ctx context.Context) tea.Cmd { return s.pool.Fetch(ctx) }

func (s poolSection[T]) fetchIfStale(ctx context.Context) tea.Cmd {
	return s.pool.FetchIfStale(ctx)
}

func (s poolSection[T]) snapshot() view {
	st := s.pool.Get()
	rows := make([]row, len(st.Data))
	for i, item := range st.Data {
		rows[i] = s.render(item)
	}
	msg, _ := st.ErrorMessage()
	return view{rows: rows, loading: st.Loading(), err: msg, hasData: st.HasData()}
}

func restaurantRow(r models.Restaurant) row {
	detail := r.City
	if r.Rating > 0 {
		detail += fmt.Sprintf(" · %.1f★", r.Rating)
	}
	return row{title: r.Name, detail: detail}
}

func recipeRow(r models.Recipe) row {
	detail := r.FormattedTime() + " · " + r.DifficultyLabel()
	if r.Rating > 0 {
		detail += fmt.Sprintf(" · %.1f★", r.Rating)
	}
	return row{title: r.Name, detail: detail}
}

func eventRow(e models.Event) row {
	detail := e.FormattedDateTime() + " · " + e.FormattedPrice()
	if e.IsFullyBooked() {
		detail += " · Fully booked"
	} else if spots, ok := e.SpotsRemaining(); ok {
		detail += fmt.Sprintf(" · %d spots left", spots)
	}
	return row{title: e.Name, detail: detail}
}

// Option configures a Model.
type Option func(*options)

type options struct {
	params models.SearchParams
	tab    Tab
	mode   string
	keys   KeyMap
}

// WithParams filters every tab.
func WithParams(p models.SearchParams) Option {
	return func(o *options) { o.params = p }
}

// WithTab selects the tab shown first.
func WithTab(t Tab) Option {
	return func(o *options) {
		if t >= 0 && t < tabCount {
			o.tab = t
		}
	}
}

// WithThemeMode picks the light or dark palette: system, light or dark.
func WithThemeMode(mode string) Option {
	return func(o *options) { o.mode = mode }
}

// Model is the browser's Bubble Tea model.
type Model struct {
	ctx      context.Context
	sections [tabCount]section
	cursor   [tabCount]int
	tab      Tab

	filtered bool

	keys    KeyMap
	styles  *tui.Styles
	spinner spinner.Model
	mode    string

	width, height int
}

// New creates a browser reading from hub.
func New(ctx context.Context, hub *data.Hub, opts ...Option) Model {
	o := options{tab: TabRestaurants, mode: tui.ModeSystem, keys: DefaultKeyMap()}
	for _, opt := range opts {
		opt(&o)
	}

	styles := tui.NewStyles()
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(tui.Pick(styles.Theme().Primary, o.mode)))

	return Model{
		ctx: ctx,
		sections: [tabCount]section{
			TabRestaurants: poolSection[models.Restaurant]{pool: hub.Restaurants(o.params), render: restaurantRow},
			TabRecipes:     poolSection[models.Recipe]{pool: hub.Recipes(o.params), render: recipeRow},
			TabEvents:      poolSection[models.Event]{pool: hub.Events(o.params), render: eventRow},
		},
		tab:      o.tab,
		filtered: o.params.Filtered(),
		keys:     o.keys,
		styles:   styles,
		spinner:  s,
		mode:     o.mode,
		width:    80,
		height:   24,
	}
}

// Tab returns the active tab.
func (m Model) Tab() Tab { return m.tab }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.sections[m.tab].fetchIfStale(m.ctx))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case data.UpdatedMsg:
		for t, s := range m.sections {
			if s.key() == msg.Key {
				m.clampCursor(Tab(t))
			}
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.NextTab):
		m.tab = (m.tab + 1) % tabCount
		return m, m.sections[m.tab].fetchIfStale(m.ctx)
	case key.Matches(msg, m.keys.PrevTab):
		m.tab = (m.tab + tabCount - 1) % tabCount
		return m, m.sections[m.tab].fetchIfStale(m.ctx)
	case key.Matches(msg, m.keys.Reload):
		// Fetch returns nil while a load is in flight, so repeated
		// presses never start a second request.
		return m, m.sections[m.tab].fetch(m.ctx)
	case key.Matches(msg, m.keys.Up):
		if m.cursor[m.tab] > 0 {
			m.cursor[m.tab]--
		}
	case key.Matches(msg, m.keys.Down):
		m.cursor[m.tab]++
		m.clampCursor(m.tab)
	}
	return m, nil
}

func (m *Model) clampCursor(t Tab) {
	n := len(m.sections[t].snapshot().rows)
	m.cursor[t] = max(0, min(m.cursor[t], n-1))
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	v := m.sections[m.tab].snapshot()
	name := strings.ToLower(m.tab.String())

	switch {
	case v.loading && !v.hasData:
		b.WriteString(m.spinner.View() + " Loading " + name + "...\n")
	case len(v.rows) == 0 && v.hasData:
		msg := m.emptyMessage()
		b.WriteString(m.styles.Muted.Render(msg.Title) + "\n")
		for _, line := range msg.Lines() {
			b.WriteString(m.styles.Help.Render(line) + "\n")
		}
	default:
		b.WriteString(m.renderRows(v.rows))
	}

	if v.err != "" {
		b.WriteString("\n" + m.styles.Error.Render("⚠ "+v.err) + m.styles.Muted.Render(" · press r to retry") + "\n")
	} else if v.loading && v.hasData {
		b.WriteString("\n" + m.spinner.View() + m.styles.Muted.Render(" Refreshing...") + "\n")
	}

	b.WriteString("\n" + m.renderHelp())
	return b.String()
}

func (m Model) emptyMessage() empty.Message {
	switch m.tab {
	case TabRecipes:
		return empty.NoRecipes(m.filtered)
	case TabEvents:
		return empty.NoEvents(m.filtered)
	}
	return empty.NoRestaurants(m.filtered)
}

func (m Model) renderTabs() string {
	tabs := make([]string, tabCount)
	for t := range tabCount {
		style := m.styles.Tab
		if t == m.tab {
			style = m.styles.ActiveTab
		}
		tabs[t] = style.Render(t.String())
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderRows(rows []row) string {
	// Tabs, blank line, status and help take six lines.
	visible := max(1, m.height-6)
	cursor := m.cursor[m.tab]
	start := 0
	if cursor >= visible {
		start = cursor - visible + 1
	}
	end := min(len(rows), start+visible)

	var b strings.Builder
	for i := start; i < end; i++ {
		r := rows[i]
		prefix := "  "
		title := m.styles.Body.Render(r.title)
		if i == cursor {
			prefix = m.styles.Cursor.Render("▸ ")
			title = m.styles.Selected.Render(r.title)
		}
		line := prefix + title + m.styles.Muted.Render("  "+r.detail)
		b.WriteString(ansi.Truncate(line, m.width, "…") + "\n")
	}
	return b.String()
}

func (m Model) renderHelp() string {
	parts := make([]string, 0, len(m.keys.ShortHelp()))
	for _, k := range m.keys.ShortHelp() {
		h := k.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return m.styles.Help.Render(strings.Join(parts, " · "))
}

// Run shows the browser until the user quits or ctx is done.
func Run(ctx context.Context, hub *data.Hub, opts ...Option) error {
	m := New(ctx, hub, opts...)
	tui.ApplyMode(m.mode)

	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
