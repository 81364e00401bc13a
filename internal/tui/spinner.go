package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrCanceled is returned when the user quits a spinner before it finishes.
var ErrCanceled = errors.New("canceled")

type spinnerModel struct {
	spinner  spinner.Model
	message  string
	done     bool
	err      error
	styles   *Styles
	quitting bool
}

type spinnerDoneMsg struct {
	err error
}

func newSpinnerModel(message string) spinnerModel {
	styles := NewStyles()
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Cursor
	return spinnerModel{spinner: s, message: message, styles: styles}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
	case spinnerDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.quitting || m.done {
		return ""
	}
	return fmt.Sprintf("%s %s\n", m.spinner.View(), m.message)
}

// RunWithSpinner shows message next to a spinner until fn returns.
func RunWithSpinner(message string, fn func() error) error {
	p := tea.NewProgram(newSpinnerModel(message))

	go func() {
		p.Send(spinnerDoneMsg{err: fn()})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return err
	}
	final := finalModel.(spinnerModel) //nolint:errcheck // only model type this program runs
	if final.quitting {
		return ErrCanceled
	}
	return final.err
}
