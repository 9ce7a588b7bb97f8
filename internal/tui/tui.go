package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sokinpui/apf/apf"
	"github.com/sokinpui/apf/cli"
	"github.com/sokinpui/apf/model"
)

// --- Styles ---
var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")) // Mauve
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))            // Green
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("197"))           // Red
	pathStyle    = lipgloss.NewStyle()
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

// --- Messages ---
type summaryMsg struct {
	model.Summary
}

type errorMsg struct{ err error }

func (e errorMsg) Error() string { return e.err.Error() }

type progressMsg struct {
	current int
	total   int
}

// --- Model ---
type Model struct {
	app     *apf.App
	cfg     *cli.Config
	spinner spinner.Model
	state   state
	summary summaryMsg
	err     error
	current int
	total   int
}

type state int

const (
	stateProcessing state = iota
	stateSummary
	stateError
)

func New(app *apf.App, cfg *cli.Config) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return Model{
		app:     app,
		cfg:     cfg,
		spinner: s,
		state:   stateProcessing,
	}
}

// SetProgram wires progress updates from the app into the running program.
func (m Model) SetProgram(p *tea.Program) {
	m.app.SetProgressCallback(func(current, total int) {
		p.Send(progressMsg{current: current, total: total})
	})
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.runApp)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case progressMsg:
		m.current = msg.current
		m.total = msg.total
		return m, nil

	case summaryMsg:
		m.state = stateSummary
		m.summary = msg
		return m, tea.Quit

	case errorMsg:
		m.state = stateError
		m.err = msg
		return m, tea.Quit

	default:
		var cmd tea.Cmd
		if m.state == stateProcessing {
			m.spinner, cmd = m.spinner.Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	switch m.state {
	case stateProcessing:
		if m.total > 0 {
			return fmt.Sprintf("%s %s (%d/%d)", m.spinner.View(), m.verb(), m.current, m.total)
		}
		return fmt.Sprintf("%s %s", m.spinner.View(), m.verb())
	case stateError:
		return errorStyle.Render("Error: ", m.err.Error())
	case stateSummary:
		return m.renderSummary()
	default:
		return ""
	}
}

func (m Model) verb() string {
	switch {
	case m.cfg.Undo:
		return "Undoing last operation..."
	case m.cfg.Redo:
		return "Redoing last operation..."
	default:
		return "Applying patch..."
	}
}

func (m *Model) renderSummary() string {
	var b strings.Builder

	if m.summary.Message != "" {
		b.WriteString(headerStyle.Render(m.summary.Message))
		b.WriteString("\n\n")
	}

	renderGroup(&b, successStyle, "Created:", m.summary.Created)
	renderGroup(&b, successStyle, "Updated:", m.summary.Updated)
	renderGroup(&b, successStyle, "Moved:", m.summary.Moved)
	renderGroup(&b, successStyle, "Deleted:", m.summary.Deleted)
	renderGroup(&b, errorStyle, "Failed:", m.summary.Failed)

	if m.summary.Empty() {
		b.WriteString(faintStyle.Render("Nothing to do."))
	}

	return b.String()
}

func renderGroup(b *strings.Builder, style lipgloss.Style, label string, paths []string) {
	if len(paths) == 0 {
		return
	}
	b.WriteString(style.Render(label))
	b.WriteString("\n")
	for _, f := range paths {
		b.WriteString(fmt.Sprintf("  %s\n", pathStyle.Render(f)))
	}
}

func (m *Model) runApp() tea.Msg {
	summary, err := m.app.Execute()
	if err != nil {
		// Check for detailed error to print stack
		if e, ok := err.(*apf.DetailedError); ok {
			// The TUI will exit, so we can print to stderr here for the stack trace.
			fmt.Fprintf(os.Stderr, "\n--- Stack Trace ---\n%s\n", e.Stack)
		}
		return errorMsg{err}
	}
	return summaryMsg{
		Summary: summary,
	}
}
