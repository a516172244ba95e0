package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// loadStep is one stage of fetching channel state, shown on the spinner line.
type loadStep struct {
	label string
	run   func(context.Context) error
}

type stepDoneMsg struct {
	index int
	err   error
}

type loaderModel struct {
	ctx     context.Context
	spinner spinner.Model
	steps   []loadStep
	summary func() string
	current int
	err     error
	done    bool
}

var (
	loaderOK   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	loaderFail = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func newLoaderModel(ctx context.Context, summary func() string, steps []loadStep) loaderModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return loaderModel{
		ctx:     ctx,
		spinner: s,
		steps:   steps,
		summary: summary,
	}
}

func (m loaderModel) Init() tea.Cmd {
	if len(m.steps) == 0 {
		return func() tea.Msg { return stepDoneMsg{index: -1} }
	}
	return tea.Batch(m.spinner.Tick, m.runStep(0))
}

func (m loaderModel) runStep(i int) tea.Cmd {
	step := m.steps[i]
	ctx := m.ctx
	return func() tea.Msg {
		return stepDoneMsg{index: i, err: step.run(ctx)}
	}
}

func (m loaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case stepDoneMsg:
		if msg.err != nil {
			m.done = true
			m.err = msg.err
			return m, tea.Quit
		}

		m.current = msg.index + 1
		if m.current >= len(m.steps) {
			m.done = true
			return m, tea.Quit
		}
		return m, m.runStep(m.current)
	default:
		return m, nil
	}
}

func (m loaderModel) View() string {
	if !m.done {
		if len(m.steps) == 0 {
			return ""
		}
		return fmt.Sprintf("%s %s (%d/%d)", m.spinner.View(), m.steps[m.current].label, m.current+1, len(m.steps))
	}
	if m.err != nil {
		return loaderFail.Render("✗ "+m.steps[m.current].label+" failed") + "\n"
	}
	if m.summary == nil {
		return ""
	}

	return loaderOK.Render("✓ "+m.summary()) + "\n"
}

// load runs steps in order. Unless quiet, progress and the summary line are
// drawn on output.
func load(ctx context.Context, output io.Writer, quiet bool, summary func() string, steps ...loadStep) error {
	if quiet {
		for _, step := range steps {
			if err := step.run(ctx); err != nil {
				return err
			}
		}
		return nil
	}

	p := tea.NewProgram(
		newLoaderModel(ctx, summary, steps),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(loaderModel)
	if !ok {
		return fmt.Errorf("unexpected final loader model type %T", finalModel)
	}

	return result.err
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
