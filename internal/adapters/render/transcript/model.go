package transcript

import (
	"errors"
	"io"

	"github.com/bnema/groupchat-cli/internal/application"
	tea "github.com/charmbracelet/bubbletea"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final bubbletea model type")

type renderReadyMsg struct{}

type model struct {
	view   application.View
	opts   RenderOptions
	styles Styles
	output string
}

func newModel(view application.View, opts RenderOptions) model {
	return model{
		view:   view,
		opts:   opts,
		styles: NewStyles(),
	}
}

func (m model) Init() tea.Cmd {
	return func() tea.Msg {
		return renderReadyMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case renderReadyMsg:
		m.output = renderView(m.view, m.opts, m.styles)
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m model) View() string {
	return m.output
}

// Render draws view once without a terminal and returns the text.
func Render(view application.View, opts RenderOptions) (string, error) {
	p := tea.NewProgram(
		newModel(view, opts),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	rendered, ok := finalModel.(model)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}

	return rendered.View(), nil
}
