package chatui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/groupchat-cli/internal/adapters/render/transcript"
	"github.com/bnema/groupchat-cli/internal/application"
	"github.com/bnema/groupchat-cli/internal/domain"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	minWidth     = 20
	chromeHeight = 5
	inputLimit   = 1024
	renameCmd    = "/name"
	awayCmd      = "/away"
	backCmd      = "/back"
	quitCmd      = "/quit"
)

// Session is the part of application.Session the UI drives.
type Session interface {
	View() application.View
	Changes() <-chan struct{}
	Done() <-chan struct{}
	Activate()
	Deactivate()
	Send(body string)
	Rename(name string) error
}

// NameStore persists a display name chosen in the UI.
type NameStore func(ctx context.Context, name string) error

type viewChangedMsg struct{}

type sessionDoneMsg struct{}

type nameSavedMsg struct {
	name string
	err  error
}

type model struct {
	ctx       context.Context
	session   Session
	saveName  NameStore
	view      application.View
	viewport  viewport.Model
	input     textinput.Model
	spinner   spinner.Model
	styles    transcript.Styles
	location  *time.Location
	width     int
	height    int
	ready     bool
	lastLive  uint64
	lastCount int
	notice    string
}

func newModel(ctx context.Context, session Session, saveName NameStore, loc *time.Location) model {
	input := textinput.New()
	input.Placeholder = "Type a message, /name <new name>, /away, /back or /quit"
	input.CharLimit = inputLimit
	input.Prompt = "> "
	input.Focus()

	spin := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	if loc == nil {
		loc = time.Local
	}

	return model{
		ctx:      ctx,
		session:  session,
		saveName: saveName,
		view:     session.View(),
		viewport: viewport.New(transcript.DefaultWidth, 10),
		input:    input,
		spinner:  spin,
		styles:   transcript.NewStyles(),
		location: loc,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, waitForChange(m.session))
}

func waitForChange(session Session) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-session.Changes():
			return viewChangedMsg{}
		case <-session.Done():
			return sessionDoneMsg{}
		}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = max(msg.Width, minWidth)
		m.height = msg.Height
		m.viewport.Width = m.width
		m.viewport.Height = max(msg.Height-chromeHeight, 1)
		m.input.Width = m.width - len(m.input.Prompt) - 1
		m.ready = true
		m.refresh(true)
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		case tea.KeyPgUp, tea.KeyPgDown, tea.KeyUp, tea.KeyDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	case viewChangedMsg:
		m.view = m.session.View()
		m.refresh(false)
		return m, waitForChange(m.session)
	case sessionDoneMsg:
		return m, tea.Quit
	case nameSavedMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("name %q not saved: %v", msg.name, msg.err)
		} else {
			m.notice = fmt.Sprintf("you are now %s", msg.name)
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	m.input.Reset()
	if text == "" {
		return m, nil
	}

	switch {
	case text == quitCmd:
		return m, tea.Quit
	case text == awayCmd:
		m.session.Deactivate()
		m.notice = "paused, type /back to rejoin"
		return m, nil
	case text == backCmd:
		m.session.Activate()
		m.notice = ""
		return m, nil
	case text == renameCmd || strings.HasPrefix(text, renameCmd+" "):
		return m.rename(strings.TrimSpace(strings.TrimPrefix(text, renameCmd)))
	}

	m.session.Send(text)
	return m, nil
}

func (m model) rename(name string) (tea.Model, tea.Cmd) {
	if err := m.session.Rename(name); err != nil {
		m.notice = err.Error()
		return m, nil
	}

	normalized, err := domain.NormalizeDisplayName(name)
	if err != nil || m.saveName == nil {
		return m, nil
	}

	ctx := m.ctx
	save := m.saveName
	return m, func() tea.Msg {
		return nameSavedMsg{name: normalized, err: save(ctx, normalized)}
	}
}

// refresh rebuilds the transcript and scrolls to the newest message when a
// live message arrived or the first page loaded.
func (m *model) refresh(force bool) {
	width := m.width
	if width == 0 {
		width = transcript.DefaultWidth
	}

	blocks := make([]string, 0, len(m.view.Messages))
	for _, msg := range m.view.Messages {
		blocks = append(blocks, transcript.FormatMessage(msg, width, m.location, m.styles))
	}
	content := strings.Join(blocks, "\n\n")
	if len(blocks) == 0 {
		content = m.styles.Empty.Render("No messages yet.")
	}
	m.viewport.SetContent(content)

	if force || m.view.LiveSeq != m.lastLive || (m.lastCount == 0 && len(m.view.Messages) > 0) {
		m.viewport.GotoBottom()
	}
	m.lastLive = m.view.LiveSeq
	m.lastCount = len(m.view.Messages)
}

func (m model) View() string {
	status := m.statusLine()

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.styles.Title.Render(transcript.Heading(m.view, m.styles)),
		transcript.MembersLine(m.view, m.styles),
		m.viewport.View(),
		status,
		m.input.View(),
	)
}

func (m model) statusLine() string {
	notice := m.notice
	if notice == "" {
		notice = m.view.Notice
	}

	var state string
	switch {
	case !m.view.Active:
		state = m.styles.Meta.Render("away")
	case !m.view.Connected:
		state = fmt.Sprintf("%s %s", m.spinner.View(), m.styles.Meta.Render("connecting..."))
	default:
		state = m.styles.Meta.Render(fmt.Sprintf("#%s as %s", m.view.Channel, m.view.Self.Label()))
	}

	if notice != "" {
		return lipgloss.JoinHorizontal(lipgloss.Top, state, "  ", m.styles.Warning.Render(notice))
	}
	return state
}
