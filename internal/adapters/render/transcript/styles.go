package transcript

import "github.com/charmbracelet/lipgloss"

type Styles struct {
	Title   lipgloss.Style
	Header  lipgloss.Style
	Members lipgloss.Style
	Sender  lipgloss.Style
	Mine    lipgloss.Style
	Body    lipgloss.Style
	Meta    lipgloss.Style
	Warning lipgloss.Style
	Empty   lipgloss.Style
}

func NewStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true),
		Header:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Members: lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Sender:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Mine:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("159")),
		Body:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Meta:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Warning: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		Empty:   lipgloss.NewStyle().Faint(true),
	}
}
