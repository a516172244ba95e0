package transcript

import (
	"fmt"
	"strings"
	"time"

	"github.com/bnema/groupchat-cli/internal/application"
	"github.com/charmbracelet/lipgloss"
)

// TimeLayout is how publish times are shown.
const TimeLayout = "02 January 2006, 15:04:05"

const DefaultWidth = 72

type Section int

const (
	SectionAll Section = iota
	SectionMembers
	SectionMessages
)

type RenderOptions struct {
	Width    int
	Location *time.Location
	Section  Section
}

func (o RenderOptions) withDefaults() RenderOptions {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	return o
}

func renderView(view application.View, opts RenderOptions, s Styles) string {
	opts = opts.withDefaults()

	lines := []string{s.Title.Render(Heading(view, s))}
	if opts.Section != SectionMessages {
		lines = append(lines, MembersLine(view, s))
	}
	if opts.Section == SectionMembers {
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	lines = append(lines, s.Header.Render(fmt.Sprintf("channel: %s  messages: %d", view.Channel, len(view.Messages))))
	if len(view.Messages) == 0 {
		lines = append(lines, s.Empty.Render("No messages yet."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, msg := range view.Messages {
		lines = append(lines, "", FormatMessage(msg, opts.Width, opts.Location, s))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func Heading(view application.View, s Styles) string {
	if view.Heading == application.HeadingMissingKeys {
		return s.Warning.Render(view.Heading)
	}

	return view.Heading
}

func MembersLine(view application.View, s Styles) string {
	if len(view.Members) == 0 {
		return s.Empty.Render("Members Online: none")
	}

	return s.Members.Render(view.MembersLine())
}

// FormatMessage renders one message block. Messages sent by this device are
// aligned to the right edge of width.
func FormatMessage(msg application.MessageView, width int, loc *time.Location, s Styles) string {
	if loc == nil {
		loc = time.Local
	}

	sender := s.Sender.Render(msg.SenderName)
	if msg.Mine {
		sender = s.Mine.Render(msg.SenderName)
	}

	header := sender
	if !msg.PublishedAt.IsZero() {
		header = lipgloss.JoinHorizontal(lipgloss.Top, sender, " ", s.Meta.Render(msg.PublishedAt.In(loc).Format(TimeLayout)))
	}

	body := s.Body.Render(strings.TrimRight(msg.Body, "\n"))
	block := lipgloss.JoinVertical(lipgloss.Left, header, body)
	if msg.Mine {
		block = lipgloss.JoinVertical(lipgloss.Right, header, body)
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, block)
	}

	return block
}
