package transcript

import (
	"strings"
	"testing"
	"time"

	"github.com/bnema/groupchat-cli/internal/application"
	"github.com/bnema/groupchat-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleView() application.View {
	at := time.Date(2026, 3, 14, 9, 30, 5, 0, time.UTC)

	return application.View{
		Channel: "group_chat",
		Heading: application.HeadingReady,
		Members: []application.MemberView{
			{Member: domain.Member{ID: "deviceA", DisplayName: "Alice"}},
			{Member: domain.Member{ID: "me"}, Self: true},
		},
		Messages: []application.MessageView{
			{
				ChatMessage: domain.ChatMessage{Body: "hi", Sender: "deviceA", Timetoken: 100, PublishedAt: at},
				SenderName:  "Alice",
			},
			{
				ChatMessage: domain.ChatMessage{Body: "hello back", Sender: "me", Timetoken: 200, PublishedAt: at.Add(time.Minute)},
				SenderName:  "me",
				Mine:        true,
			},
		},
	}
}

func TestRenderTranscript(t *testing.T) {
	t.Parallel()

	output, err := Render(sampleView(), RenderOptions{Width: 60, Location: time.UTC})
	require.NoError(t, err)

	assert.Contains(t, output, "Group Chat")
	assert.Contains(t, output, "Members Online: Alice, me")
	assert.Contains(t, output, "messages: 2")
	assert.Contains(t, output, "14 March 2026, 09:30:05")
	assert.Less(t, strings.Index(output, "hi"), strings.Index(output, "hello back"))
}

func TestRenderOwnMessagesAlignRight(t *testing.T) {
	t.Parallel()

	output, err := Render(sampleView(), RenderOptions{Width: 60, Location: time.UTC, Section: SectionMessages})
	require.NoError(t, err)
	assert.NotContains(t, output, "Members Online")

	for _, line := range strings.Split(output, "\n") {
		switch strings.TrimSpace(line) {
		case "hi":
			assert.True(t, strings.HasPrefix(line, "hi"), "other members start at the left edge")
		case "hello back":
			assert.True(t, strings.HasPrefix(line, " "), "own messages are pushed right")
		}
	}
}

func TestRenderMembersOnly(t *testing.T) {
	t.Parallel()

	output, err := Render(sampleView(), RenderOptions{Section: SectionMembers})
	require.NoError(t, err)

	assert.Contains(t, output, "Members Online: Alice, me")
	assert.NotContains(t, output, "hello back")
}

func TestRenderEmptyAndMissingKeys(t *testing.T) {
	t.Parallel()

	output, err := Render(application.View{Channel: "group_chat", Heading: application.HeadingMissingKeys}, RenderOptions{})
	require.NoError(t, err)

	assert.Contains(t, output, "MISSING KEYS")
	assert.Contains(t, output, "Members Online: none")
	assert.Contains(t, output, "No messages yet.")
}
