package application

import (
	"strings"

	"github.com/bnema/groupchat-cli/internal/domain"
)

const (
	HeadingReady       = "Group Chat"
	HeadingMissingKeys = "MISSING KEYS"
)

type MemberView struct {
	domain.Member
	Self bool
}

type MessageView struct {
	domain.ChatMessage
	SenderName string
	Mine       bool
}

// View is an immutable snapshot of a session handed to renderers.
type View struct {
	Channel string
	Heading string
	Epoch   uint64
	Active  bool
	// Connected is true once the live subscription of this epoch is open.
	Connected bool
	Self      domain.Member
	Members   []MemberView
	Messages  []MessageView
	// LiveSeq grows each time a live message is inserted.
	LiveSeq uint64
	Notice  string
}

func (v View) MemberNames() []string {
	names := make([]string, 0, len(v.Members))
	for _, member := range v.Members {
		names = append(names, member.Label())
	}

	return names
}

func (v View) MembersLine() string {
	return "Members Online: " + strings.Join(v.MemberNames(), ", ")
}
