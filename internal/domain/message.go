package domain

import (
	"sort"
	"time"
)

// Timetoken is the ordering token assigned by the messaging service when a
// message is published. Tokens are unique and increasing per channel.
type Timetoken int64

type Origin int

const (
	OriginLive Origin = iota
	OriginHistory
)

func (o Origin) String() string {
	switch o {
	case OriginLive:
		return "live"
	case OriginHistory:
		return "history"
	default:
		return "unknown"
	}
}

type ChatMessage struct {
	Body        string
	Sender      MemberID
	Timetoken   Timetoken
	PublishedAt time.Time
	Origin      Origin
}

type MessageKey struct {
	Sender    MemberID
	Timetoken Timetoken
}

func (m ChatMessage) Key() MessageKey {
	return MessageKey{Sender: m.Sender, Timetoken: m.Timetoken}
}

// Timeline keeps messages ordered by ascending timetoken, unique by
// (sender, timetoken).
type Timeline struct {
	messages []ChatMessage
	seen     map[MessageKey]struct{}
}

// Insert places msg at its ordered position. It reports the index and false
// when an entry with the same key is already present.
func (t *Timeline) Insert(msg ChatMessage) (int, bool) {
	if t.seen == nil {
		t.seen = map[MessageKey]struct{}{}
	}

	key := msg.Key()
	if _, ok := t.seen[key]; ok {
		return -1, false
	}

	idx := sort.Search(len(t.messages), func(i int) bool {
		return t.messages[i].Timetoken > msg.Timetoken
	})

	t.messages = append(t.messages, ChatMessage{})
	copy(t.messages[idx+1:], t.messages[idx:])
	t.messages[idx] = msg
	t.seen[key] = struct{}{}

	return idx, true
}

func (t Timeline) Contains(key MessageKey) bool {
	_, ok := t.seen[key]
	return ok
}

func (t Timeline) Len() int {
	return len(t.messages)
}

func (t Timeline) Messages() []ChatMessage {
	out := make([]ChatMessage, len(t.messages))
	copy(out, t.messages)
	return out
}
