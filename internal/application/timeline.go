package application

import "github.com/bnema/groupchat-cli/internal/domain"

type TimelineMerger struct {
	timeline domain.Timeline
}

func NewTimelineMerger() *TimelineMerger {
	return &TimelineMerger{}
}

// LoadBackfill merges a history page into the timeline and reports how many
// entries were new and how many were already present.
func (m *TimelineMerger) LoadBackfill(msgs []domain.ChatMessage) (added int, duplicates int) {
	for _, msg := range msgs {
		msg.Origin = domain.OriginHistory
		if _, ok := m.timeline.Insert(msg); ok {
			added++
			continue
		}
		duplicates++
	}

	return added, duplicates
}

func (m *TimelineMerger) OnLiveMessage(msg domain.ChatMessage) (int, bool) {
	msg.Origin = domain.OriginLive
	return m.timeline.Insert(msg)
}

func (m *TimelineMerger) Len() int {
	return m.timeline.Len()
}

func (m *TimelineMerger) Messages() []domain.ChatMessage {
	return m.timeline.Messages()
}
