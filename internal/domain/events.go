package domain

// Event is delivered by a channel subscription: MessageEvent, PresenceChange
// or IdentityChange.
type Event interface {
	event()
}

type MessageEvent struct {
	Channel string
	Message ChatMessage
}

type PresenceChange struct {
	Channel  string
	Presence PresenceEvent
}

// IdentityChange reports that a member's identity metadata was updated.
type IdentityChange struct {
	ID   MemberID
	Name string
}

func (MessageEvent) event()   {}
func (PresenceChange) event() {}
func (IdentityChange) event() {}
