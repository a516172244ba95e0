package domain

// PresenceEvent is one of JoinEvent, LeaveEvent or IntervalEvent.
type PresenceEvent interface {
	presenceEvent()
}

type JoinEvent struct {
	ID MemberID
}

// LeaveEvent covers both an explicit leave and a presence timeout.
type LeaveEvent struct {
	ID      MemberID
	Timeout bool
}

// IntervalEvent batches membership changes once a channel grows past the
// service's announce threshold. Refresh asks the client to query occupancy
// again because the delta was too large to deliver.
type IntervalEvent struct {
	Joined  []MemberID
	Left    []MemberID
	Refresh bool
}

func (JoinEvent) presenceEvent()     {}
func (LeaveEvent) presenceEvent()    {}
func (IntervalEvent) presenceEvent() {}

func (e IntervalEvent) Heartbeat() bool {
	return len(e.Joined) == 0 && len(e.Left) == 0 && !e.Refresh
}
