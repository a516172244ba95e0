package application

import (
	"fmt"

	"github.com/bnema/groupchat-cli/internal/domain"
)

type PresenceState int

const (
	PresenceInactive PresenceState = iota
	PresenceActive
)

func (s PresenceState) String() string {
	if s == PresenceActive {
		return "active"
	}

	return "inactive"
}

type PresenceOutcome struct {
	Added     []domain.MemberID
	Removed   []domain.MemberID
	Refresh   bool
	Heartbeat bool
}

func (o PresenceOutcome) Changed() bool {
	return len(o.Added) > 0 || len(o.Removed) > 0
}

// PresenceTracker reconciles occupancy snapshots and presence events into a
// roster. Snapshots only ever add; removals come from events.
type PresenceTracker struct {
	state  PresenceState
	roster domain.Roster
}

func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{roster: domain.NewRoster()}
}

func (p *PresenceTracker) State() PresenceState {
	return p.state
}

func (p *PresenceTracker) Active() bool {
	return p.state == PresenceActive
}

func (p *PresenceTracker) Activate() bool {
	if p.state == PresenceActive {
		return false
	}

	p.state = PresenceActive
	return true
}

// Deactivate freezes the roster. The last known members are kept for
// redisplay.
func (p *PresenceTracker) Deactivate() bool {
	if p.state == PresenceInactive {
		return false
	}

	p.state = PresenceInactive
	return true
}

func (p *PresenceTracker) Roster() domain.Roster {
	return domain.NewRoster(p.roster.IDs()...)
}

func (p *PresenceTracker) Len() int {
	return p.roster.Len()
}

func (p *PresenceTracker) IDs() []domain.MemberID {
	return p.roster.IDs()
}

func (p *PresenceTracker) ApplySnapshot(ids []domain.MemberID) []domain.MemberID {
	if !p.Active() {
		return nil
	}

	added := make([]domain.MemberID, 0, len(ids))
	for _, id := range ids {
		if p.roster.Add(id) {
			added = append(added, id)
		}
	}

	return added
}

func (p *PresenceTracker) Join(id domain.MemberID) bool {
	if !p.Active() {
		return false
	}

	return p.roster.Add(id)
}

func (p *PresenceTracker) Leave(id domain.MemberID) bool {
	if !p.Active() {
		return false
	}

	return p.roster.Remove(id)
}

// ApplyIntervalDelta applies joined before left.
func (p *PresenceTracker) ApplyIntervalDelta(joined, left []domain.MemberID) PresenceOutcome {
	var out PresenceOutcome
	if !p.Active() {
		return out
	}

	for _, id := range joined {
		if p.roster.Add(id) {
			out.Added = append(out.Added, id)
		}
	}
	for _, id := range left {
		if p.roster.Remove(id) {
			out.Removed = append(out.Removed, id)
		}
	}

	out.Heartbeat = len(joined) == 0 && len(left) == 0
	return out
}

func (p *PresenceTracker) Apply(event domain.PresenceEvent) (PresenceOutcome, error) {
	switch ev := event.(type) {
	case domain.JoinEvent:
		if p.Join(ev.ID) {
			return PresenceOutcome{Added: []domain.MemberID{ev.ID}}, nil
		}
		return PresenceOutcome{}, nil
	case domain.LeaveEvent:
		if p.Leave(ev.ID) {
			return PresenceOutcome{Removed: []domain.MemberID{ev.ID}}, nil
		}
		return PresenceOutcome{}, nil
	case domain.IntervalEvent:
		out := p.ApplyIntervalDelta(ev.Joined, ev.Left)
		out.Refresh = ev.Refresh && p.Active()
		return out, nil
	default:
		return PresenceOutcome{}, fmt.Errorf("%w: %T", domain.ErrUnknownPresenceEvent, event)
	}
}
