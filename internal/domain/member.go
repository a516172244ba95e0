package domain

import (
	"sort"
	"strings"
)

type MemberID string

// Member is a device observed on a channel. An empty DisplayName means the
// name has not been resolved yet.
type Member struct {
	ID          MemberID
	DisplayName string
}

func (m Member) Label() string {
	if name := strings.TrimSpace(m.DisplayName); name != "" {
		return name
	}

	return string(m.ID)
}

func (m Member) Resolved() bool {
	return strings.TrimSpace(m.DisplayName) != ""
}

// Roster is the set of members currently present on one channel.
type Roster struct {
	members map[MemberID]struct{}
}

func NewRoster(ids ...MemberID) Roster {
	r := Roster{members: make(map[MemberID]struct{}, len(ids))}
	for _, id := range ids {
		r.Add(id)
	}

	return r
}

func (r *Roster) Add(id MemberID) bool {
	if strings.TrimSpace(string(id)) == "" {
		return false
	}
	if r.members == nil {
		r.members = map[MemberID]struct{}{}
	}
	if _, ok := r.members[id]; ok {
		return false
	}

	r.members[id] = struct{}{}
	return true
}

func (r *Roster) Remove(id MemberID) bool {
	if _, ok := r.members[id]; !ok {
		return false
	}

	delete(r.members, id)
	return true
}

func (r Roster) Contains(id MemberID) bool {
	_, ok := r.members[id]
	return ok
}

func (r Roster) Len() int {
	return len(r.members)
}

// IDs returns the members in ascending order.
func (r Roster) IDs() []MemberID {
	ids := make([]MemberID, 0, len(r.members))
	for id := range r.members {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}
