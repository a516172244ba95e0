package application

import (
	"testing"

	"github.com/bnema/groupchat-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type unknownPresence struct{ domain.PresenceEvent }

func activeTracker(t *testing.T, ids ...domain.MemberID) *PresenceTracker {
	t.Helper()

	p := NewPresenceTracker()
	require.True(t, p.Activate())
	p.ApplySnapshot(ids)
	return p
}

func TestPresenceJoinAndLeave(t *testing.T) {
	t.Parallel()

	p := activeTracker(t, "A", "B")

	_, err := p.Apply(domain.JoinEvent{ID: "C"})
	require.NoError(t, err)
	_, err = p.Apply(domain.LeaveEvent{ID: "A"})
	require.NoError(t, err)

	assert.Equal(t, []domain.MemberID{"B", "C"}, p.IDs())
}

func TestPresenceTimeoutRemovesMember(t *testing.T) {
	t.Parallel()

	p := activeTracker(t, "A", "B")
	out, err := p.Apply(domain.LeaveEvent{ID: "B", Timeout: true})
	require.NoError(t, err)

	assert.Equal(t, []domain.MemberID{"B"}, out.Removed)
	assert.Equal(t, []domain.MemberID{"A"}, p.IDs())
}

func TestPresenceEmptyIntervalIsHeartbeat(t *testing.T) {
	t.Parallel()

	p := activeTracker(t, "A", "B")
	out, err := p.Apply(domain.IntervalEvent{})
	require.NoError(t, err)

	assert.True(t, out.Heartbeat)
	assert.False(t, out.Changed())
	assert.False(t, out.Refresh)
	assert.Equal(t, []domain.MemberID{"A", "B"}, p.IDs())
}

func TestPresenceIntervalDeltaAppliesJoinedThenLeft(t *testing.T) {
	t.Parallel()

	p := activeTracker(t, "A")
	out, err := p.Apply(domain.IntervalEvent{
		Joined: []domain.MemberID{"B", "C"},
		Left:   []domain.MemberID{"A", "C"},
	})
	require.NoError(t, err)

	assert.Equal(t, []domain.MemberID{"B", "C"}, out.Added)
	assert.Equal(t, []domain.MemberID{"A", "C"}, out.Removed)
	assert.Equal(t, []domain.MemberID{"B"}, p.IDs())
}

func TestPresenceIntervalRefreshRequestsSnapshot(t *testing.T) {
	t.Parallel()

	p := activeTracker(t, "A")
	out, err := p.Apply(domain.IntervalEvent{Refresh: true})
	require.NoError(t, err)
	assert.True(t, out.Refresh)
}

func TestPresenceSnapshotOnlyAdds(t *testing.T) {
	t.Parallel()

	p := activeTracker(t, "A", "B")
	added := p.ApplySnapshot([]domain.MemberID{"B", "C"})

	assert.Equal(t, []domain.MemberID{"C"}, added)
	assert.Equal(t, []domain.MemberID{"A", "B", "C"}, p.IDs())
}

func TestPresenceIgnoresEventsWhileInactive(t *testing.T) {
	t.Parallel()

	p := activeTracker(t, "A")
	require.True(t, p.Deactivate())
	assert.False(t, p.Deactivate())
	assert.Equal(t, PresenceInactive, p.State())

	out, err := p.Apply(domain.JoinEvent{ID: "B"})
	require.NoError(t, err)
	assert.False(t, out.Changed())
	out, err = p.Apply(domain.IntervalEvent{Refresh: true})
	require.NoError(t, err)
	assert.False(t, out.Refresh)
	assert.Empty(t, p.ApplySnapshot([]domain.MemberID{"C"}))

	assert.Equal(t, []domain.MemberID{"A"}, p.IDs(), "roster is kept while inactive")
}

func TestPresenceUnknownEvent(t *testing.T) {
	t.Parallel()

	p := activeTracker(t)
	_, err := p.Apply(unknownPresence{})
	require.ErrorIs(t, err, domain.ErrUnknownPresenceEvent)
}
