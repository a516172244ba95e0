package application

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryResolveReturnsIDUntilLookupCompletes(t *testing.T) {
	t.Parallel()

	d := NewDirectory()

	label, ticket, issue := d.Resolve("deviceA")
	require.True(t, issue)
	assert.Equal(t, "deviceA", label)

	label, _, issue = d.Resolve("deviceA")
	assert.False(t, issue, "second resolve must not issue another lookup")
	assert.Equal(t, "deviceA", label)

	assert.Equal(t, LookupApplied, d.CompleteLookup(ticket, "Alice", true, nil))

	label, _, issue = d.Resolve("deviceA")
	assert.False(t, issue)
	assert.Equal(t, "Alice", label)
}

func TestDirectoryOverrideWinsOverInFlightLookup(t *testing.T) {
	t.Parallel()

	d := NewDirectory()
	_, ticket, issue := d.Resolve("deviceA")
	require.True(t, issue)

	d.Override("deviceA", "Alicia")

	assert.Equal(t, LookupSuperseded, d.CompleteLookup(ticket, "Alice", true, nil))
	assert.Equal(t, "Alicia", d.Label("deviceA"))
}

func TestDirectoryLookupOutcomes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		lookup    string
		found     bool
		err       error
		expected  LookupOutcome
		wantLabel string
	}{
		{name: "found", lookup: "Alice", found: true, expected: LookupApplied, wantLabel: "Alice"},
		{name: "blank name", lookup: "  ", found: true, expected: LookupNotFound, wantLabel: "deviceA"},
		{name: "missing", found: false, expected: LookupNotFound, wantLabel: "deviceA"},
		{name: "failure", err: errors.New("boom"), expected: LookupFailed, wantLabel: "deviceA"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := NewDirectory()
			_, ticket, issue := d.Resolve("deviceA")
			require.True(t, issue)

			assert.Equal(t, tt.expected, d.CompleteLookup(ticket, tt.lookup, tt.found, tt.err))
			label, _, again := d.Resolve("deviceA")
			assert.Equal(t, tt.wantLabel, label)
			assert.False(t, again, "settled ids are not looked up again")
		})
	}
}

func TestDirectoryCancelLookupsDropsLateResults(t *testing.T) {
	t.Parallel()

	d := NewDirectory()
	_, first, issue := d.Resolve("deviceA")
	require.True(t, issue)
	assert.True(t, d.Pending("deviceA"))

	assert.Equal(t, 1, d.CancelLookups())
	assert.False(t, d.Pending("deviceA"))
	assert.Equal(t, LookupCancelled, d.CompleteLookup(first, "Alice", true, nil))

	_, second, issue := d.Resolve("deviceA")
	require.True(t, issue, "cancelled ids can be looked up again")

	assert.Equal(t, LookupCancelled, d.CompleteLookup(first, "Stale", true, nil))
	assert.Equal(t, LookupApplied, d.CompleteLookup(second, "Alice", true, nil))
	assert.Equal(t, "Alice", d.Label("deviceA"))
}

func TestDirectoryNameDoesNotIssueLookups(t *testing.T) {
	t.Parallel()

	d := NewDirectory()
	_, ok := d.Name("deviceA")
	assert.False(t, ok)
	assert.False(t, d.Pending("deviceA"))

	d.Override("deviceA", " Alice ")
	name, ok := d.Name("deviceA")
	assert.True(t, ok)
	assert.Equal(t, "Alice", name)
}

func TestDirectoryOverrideIgnoresBlankName(t *testing.T) {
	t.Parallel()

	d := NewDirectory()
	require.True(t, d.Override("deviceA", "Alice"))

	assert.False(t, d.Override("deviceA", "  "))
	assert.False(t, d.Override("deviceB", ""))
	assert.Equal(t, "Alice", d.Label("deviceA"))

	_, _, issue := d.Resolve("deviceB")
	assert.True(t, issue, "blank override must not settle an unknown id")
}
