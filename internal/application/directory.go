package application

import (
	"strings"

	"github.com/bnema/groupchat-cli/internal/domain"
)

type LookupOutcome string

const (
	LookupApplied    LookupOutcome = "applied"
	LookupNotFound   LookupOutcome = "not_found"
	LookupFailed     LookupOutcome = "failed"
	LookupSuperseded LookupOutcome = "superseded"
	LookupCancelled  LookupOutcome = "cancelled"
)

// LookupTicket identifies one metadata lookup issued by Directory.Resolve.
type LookupTicket struct {
	ID      domain.MemberID
	seq     uint64
	version uint64
}

type directoryEntry struct {
	name    string
	version uint64
	pending uint64
	settled bool
}

// Directory caches device id to display name mappings. It is not safe for
// concurrent use; the session loop owns it.
type Directory struct {
	entries map[domain.MemberID]*directoryEntry
	seq     uint64
}

func NewDirectory() *Directory {
	return &Directory{entries: map[domain.MemberID]*directoryEntry{}}
}

// Resolve returns the cached name for id, or id itself while unresolved.
// When issue is true the caller owns a new lookup and must report its result
// through CompleteLookup. At most one lookup per id is outstanding.
func (d *Directory) Resolve(id domain.MemberID) (name string, ticket LookupTicket, issue bool) {
	entry := d.entry(id)
	if entry.name != "" {
		return entry.name, LookupTicket{}, false
	}
	if entry.pending != 0 || entry.settled {
		return string(id), LookupTicket{}, false
	}

	d.seq++
	entry.pending = d.seq

	return string(id), LookupTicket{ID: id, seq: d.seq, version: entry.version}, true
}

// Name reports the cached name without issuing a lookup.
func (d *Directory) Name(id domain.MemberID) (string, bool) {
	entry, ok := d.entries[id]
	if !ok || entry.name == "" {
		return "", false
	}

	return entry.name, true
}

func (d *Directory) Label(id domain.MemberID) string {
	if name, ok := d.Name(id); ok {
		return name
	}

	return string(id)
}

// Override replaces the cached name. A lookup already in flight for id will
// not overwrite it. Blank names are ignored so a resolved id keeps its name.
func (d *Directory) Override(id domain.MemberID, name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}

	entry := d.entry(id)
	entry.name = name
	entry.version++
	entry.settled = true
	return true
}

func (d *Directory) CompleteLookup(ticket LookupTicket, name string, found bool, err error) LookupOutcome {
	entry, ok := d.entries[ticket.ID]
	if !ok || entry.pending == 0 || entry.pending != ticket.seq {
		return LookupCancelled
	}
	entry.pending = 0

	if entry.version != ticket.version {
		return LookupSuperseded
	}

	entry.settled = true
	if err != nil {
		return LookupFailed
	}

	name = strings.TrimSpace(name)
	if !found || name == "" {
		return LookupNotFound
	}

	entry.name = name
	return LookupApplied
}

// CancelLookups forgets every outstanding lookup so their results are
// ignored and the ids may be looked up again.
func (d *Directory) CancelLookups() int {
	cancelled := 0
	for _, entry := range d.entries {
		if entry.pending != 0 {
			entry.pending = 0
			cancelled++
		}
	}

	return cancelled
}

func (d *Directory) Pending(id domain.MemberID) bool {
	entry, ok := d.entries[id]
	return ok && entry.pending != 0
}

func (d *Directory) entry(id domain.MemberID) *directoryEntry {
	if d.entries == nil {
		d.entries = map[domain.MemberID]*directoryEntry{}
	}

	entry, ok := d.entries[id]
	if !ok {
		entry = &directoryEntry{}
		d.entries[id] = entry
	}

	return entry
}
