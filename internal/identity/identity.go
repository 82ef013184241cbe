// Package identity implements the global identity allocator (spec §4.3):
// it assigns a monotonically increasing positive SummaryID to every
// distinct (level, local block id) pair the first time that pair is
// seen, and never allocates an id for a singleton (those are derived
// directly from the node id by the codec package).
//
// Grounded on LocalBlockToGlobalBlockMap in
// create_condensed_summary_graph_from_partitions.cpp: a monotonic
// counter plus a (level, local_id) -> global_id map, paired with the
// reverse (global_id -> level, local_id) map needed to write the
// local/global map output file.
package identity

import (
	"github.com/R-van-Bakel/Multi-Summaries/internal/codec"
)

type key struct {
	level codec.Level
	local codec.BlockID
}

// Allocator assigns globally unique SummaryIDs to (level, local block
// id) pairs. Create one with New; the zero value is not usable (its
// maps are nil). The first id it ever allocates is 1 and 0 is never
// allocated; the universal block gets an ordinary id via UniversalBlock.
type Allocator struct {
	next       codec.SummaryID
	forward    map[key]codec.SummaryID
	reverse    map[codec.SummaryID]key
	usedUniver bool
}

// New creates a ready-to-use Allocator.
func New() *Allocator {
	return &Allocator{
		next:    1,
		forward: make(map[key]codec.SummaryID),
		reverse: make(map[codec.SummaryID]key),
	}
}

// AddBlock returns the global SummaryID for (level, local), allocating a
// fresh one on first sight and returning the existing one on every
// subsequent call with the same pair. This mirrors
// LocalBlockToGlobalBlockMap::add_block in the source: idempotent,
// monotonic, never revisits an id once assigned.
func (a *Allocator) AddBlock(level codec.Level, local codec.BlockID) codec.SummaryID {
	k := key{level: level, local: local}
	if id, ok := a.forward[k]; ok {
		return id
	}
	id := a.next
	a.next++
	a.forward[k] = id
	a.reverse[id] = k
	return id
}

// UniversalBlock allocates (or returns the already-allocated) global id
// for the synthetic universal block at level 0, local id 0. It is
// allocated exactly like any other block but is only ever invoked once
// per run.
func (a *Allocator) UniversalBlock() codec.SummaryID {
	a.usedUniver = true
	return a.AddBlock(0, 0)
}

// Lookup returns the global id already assigned to (level, local), and
// whether it has been assigned yet.
func (a *Allocator) Lookup(level codec.Level, local codec.BlockID) (codec.SummaryID, bool) {
	id, ok := a.forward[key{level: level, local: local}]
	return id, ok
}

// Origin returns the (level, local block id) pair a previously-allocated
// global id was born from.
func (a *Allocator) Origin(id codec.SummaryID) (level codec.Level, local codec.BlockID, ok bool) {
	k, ok := a.reverse[id]
	return k.level, k.local, ok
}

// Count returns the number of distinct global ids allocated so far.
func (a *Allocator) Count() int {
	return len(a.forward)
}

// Entry is one (level, local block id) -> global id allocation.
type Entry struct {
	Level  codec.Level
	Local  codec.BlockID
	Global codec.SummaryID
}

// All returns every allocation made so far, in unspecified order.
func (a *Allocator) All() []Entry {
	entries := make([]Entry, 0, len(a.forward))
	for k, id := range a.forward {
		entries = append(entries, Entry{Level: k.level, Local: k.local, Global: id})
	}
	return entries
}
