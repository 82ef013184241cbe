// Package interval implements the interval bookkeeper (spec §4.4): for
// every SummaryVertex it records the [birth, death] interval on the
// level axis, matching the block_to_interval_map bookkeeping in
// create_condensed_summary_graph_from_partitions.cpp.
package interval

import "github.com/R-van-Bakel/Multi-Summaries/internal/codec"

// Interval is a closed [Birth, Death] range on the level axis.
type Interval struct {
	Birth codec.Level
	Death codec.Level
}

// Book tracks the liveness interval of every summary vertex seen so far.
type Book struct {
	intervals map[codec.SummaryID]Interval
}

// New creates an empty Book.
func New() *Book {
	return &Book{intervals: make(map[codec.SummaryID]Interval)}
}

// Birth records that vertex id was born at level b. If the vertex has
// already been recorded, its birth is left untouched (first write wins,
// matching the source's map-insert-only-if-absent behavior for
// first-seen blocks).
func (b *Book) Birth(id codec.SummaryID, at codec.Level) {
	if _, ok := b.intervals[id]; ok {
		return
	}
	b.intervals[id] = Interval{Birth: at, Death: at}
}

// Die records that vertex id's last living level is d. Unlike Birth,
// Die always overwrites, since a vertex's death level only ever
// advances forward.
func (b *Book) Die(id codec.SummaryID, at codec.Level) {
	iv, ok := b.intervals[id]
	if !ok {
		b.intervals[id] = Interval{Birth: at, Death: at}
		return
	}
	iv.Death = at
	b.intervals[id] = iv
}

// SetBirth overwrites the birth level of an already-recorded vertex,
// for a vertex that needs an explicit, different-from-default birth
// level. (The universal block's interval is installed with Set.)
func (b *Book) SetBirth(id codec.SummaryID, at codec.Level) {
	iv, ok := b.intervals[id]
	if !ok {
		b.intervals[id] = Interval{Birth: at, Death: at}
		return
	}
	iv.Birth = at
	b.intervals[id] = iv
}

// Set directly installs the interval for id, overwriting any prior
// value. Used for vertices whose full interval is already known (the
// synthesized universal block, installed as [0,0]).
func (b *Book) Set(id codec.SummaryID, iv Interval) {
	b.intervals[id] = iv
}

// Get returns the interval recorded for id, if any.
func (b *Book) Get(id codec.SummaryID) (Interval, bool) {
	iv, ok := b.intervals[id]
	return iv, ok
}

// All returns every recorded (id, interval) pair. Iteration order is
// unspecified, matching the spec's "edge and interval records may be
// written in any order" guarantee.
func (b *Book) All() map[codec.SummaryID]Interval {
	return b.intervals
}

// Len returns the number of recorded vertices.
func (b *Book) Len() int {
	return len(b.intervals)
}
