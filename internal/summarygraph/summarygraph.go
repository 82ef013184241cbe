// Package summarygraph implements the in-memory summary-graph store
// (spec §4.6): a mutable index from SummaryId to the set of
// (PredicateId, SummaryId) pairs it points to, plus a continuously
// maintained reverse index, so that "edges incident to a dying vertex"
// lookups used by the edge folder's backward-lifting phase are O(1) to
// find rather than O(|all edges|).
//
// Grounded on the SummaryGraph / SummaryPredicateObjectSet classes in
// create_condensed_summary_graph_from_partitions.cpp, adapted from
// their fixed-arity C++ containers to Go maps of sets since insertion
// here is genuinely dynamic (unlike the teacher's frozen CSR graphs).
package summarygraph

import "github.com/R-van-Bakel/Multi-Summaries/internal/codec"

// Edge is one data edge of the condensed summary graph.
type Edge struct {
	Subject   codec.SummaryID
	Predicate codec.PredicateID
	Object    codec.SummaryID
}

type po struct {
	Predicate codec.PredicateID
	Other     codec.SummaryID
}

// Store is the mutable summary-graph index. The zero value is not
// ready; use New.
type Store struct {
	forward map[codec.SummaryID]map[po]struct{} // subject -> {(predicate, object)}
	reverse map[codec.SummaryID]map[po]struct{} // object -> {(predicate, subject)}
	count   int
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		forward: make(map[codec.SummaryID]map[po]struct{}),
		reverse: make(map[codec.SummaryID]map[po]struct{}),
	}
}

// Insert adds (s, p, o) to the store. Idempotent: inserting an
// already-present edge is a no-op.
func (s *Store) Insert(subject codec.SummaryID, predicate codec.PredicateID, object codec.SummaryID) bool {
	key := po{Predicate: predicate, Other: object}
	if fwd, ok := s.forward[subject]; ok {
		if _, exists := fwd[key]; exists {
			return false
		}
	}
	s.addForward(subject, key)
	s.addReverse(object, po{Predicate: predicate, Other: subject})
	s.count++
	return true
}

func (s *Store) addForward(subject codec.SummaryID, key po) {
	if s.forward[subject] == nil {
		s.forward[subject] = make(map[po]struct{})
	}
	s.forward[subject][key] = struct{}{}
}

func (s *Store) addReverse(object codec.SummaryID, key po) {
	if s.reverse[object] == nil {
		s.reverse[object] = make(map[po]struct{})
	}
	s.reverse[object][key] = struct{}{}
}

// Remove deletes (s, p, o) from the store, if present.
func (s *Store) Remove(subject codec.SummaryID, predicate codec.PredicateID, object codec.SummaryID) {
	key := po{Predicate: predicate, Other: object}
	if fwd, ok := s.forward[subject]; ok {
		if _, exists := fwd[key]; exists {
			delete(fwd, key)
			s.count--
			if len(fwd) == 0 {
				delete(s.forward, subject)
			}
		}
	}
	rkey := po{Predicate: predicate, Other: subject}
	if rev, ok := s.reverse[object]; ok {
		delete(rev, rkey)
		if len(rev) == 0 {
			delete(s.reverse, object)
		}
	}
}

// Forward returns every (predicate, object) pair subject points to.
func (s *Store) Forward(subject codec.SummaryID) []Edge {
	fwd := s.forward[subject]
	out := make([]Edge, 0, len(fwd))
	for k := range fwd {
		out = append(out, Edge{Subject: subject, Predicate: k.Predicate, Object: k.Other})
	}
	return out
}

// Reverse returns every (predicate, subject) pair pointing at object.
func (s *Store) Reverse(object codec.SummaryID) []Edge {
	rev := s.reverse[object]
	out := make([]Edge, 0, len(rev))
	for k := range rev {
		out = append(out, Edge{Subject: k.Other, Predicate: k.Predicate, Object: object})
	}
	return out
}

// All returns every edge currently in the store. Order is unspecified.
func (s *Store) All() []Edge {
	out := make([]Edge, 0, s.count)
	for subject, fwd := range s.forward {
		for k := range fwd {
			out = append(out, Edge{Subject: subject, Predicate: k.Predicate, Object: k.Other})
		}
	}
	return out
}

// Len returns the number of distinct edges currently stored.
func (s *Store) Len() int {
	return s.count
}

// Vertices returns every SummaryId that appears as an edge endpoint
// (subject or object) in the store. A vertex with an interval but no
// incident edge (spec §8 property 6 / scenario S6) will not appear
// here; use the interval bookkeeper for full vertex existence.
func (s *Store) Vertices() map[codec.SummaryID]struct{} {
	out := make(map[codec.SummaryID]struct{})
	for subject, fwd := range s.forward {
		if len(fwd) > 0 {
			out[subject] = struct{}{}
		}
	}
	for object, rev := range s.reverse {
		if len(rev) > 0 {
			out[object] = struct{}{}
		}
	}
	return out
}
