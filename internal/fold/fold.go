// Package fold implements the edge folder (spec §4.5): it streams the
// original data triples once to fold them into the terminal-level
// quotient (Phase I), then walks backward through every earlier level,
// lifting edges incident to vertices that die at each step until the
// whole condensed multi-level summary graph is materialized (Phase II).
//
// Grounded on the two-phase structure of the replay/fold loop in
// create_condensed_summary_graph_from_partitions.cpp: the single
// streaming pass building the terminal quotient, followed by the
// backward loop over mapping files that lifts dying vertices' incident
// edges one level at a time using the reverse index.
package fold

import (
	"io"

	"github.com/R-van-Bakel/Multi-Summaries/internal/codec"
	"github.com/R-van-Bakel/Multi-Summaries/internal/identity"
	"github.com/R-van-Bakel/Multi-Summaries/internal/interval"
	"github.com/R-van-Bakel/Multi-Summaries/internal/partition"
	"github.com/R-van-Bakel/Multi-Summaries/internal/summarygraph"
)

// SplitToMerged maps a child SummaryId (alive at some level ℓ) to its
// parent SummaryId at level ℓ-1. Vertices absent from the map survive
// unchanged (identity).
type SplitToMerged map[codec.SummaryID]codec.SummaryID

// imageOf returns m's image of id, or id itself if id is not in m's
// domain (a survivor, not a vertex dying at this step).
func (m SplitToMerged) imageOf(id codec.SummaryID) codec.SummaryID {
	if parent, ok := m[id]; ok {
		return parent
	}
	return id
}

// BuildSplitToMerged constructs the split_to_merged relation for the
// transition from level childLevel-1 to childLevel, from that
// transition's mapping records. Non-singleton children are resolved
// through the identity allocator (already born at childLevel); a
// sentinel child (0) means one or more singletons were extracted at
// childLevel, resolved from singletonsBornHere, keyed by parent local id.
func BuildSplitToMerged(
	mappings []partition.MappingRecord,
	childLevel codec.Level,
	ids *identity.Allocator,
	singletonsBornHere map[codec.BlockID][]codec.NodeID,
) SplitToMerged {
	rel := make(SplitToMerged)
	for _, m := range mappings {
		parentGlobal, ok := ids.Lookup(childLevel-1, m.ParentLocalID)
		if !ok {
			continue
		}
		for _, c := range m.Children {
			if c == partition.SingletonSentinel {
				for _, n := range singletonsBornHere[m.ParentLocalID] {
					rel[codec.SingletonID(n)] = parentGlobal
				}
				continue
			}
			childGlobal, ok := ids.Lookup(childLevel, c)
			if !ok {
				continue
			}
			rel[childGlobal] = parentGlobal
		}
	}
	return rel
}

// Config describes the end-of-replay state the folder needs to decide
// which terminal-folding branch to take.
type Config struct {
	FinalDepth   codec.Level
	FixedPoint   bool
	HasLevelZero bool
}

// immediateStop reports whether replay never had a mapping file to
// consult: the start level is already at or past the declared final
// depth, so exactly one outcome file was ever read. This is the
// degenerate case spec §4.5 singles out for special terminal handling
// ("K=1 with no explicit level-0 outcome, or K=0 with one").
func (c Config) immediateStop() bool {
	startLevel := codec.Level(1)
	if c.HasLevelZero {
		startLevel = 0
	}
	return startLevel >= c.FinalDepth
}

// Folder assembles the condensed multi-level summary graph into a
// summarygraph.Store.
type Folder struct {
	store *summarygraph.Store
	ids   *identity.Allocator
	ivs   *interval.Book
}

// New creates a Folder writing into store, consulting ids and ivs for
// identity/interval bookkeeping (the same instances the replay engine
// used).
func New(store *summarygraph.Store, ids *identity.Allocator, ivs *interval.Book) *Folder {
	return &Folder{store: store, ids: ids, ivs: ivs}
}

// FoldTerminal runs Phase I: stream every triple from r, map both
// endpoints through nodeToBlock, then through the terminal relation
// implied by cfg, inserting the resulting edge into the store.
//
// Returns the synthesized universal vertex id, if one was minted (0
// otherwise — 0 is never a real id).
func (f *Folder) FoldTerminal(
	r *partition.TripleReader,
	nodeToBlock map[codec.NodeID]codec.SummaryID,
	cfg Config,
	terminalRelation SplitToMerged,
) (universal codec.SummaryID, err error) {
	switch {
	case cfg.immediateStop():
		return f.foldImmediateStop(r, nodeToBlock)
	case cfg.FixedPoint:
		return 0, f.foldSelfRefine(r, nodeToBlock)
	default:
		return 0, f.foldThroughRelation(r, nodeToBlock, terminalRelation)
	}
}

func (f *Folder) foldSelfRefine(r *partition.TripleReader, nodeToBlock map[codec.NodeID]codec.SummaryID) error {
	for {
		t, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		f.store.Insert(nodeToBlock[t.Subject], t.Predicate, nodeToBlock[t.Object])
	}
}

func (f *Folder) foldThroughRelation(r *partition.TripleReader, nodeToBlock map[codec.NodeID]codec.SummaryID, rel SplitToMerged) error {
	for {
		t, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		s := rel.imageOf(nodeToBlock[t.Subject])
		o := rel.imageOf(nodeToBlock[t.Object])
		f.store.Insert(s, t.Predicate, o)
	}
}

// foldImmediateStop handles the degenerate "only one outcome file ever
// read" case. When that file named more than one terminal block, those
// blocks already form a valid forest on their own and fold
// self-refining, same as the general fixed-point branch. When it named
// exactly one block (spanning every node seen), that block cannot also
// serve as the root of its own refinement forest, so a synthetic
// universal vertex is minted at level 0 and every triple's object is
// pointed at it, giving the lone terminal block a well-defined parent
// (this is the documented resolution of the spec's own "immediate
// stop" ambiguity; see DESIGN.md).
func (f *Folder) foldImmediateStop(r *partition.TripleReader, nodeToBlock map[codec.NodeID]codec.SummaryID) (codec.SummaryID, error) {
	distinct := make(map[codec.SummaryID]struct{})
	for _, b := range nodeToBlock {
		distinct[b] = struct{}{}
	}
	if len(distinct) > 1 {
		return 0, f.foldSelfRefine(r, nodeToBlock)
	}

	universal := f.ids.UniversalBlock()
	f.ivs.Set(universal, interval.Interval{Birth: 0, Death: 0})
	for {
		t, err := r.Next()
		if err == io.EOF {
			return universal, nil
		}
		if err != nil {
			return universal, err
		}
		f.store.Insert(nodeToBlock[t.Subject], t.Predicate, universal)
	}
}

// LiftLevel runs one iteration of Phase II's backward-lifting loop: for
// every vertex in rel's domain (alive at the child level, dying here),
// lift every incident edge in the store down to its image under rel.
func (f *Folder) LiftLevel(rel SplitToMerged) {
	for dying := range rel {
		for _, e := range f.store.Reverse(dying) {
			f.store.Insert(rel.imageOf(e.Subject), e.Predicate, rel.imageOf(dying))
		}
		for _, e := range f.store.Forward(dying) {
			f.store.Insert(rel.imageOf(dying), e.Predicate, rel.imageOf(e.Object))
		}
	}
}

// Store returns the underlying summary-graph store.
func (f *Folder) Store() *summarygraph.Store {
	return f.store
}
