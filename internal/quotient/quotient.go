// Package quotient implements the quotient extractor (spec §4.7): given
// a target level ℓ (or the fixed-point depth), it derives the set of
// SummaryVertices alive at that level, the data edges among them, and
// the mapping from each vertex to the original entity names it
// comprises.
//
// Grounded on create_quotient_graph_from_condensed_summary.cpp's two
// branches: the fixed-point branch (reading intervals directly) and the
// general branch (replaying mapping files from level 0 forward). Here
// the general branch's "alive local blocks" bookkeeping is obtained by
// re-running the same deterministic replay.Engine used at assembly
// time, rather than duplicating its split/singleton tracking a second
// time — replay is a pure function of the on-disk partition files, so
// two independent runs over the same files allocate identical
// SummaryIds.
package quotient

import (
	"github.com/R-van-Bakel/Multi-Summaries/internal/codec"
	"github.com/R-van-Bakel/Multi-Summaries/internal/fold"
	"github.com/R-van-Bakel/Multi-Summaries/internal/identity"
	"github.com/R-van-Bakel/Multi-Summaries/internal/interval"
	"github.com/R-van-Bakel/Multi-Summaries/internal/ioformat"
	"github.com/R-van-Bakel/Multi-Summaries/internal/partition"
	"github.com/R-van-Bakel/Multi-Summaries/internal/replay"
	"github.com/R-van-Bakel/Multi-Summaries/internal/summarygraph"
	"github.com/R-van-Bakel/Multi-Summaries/pkg/collections"
)

// LevelQuotient is the derived view of the condensed graph at one level.
type LevelQuotient struct {
	Vertices map[codec.SummaryID]struct{}
	Edges    []summarygraph.Edge
	Contains map[codec.SummaryID][]string
}

// replayState is the result of replaying from ℓ₀ up to (and including)
// level: which local blocks are alive, translated to SummaryIds, plus
// the allocator and per-level singleton births needed to consult it
// further (e.g. to build a refines relation one level ahead).
type replayState struct {
	alive             map[codec.SummaryID]struct{}
	ids               *identity.Allocator
	singletonsByLevel map[codec.Level]map[codec.BlockID][]codec.NodeID
	startLevel        codec.Level
}

func replayTo(experimentDir string, level codec.Level) (replayState, error) {
	src := replay.NewFileSource(experimentDir)
	ids := identity.New()
	ivs := interval.New()
	eng := replay.New(ids, ivs, src)
	nodeToBlock, err := eng.Run(level)
	if err != nil {
		return replayState{}, err
	}
	alive := make(map[codec.SummaryID]struct{})
	for _, g := range eng.LocalGlobal() {
		alive[g] = struct{}{}
	}
	for _, b := range nodeToBlock {
		if codec.IsSingleton(b) {
			alive[b] = struct{}{}
		}
	}
	return replayState{
		alive:             alive,
		ids:               ids,
		singletonsByLevel: eng.SingletonsByLevel,
		startLevel:        eng.StartLevel(),
	}, nil
}

// ExtractFixedPoint implements §4.7 algorithm branch 1: select every
// SummaryVertex whose recorded death equals fixedDepth (the interval
// bookkeeper's convention for "lives forever"), and keep exactly the
// condensed edges whose endpoints both lie in that set.
func ExtractFixedPoint(ivs map[codec.SummaryID]interval.Interval, edges []summarygraph.Edge, fixedDepth codec.Level) *LevelQuotient {
	alive := make(map[codec.SummaryID]struct{})
	for id, iv := range ivs {
		if iv.Death == fixedDepth {
			alive[id] = struct{}{}
		}
	}
	var kept []summarygraph.Edge
	for _, e := range edges {
		_, sOK := alive[e.Subject]
		_, oOK := alive[e.Object]
		if sOK && oOK {
			kept = append(kept, e)
		}
	}
	return &LevelQuotient{Vertices: alive, Edges: kept}
}

// ExtractLevel implements §4.7 algorithm branch 2: replay up to level to
// find the alive set, build the refines relation from mapping[level ->
// level+1] to lift subjects newly born at level+1 back to their alive
// parent, then filter the condensed edges.
func ExtractLevel(experimentDir string, level codec.Level, edges []summarygraph.Edge) (*LevelQuotient, error) {
	state, err := replayTo(experimentDir, level)
	if err != nil {
		return nil, err
	}

	mappingNext, err := partition.ReadMapping(partition.MappingPath(experimentDir, level, level+1))
	if err != nil {
		return nil, err
	}

	var refines fold.SplitToMerged
	if len(mappingNext) > 0 {
		nextState, err := replayTo(experimentDir, level+1)
		if err != nil {
			return nil, err
		}
		refines = fold.BuildSplitToMerged(mappingNext, level+1, nextState.ids, nextState.singletonsByLevel[level+1])
	}

	var kept []summarygraph.Edge
	for _, e := range edges {
		_, sAlive := state.alive[e.Subject]
		_, oAlive := state.alive[e.Object]
		if sAlive && oAlive {
			kept = append(kept, e)
			continue
		}
		if parent, bornNext := refines[e.Subject]; bornNext && oAlive {
			if _, parentAlive := state.alive[parent]; parentAlive {
				kept = append(kept, summarygraph.Edge{Subject: parent, Predicate: e.Predicate, Object: e.Object})
			}
		}
	}

	return &LevelQuotient{Vertices: state.alive, Edges: kept}, nil
}

// ExtractContains walks outcome[ℓ₀..level] (or ℓ₀..K for the
// fixed-point query) and emits, for every block in the alive set, the
// names of the nodes it contains; singletons are emitted directly from
// the node id encoded in their SummaryId.
func ExtractContains(
	experimentDir string,
	startLevel, uptoLevel codec.Level,
	alive map[codec.SummaryID]struct{},
	localGlobal []ioformat.LocalGlobalEntry,
	names map[uint64]string,
) (map[codec.SummaryID][]string, error) {
	byLevelLocal := make(map[codec.Level]map[codec.BlockID]codec.SummaryID)
	for _, e := range localGlobal {
		if byLevelLocal[e.Level] == nil {
			byLevelLocal[e.Level] = make(map[codec.BlockID]codec.SummaryID)
		}
		byLevelLocal[e.Level][e.Local] = e.Global
	}

	contains := make(map[codec.SummaryID][]string)
	for level := startLevel; level <= uptoLevel; level++ {
		records, err := partition.ReadOutcome(partition.OutcomePath(experimentDir, level))
		if err != nil {
			continue
		}
		for _, rec := range records {
			global, ok := byLevelLocal[level][rec.LocalBlockID]
			if !ok {
				continue
			}
			if _, isAlive := alive[global]; !isAlive {
				continue
			}
			for _, n := range rec.Nodes {
				contains[global] = append(contains[global], names[n])
			}
		}
	}

	for id := range alive {
		if codec.IsSingleton(id) {
			node := codec.NodeOfSingleton(id)
			contains[id] = []string{names[node]}
		}
	}

	return contains, nil
}

// UsedVertexCount returns the number of alive vertices that actually
// appear as an edge endpoint (spec §8 scenario S6: disconnected
// vertices may have a smaller used-vertex count than the total alive
// count). Block ids and singleton ids are tracked in separate bitsets
// rather than a map, the same liveness-tracking idiom the rest of the
// pack uses for dense integer-keyed membership sets, sized on demand
// since neither a run's block count nor its node id range is known in
// advance.
func UsedVertexCount(q *LevelQuotient) int {
	blocks := collections.NewBitset(64)
	singles := collections.NewBitset(64)
	for _, e := range q.Edges {
		markUsed(blocks, singles, e.Subject)
		markUsed(blocks, singles, e.Object)
	}
	return blocks.Count() + singles.Count()
}

func markUsed(blocks, singles *collections.Bitset, id codec.SummaryID) {
	if codec.IsSingleton(id) {
		singles.Set(int(codec.NodeOfSingleton(id)))
		return
	}
	blocks.Set(int(id))
}
