// Package replay implements the partition-replay engine (spec §4.2): it
// reads, in ascending level order, the per-level outcome and mapping
// files and maintains the current node-to-block assignment and its
// reverse block-membership index, detecting splits, dissolutions, and
// newly-minted singletons along the way.
//
// Grounded on the replay loop in
// create_condensed_summary_graph_from_partitions.cpp (the per-level
// read-mapping / read-outcome / diff-members sequence).
package replay

import (
	"github.com/R-van-Bakel/Multi-Summaries/internal/codec"
	"github.com/R-van-Bakel/Multi-Summaries/internal/identity"
	"github.com/R-van-Bakel/Multi-Summaries/internal/interval"
	"github.com/R-van-Bakel/Multi-Summaries/internal/partition"
)

// LevelSource supplies the per-level outcome and mapping records an
// Engine needs; satisfied by reading files from an experiment
// directory, or by an in-memory fixture in tests.
type LevelSource interface {
	// Outcome returns the outcome records for level, or an error if the
	// read fails.
	Outcome(level codec.Level) ([]partition.OutcomeRecord, error)
	// Mapping returns the mapping records from level-1 to level, or nil
	// if no such file exists (nothing split at level).
	Mapping(level codec.Level) ([]partition.MappingRecord, error)
	// HasLevelZero reports whether a level-0 outcome file exists.
	HasLevelZero() bool
}

// Engine replays the partition history and exposes the final
// node-to-block assignment plus every singleton birth observed along
// the way.
type Engine struct {
	ids *identity.Allocator
	ivs *interval.Book
	src LevelSource

	nodeToBlock  map[codec.NodeID]codec.SummaryID
	blockMembers map[codec.BlockID]map[codec.NodeID]struct{}
	// localGlobal is the global SummaryId currently held by each local
	// block id that is alive at the most recently replayed level. A
	// block that survives a level unnamed by any mapping record keeps
	// its entry (and its global id) unchanged; a split parent has its
	// entry removed and replaced by its children's own entries.
	localGlobal map[codec.BlockID]codec.SummaryID

	// SingletonsByLevel[level][parentLocal] lists the nodes that were
	// extracted out of parentLocal's block at that level.
	SingletonsByLevel map[codec.Level]map[codec.BlockID][]codec.NodeID

	startLevel codec.Level
}

// New creates a replay Engine bound to the given identity allocator,
// interval bookkeeper, and level source.
func New(ids *identity.Allocator, ivs *interval.Book, src LevelSource) *Engine {
	start := codec.Level(1)
	if src.HasLevelZero() {
		start = 0
	}
	return &Engine{
		ids:               ids,
		ivs:               ivs,
		src:               src,
		nodeToBlock:       make(map[codec.NodeID]codec.SummaryID),
		blockMembers:      make(map[codec.BlockID]map[codec.NodeID]struct{}),
		localGlobal:       make(map[codec.BlockID]codec.SummaryID),
		SingletonsByLevel: make(map[codec.Level]map[codec.BlockID][]codec.NodeID),
		startLevel:        start,
	}
}

// StartLevel returns ℓ₀: 0 if a level-0 outcome file exists, else 1.
func (e *Engine) StartLevel() codec.Level {
	return e.startLevel
}

// Run replays levels startLevel..finalLevel (inclusive) and returns the
// final node-to-block assignment.
func (e *Engine) Run(finalLevel codec.Level) (map[codec.NodeID]codec.SummaryID, error) {
	if err := e.applyStartLevel(); err != nil {
		return nil, err
	}
	for level := e.startLevel + 1; level <= finalLevel; level++ {
		if err := e.step(level); err != nil {
			return nil, err
		}
	}
	return e.nodeToBlock, nil
}

// applyStartLevel installs the initial partition at ℓ₀: every block
// named in outcome[ℓ₀] is born there.
func (e *Engine) applyStartLevel() error {
	records, err := e.src.Outcome(e.startLevel)
	if err != nil {
		return err
	}
	for _, rec := range records {
		global := e.ids.AddBlock(e.startLevel, rec.LocalBlockID)
		e.ivs.Birth(global, e.startLevel)
		e.installMembers(rec.LocalBlockID, global, rec.Nodes)
	}
	return nil
}

func (e *Engine) installMembers(local codec.BlockID, global codec.SummaryID, nodes []codec.NodeID) {
	members := make(map[codec.NodeID]struct{}, len(nodes))
	for _, n := range nodes {
		members[n] = struct{}{}
		e.nodeToBlock[n] = global
	}
	e.blockMembers[local] = members
	e.localGlobal[local] = global
}

// step replays a single level ℓ, per spec §4.2's three-part per-level
// algorithm: read mapping[ℓ-1→ℓ] to find parents-that-split, read
// outcome[ℓ] to install the new block membership (newly-born children
// get fresh global ids; survivors keep theirs), then diff old vs new
// membership for every split parent to discover freshly-minted
// singletons.
func (e *Engine) step(level codec.Level) error {
	mappings, err := e.src.Mapping(level)
	if err != nil {
		return err
	}

	splitParents := make(map[codec.BlockID][]codec.BlockID, len(mappings))
	parentOfChild := make(map[codec.BlockID]codec.BlockID)
	for _, m := range mappings {
		splitParents[m.ParentLocalID] = m.Children
		for _, c := range m.Children {
			if c != partition.SingletonSentinel {
				parentOfChild[c] = m.ParentLocalID
			}
		}
	}

	// Membership and global id of every splitting parent, captured
	// before it is dropped, so the singleton diff below can compare
	// against it and record its death.
	membersBefore := make(map[codec.BlockID]map[codec.NodeID]struct{}, len(splitParents))
	globalBefore := make(map[codec.BlockID]codec.SummaryID, len(splitParents))
	for parent := range splitParents {
		if members, ok := e.blockMembers[parent]; ok {
			membersBefore[parent] = members
		}
		if global, ok := e.localGlobal[parent]; ok {
			globalBefore[parent] = global
		}
		delete(e.blockMembers, parent)
		delete(e.localGlobal, parent)
	}

	records, err := e.src.Outcome(level)
	if err != nil {
		return err
	}

	// childMembersByParent collects, per splitting parent, the union of
	// its non-singleton children's new membership, subtracted from
	// membersBefore below to discover newly-minted singletons.
	childMembersByParent := make(map[codec.BlockID]map[codec.NodeID]struct{})

	for _, rec := range records {
		var global codec.SummaryID
		if parent, isChild := parentOfChild[rec.LocalBlockID]; isChild {
			global = e.ids.AddBlock(level, rec.LocalBlockID)
			e.ivs.Birth(global, level)
			if childMembersByParent[parent] == nil {
				childMembersByParent[parent] = make(map[codec.NodeID]struct{})
			}
			for _, n := range rec.Nodes {
				childMembersByParent[parent][n] = struct{}{}
			}
		} else if existing, ok := e.localGlobal[rec.LocalBlockID]; ok {
			// Survives unnamed by the mapping: same vertex, same id.
			global = existing
		} else {
			// First appearance outside of any declared split (e.g. a
			// locally-reused id after its prior owner dissolved).
			global = e.ids.AddBlock(level, rec.LocalBlockID)
			e.ivs.Birth(global, level)
		}
		e.installMembers(rec.LocalBlockID, global, rec.Nodes)
	}

	for parent, before := range membersBefore {
		parentGlobal, ok := globalBefore[parent]
		if !ok {
			continue
		}
		e.ivs.Die(parentGlobal, level-1)

		after := childMembersByParent[parent]
		for n := range before {
			if _, stillPresent := after[n]; stillPresent {
				continue
			}
			sid := codec.SingletonID(uint64(n))
			e.ivs.Birth(sid, level)
			e.nodeToBlock[n] = sid
			if e.SingletonsByLevel[level] == nil {
				e.SingletonsByLevel[level] = make(map[codec.BlockID][]codec.NodeID)
			}
			e.SingletonsByLevel[level][parent] = append(e.SingletonsByLevel[level][parent], n)
		}
	}

	return nil
}

// NodeToBlock returns the current node-to-block assignment. Valid after
// Run returns.
func (e *Engine) NodeToBlock() map[codec.NodeID]codec.SummaryID {
	return e.nodeToBlock
}

// BlockMembers returns the current reverse index from local block id (at
// the final replayed level) to its member node set.
func (e *Engine) BlockMembers() map[codec.BlockID]map[codec.NodeID]struct{} {
	return e.blockMembers
}

// LocalGlobal returns the current local-block-id to global-SummaryId
// map, as it stands at the most recently replayed level.
func (e *Engine) LocalGlobal() map[codec.BlockID]codec.SummaryID {
	return e.localGlobal
}
