package codec

// NodeID identifies a graph node as assigned by the external entity
// mapping. Never exceeds 2^40-1.
type NodeID = uint64

// PredicateID identifies an edge label as assigned by the external
// relation mapping.
type PredicateID = uint32

// BlockID identifies a block within a single level's partition. 0 is a
// reserved sentinel (never a real block).
type BlockID = uint32

// Level is a bisimulation-depth index, 0 (coarsest) through K (final).
type Level = uint16

// SummaryID is the globally unique, signed 40-bit identity of a
// condensed summary vertex: positive for non-singleton blocks, negative
// for singletons, 0 reserved for the synthetic universal block.
type SummaryID = int64
