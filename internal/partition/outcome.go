// Package partition reads the per-level partition artifacts produced by
// the (external) bisimulation solver: outcome files (the authoritative
// block membership at a level) and mapping files (parent-to-child
// relations between consecutive levels). Grounded on the outcome/mapping
// parsing loops in create_condensed_summary_graph_from_partitions.cpp,
// reimplemented on top of internal/codec's fixed-width reader.
package partition

import (
	"fmt"
	"io"
	"os"

	"github.com/R-van-Bakel/Multi-Summaries/internal/codec"
	apperrors "github.com/R-van-Bakel/Multi-Summaries/pkg/errors"
)

// OutcomeRecord is one block's membership at a level: a local block id
// and the set of node ids currently assigned to it.
type OutcomeRecord struct {
	LocalBlockID codec.BlockID
	Nodes        []codec.NodeID
}

// ReadOutcome parses an entire outcome file: a sequence of
// (local_block_id BLOCK, size BLOCK, node_id ENTITY x size) records,
// read until clean EOF.
func ReadOutcome(path string) ([]OutcomeRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Wrap(apperrors.CodeInputNotFound, "outcome file not found", err).WithLocation("replay", path, -1)
		}
		return nil, apperrors.Wrap(apperrors.CodeIoError, "failed to open outcome file", err).WithLocation("replay", path, -1)
	}
	defer f.Close()

	r := codec.NewReader(f)
	var records []OutcomeRecord
	var idx int64
	for {
		localID, err := r.ReadBlock()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, wrapStage(err, "replay", path, idx)
		}
		size, err := r.ReadBlock()
		if err != nil {
			return nil, wrapStage(err, "replay", path, idx)
		}
		nodes := make([]codec.NodeID, size)
		for i := range nodes {
			nodes[i], err = r.ReadEntity()
			if err != nil {
				return nil, wrapStage(err, "replay", path, idx)
			}
		}
		records = append(records, OutcomeRecord{LocalBlockID: localID, Nodes: nodes})
		idx++
	}
	return records, nil
}

func wrapStage(err error, stage, file string, idx int64) error {
	if ae, ok := err.(*apperrors.AppError); ok {
		return ae.WithLocation(stage, file, idx)
	}
	return apperrors.Wrap(apperrors.CodeIoError, fmt.Sprintf("unexpected error reading %s", file), err).WithLocation(stage, file, idx)
}
