package partition

import (
	"io"
	"os"

	"github.com/R-van-Bakel/Multi-Summaries/internal/codec"
	apperrors "github.com/R-van-Bakel/Multi-Summaries/pkg/errors"
)

// SingletonSentinel is the reserved child_local_id value meaning "one or
// more singletons were extracted here" rather than a real block.
const SingletonSentinel codec.BlockID = 0

// MappingRecord describes how one parent block at level ℓ-1 relates to
// its children at level ℓ.
type MappingRecord struct {
	ParentLocalID codec.BlockID
	Children      []codec.BlockID
}

// Dissolved reports whether this record represents the parent dissolving
// entirely into singletons: exactly one child, and it is the sentinel.
func (m MappingRecord) Dissolved() bool {
	return len(m.Children) == 1 && m.Children[0] == SingletonSentinel
}

// ReadMapping parses an entire mapping file: a sequence of
// (parent_local_id BLOCK, child_count BLOCK, child_local_id BLOCK x
// count) records, read until clean EOF. Returns (nil, nil) if path does
// not exist, since a mapping file between two levels is optional (e.g.
// the level never split anything new).
func ReadMapping(path string) ([]MappingRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.CodeIoError, "failed to open mapping file", err).WithLocation("replay", path, -1)
	}
	defer f.Close()

	r := codec.NewReader(f)
	var records []MappingRecord
	var idx int64
	for {
		parent, err := r.ReadBlock()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, wrapStage(err, "replay", path, idx)
		}
		count, err := r.ReadBlock()
		if err != nil {
			return nil, wrapStage(err, "replay", path, idx)
		}
		children := make([]codec.BlockID, count)
		for i := range children {
			children[i], err = r.ReadBlock()
			if err != nil {
				return nil, wrapStage(err, "replay", path, idx)
			}
		}
		records = append(records, MappingRecord{ParentLocalID: parent, Children: children})
		idx++
	}
	return records, nil
}
