package quotient

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R-van-Bakel/Multi-Summaries/internal/codec"
	"github.com/R-van-Bakel/Multi-Summaries/internal/identity"
	"github.com/R-van-Bakel/Multi-Summaries/internal/interval"
	"github.com/R-van-Bakel/Multi-Summaries/internal/partition"
	"github.com/R-van-Bakel/Multi-Summaries/internal/replay"
	"github.com/R-van-Bakel/Multi-Summaries/internal/summarygraph"
)

func writeOutcome(t *testing.T, path string, records []partition.OutcomeRecord) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	w := codec.NewWriter(f)
	for _, rec := range records {
		require.NoError(t, w.WriteBlock(rec.LocalBlockID))
		require.NoError(t, w.WriteBlock(uint32(len(rec.Nodes))))
		for _, n := range rec.Nodes {
			require.NoError(t, w.WriteEntity(n))
		}
	}
	require.NoError(t, w.Flush())
}

func writeMapping(t *testing.T, path string, records []partition.MappingRecord) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	w := codec.NewWriter(f)
	for _, rec := range records {
		require.NoError(t, w.WriteBlock(rec.ParentLocalID))
		require.NoError(t, w.WriteBlock(uint32(len(rec.Children))))
		for _, c := range rec.Children {
			require.NoError(t, w.WriteBlock(c))
		}
	}
	require.NoError(t, w.Flush())
}

// setupS3 writes the on-disk partition artifacts for scenario S3
// (single split) and returns the experiment directory plus the
// SummaryIds the deterministic replay assigns.
func setupS3(t *testing.T) (dir string, b, c, sing2 codec.SummaryID) {
	t.Helper()
	dir = t.TempDir()
	writeOutcome(t, partition.OutcomePath(dir, 0), []partition.OutcomeRecord{
		{LocalBlockID: 1, Nodes: []codec.NodeID{0, 1, 2}},
	})
	writeOutcome(t, partition.OutcomePath(dir, 1), []partition.OutcomeRecord{
		{LocalBlockID: 1, Nodes: []codec.NodeID{0, 1}},
	})
	writeMapping(t, partition.MappingPath(dir, 0, 1), []partition.MappingRecord{
		{ParentLocalID: 1, Children: []codec.BlockID{1, partition.SingletonSentinel}},
	})

	ids := identity.New()
	ivs := interval.New()
	eng := replay.New(ids, ivs, replay.NewFileSource(dir))
	_, err := eng.Run(1)
	require.NoError(t, err)

	b, _ = ids.Lookup(0, 1)
	c, _ = ids.Lookup(1, 1)
	sing2 = codec.SingletonID(2)
	return dir, b, c, sing2
}

func TestExtractLevelZero(t *testing.T) {
	dir, b, c, sing2 := setupS3(t)
	edges := []summarygraph.Edge{
		{Subject: b, Predicate: 0, Object: b},
		{Subject: c, Predicate: 0, Object: sing2},
		{Subject: sing2, Predicate: 0, Object: sing2},
	}

	q, err := ExtractLevel(dir, 0, edges)
	require.NoError(t, err)

	assert.Len(t, q.Vertices, 1)
	_, ok := q.Vertices[b]
	assert.True(t, ok)
	assert.Equal(t, []summarygraph.Edge{{Subject: b, Predicate: 0, Object: b}}, q.Edges)
}

func TestExtractFixedPointAtLevelOne(t *testing.T) {
	_, b, c, sing2 := setupS3(t)
	ivs := map[codec.SummaryID]interval.Interval{
		b:     {Birth: 0, Death: 0},
		c:     {Birth: 1, Death: 1},
		sing2: {Birth: 1, Death: 1},
	}
	edges := []summarygraph.Edge{
		{Subject: b, Predicate: 0, Object: b},
		{Subject: c, Predicate: 0, Object: sing2},
		{Subject: sing2, Predicate: 0, Object: sing2},
	}

	q := ExtractFixedPoint(ivs, edges, 1)
	assert.Len(t, q.Vertices, 2)
	assert.ElementsMatch(t, []summarygraph.Edge{
		{Subject: c, Predicate: 0, Object: sing2},
		{Subject: sing2, Predicate: 0, Object: sing2},
	}, q.Edges)
}

func TestUsedVertexCountIgnoresDisconnected(t *testing.T) {
	q := &LevelQuotient{
		Vertices: map[codec.SummaryID]struct{}{1: {}, 2: {}, 3: {}},
		Edges:    []summarygraph.Edge{{Subject: 1, Predicate: 0, Object: 2}},
	}
	assert.Equal(t, 2, UsedVertexCount(q))
}
