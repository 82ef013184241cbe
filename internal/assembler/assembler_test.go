package assembler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R-van-Bakel/Multi-Summaries/internal/codec"
	"github.com/R-van-Bakel/Multi-Summaries/internal/ioformat"
	"github.com/R-van-Bakel/Multi-Summaries/internal/partition"
	"github.com/R-van-Bakel/Multi-Summaries/internal/quotient"
	"github.com/R-van-Bakel/Multi-Summaries/internal/summarygraph"
)

func writeGraphStats(t *testing.T, dir string, finalDepth int, fixedPoint bool) {
	t.Helper()
	path := partition.GraphStatsPath(dir)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	content := `{"Final depth": ` + itoa(finalDepth) + `, "Vertex count": 0, "Fixed point": ` + boolStr(fixedPoint) + `}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	if neg {
		b = append([]byte{'-'}, b...)
	}
	return string(b)
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func writeOutcomeFile(t *testing.T, path string, records []partition.OutcomeRecord) {
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

func writeMappingFile(t *testing.T, path string, records []partition.MappingRecord) {
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

func writeTriples(t *testing.T, dir string, triples []partition.Triple) {
	t.Helper()
	path := partition.BinaryEncodingPath(dir)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	w := codec.NewWriter(f)
	for _, tr := range triples {
		require.NoError(t, w.WriteEntity(tr.Subject))
		require.NoError(t, w.WritePredicate(tr.Predicate))
		require.NoError(t, w.WriteEntity(tr.Object))
	}
	require.NoError(t, w.Flush())
}

// TestS1TrivialTwoNodeConstant reproduces spec scenario S1 end-to-end
// through the assembler driver.
func TestS1TrivialTwoNodeConstant(t *testing.T) {
	dir := t.TempDir()
	writeGraphStats(t, dir, 1, true)
	writeOutcomeFile(t, partition.OutcomePath(dir, 1), []partition.OutcomeRecord{
		{LocalBlockID: 1, Nodes: []codec.NodeID{0}},
		{LocalBlockID: 2, Nodes: []codec.NodeID{1}},
	})
	writeTriples(t, dir, []partition.Triple{
		{Subject: 0, Predicate: 0, Object: 1},
		{Subject: 1, Predicate: 0, Object: 0},
	})

	result, err := Run(context.Background(), Config{ExperimentDir: dir})
	require.NoError(t, err)

	assert.Equal(t, 2, result.VertexCount)
	assert.Equal(t, 2, result.DataEdgeCount)
	assert.Equal(t, 0, result.RefinesEdgeCount)

	ivs, err := ioformat.ReadIntervals(partition.IntervalsPath(dir))
	require.NoError(t, err)
	assert.Len(t, ivs, 2)
	for _, iv := range ivs {
		assert.EqualValues(t, 1, iv.Birth)
		assert.EqualValues(t, 1, iv.Death)
	}

	edges, err := ioformat.ReadCondensedGraph(partition.CondensedGraphPath(dir))
	require.NoError(t, err)
	assert.Len(t, edges, 2)
}

// TestS2FixedPointWithUniversalParent reproduces spec scenario S2.
func TestS2FixedPointWithUniversalParent(t *testing.T) {
	dir := t.TempDir()
	// No level-0 outcome file: replay starts at level 1, which is also
	// the only level ever read, putting the fold past its final depth
	// immediately (spec §4.5's "immediate stop" case).
	writeGraphStats(t, dir, 1, true)
	writeOutcomeFile(t, partition.OutcomePath(dir, 1), []partition.OutcomeRecord{
		{LocalBlockID: 1, Nodes: []codec.NodeID{0, 1}},
	})
	writeTriples(t, dir, []partition.Triple{
		{Subject: 0, Predicate: 0, Object: 1},
	})

	result, err := Run(context.Background(), Config{ExperimentDir: dir})
	require.NoError(t, err)

	assert.Equal(t, 2, result.VertexCount)
	assert.Equal(t, 1, result.DataEdgeCount)
	assert.Equal(t, 1, result.RefinesEdgeCount)

	ivs, err := ioformat.ReadIntervals(partition.IntervalsPath(dir))
	require.NoError(t, err)
	assert.Len(t, ivs, 2)

	foundZero, foundOne := false, false
	for _, iv := range ivs {
		if iv.Birth == 0 && iv.Death == 0 {
			foundZero = true
		}
		if iv.Birth == 1 && iv.Death == 1 {
			foundOne = true
		}
	}
	assert.True(t, foundZero, "expected a synthetic level-0 universal vertex")
	assert.True(t, foundOne, "expected the level-1 block vertex")
}

// TestS3SingleSplit reproduces spec scenario S3.
func TestS3SingleSplit(t *testing.T) {
	dir := t.TempDir()
	writeGraphStats(t, dir, 1, true)
	writeOutcomeFile(t, partition.OutcomePath(dir, 0), []partition.OutcomeRecord{
		{LocalBlockID: 1, Nodes: []codec.NodeID{0, 1, 2}},
	})
	writeOutcomeFile(t, partition.OutcomePath(dir, 1), []partition.OutcomeRecord{
		{LocalBlockID: 1, Nodes: []codec.NodeID{0, 1}},
	})
	writeMappingFile(t, partition.MappingPath(dir, 0, 1), []partition.MappingRecord{
		{ParentLocalID: 1, Children: []codec.BlockID{1, partition.SingletonSentinel}},
	})
	writeTriples(t, dir, []partition.Triple{
		{Subject: 0, Predicate: 0, Object: 2},
		{Subject: 1, Predicate: 0, Object: 2},
		{Subject: 2, Predicate: 0, Object: 2},
	})

	result, err := Run(context.Background(), Config{ExperimentDir: dir})
	require.NoError(t, err)

	assert.Equal(t, 3, result.VertexCount) // B, C, singleton(2)
	assert.Equal(t, 1, result.InitialPartitionSize)

	ivs, err := ioformat.ReadIntervals(partition.IntervalsPath(dir))
	require.NoError(t, err)
	assert.Len(t, ivs, 3)

	foundB, foundC, foundSingleton := false, false, false
	for id, iv := range ivs {
		switch {
		case iv.Birth == 0 && iv.Death == 0:
			foundB = true
		case iv.Birth == 1 && iv.Death == 1 && !codec.IsSingleton(id):
			foundC = true
		case iv.Birth == 1 && iv.Death == 1 && codec.IsSingleton(id):
			foundSingleton = true
			assert.EqualValues(t, 2, codec.NodeOfSingleton(id))
		}
	}
	assert.True(t, foundB)
	assert.True(t, foundC)
	assert.True(t, foundSingleton)

	edges, err := ioformat.ReadCondensedGraph(partition.CondensedGraphPath(dir))
	require.NoError(t, err)
	assert.Len(t, edges, 3) // (B,0,B), (C,0,sing2), (sing2,0,sing2)

	_, err = os.Stat(partition.SingletonMappingPath(dir, 0, 1))
	assert.NoError(t, err, "expected a singleton mapping artifact for the 0->1 transition")
}

// TestS4ChainNeverReachesFixedPoint reproduces spec scenario S4: a
// 6-node graph split across three levels (K=3) where the solver halts
// without ever reaching a fixed point. B={0..5} splits into C1={0,1,2}
// and C2={3,4,5} at level 1; C1 splits into D1={0,1} plus a singleton
// for node 2 at level 2, while C2 is carried forward re-labeled as F;
// at the terminal level 3, D1 splits into two singletons (E1={0},
// E2={1}) and F splits into G={3,4} plus a singleton for node 5.
func TestS4ChainNeverReachesFixedPoint(t *testing.T) {
	dir := t.TempDir()
	writeGraphStats(t, dir, 3, false)
	writeOutcomeFile(t, partition.OutcomePath(dir, 0), []partition.OutcomeRecord{
		{LocalBlockID: 1, Nodes: []codec.NodeID{0, 1, 2, 3, 4, 5}},
	})
	writeOutcomeFile(t, partition.OutcomePath(dir, 1), []partition.OutcomeRecord{
		{LocalBlockID: 1, Nodes: []codec.NodeID{0, 1, 2}},
		{LocalBlockID: 2, Nodes: []codec.NodeID{3, 4, 5}},
	})
	writeOutcomeFile(t, partition.OutcomePath(dir, 2), []partition.OutcomeRecord{
		{LocalBlockID: 1, Nodes: []codec.NodeID{0, 1}},
		{LocalBlockID: 3, Nodes: []codec.NodeID{3, 4, 5}},
	})
	writeOutcomeFile(t, partition.OutcomePath(dir, 3), []partition.OutcomeRecord{
		{LocalBlockID: 1, Nodes: []codec.NodeID{0}},
		{LocalBlockID: 2, Nodes: []codec.NodeID{1}},
		{LocalBlockID: 4, Nodes: []codec.NodeID{3, 4}},
	})
	writeMappingFile(t, partition.MappingPath(dir, 0, 1), []partition.MappingRecord{
		{ParentLocalID: 1, Children: []codec.BlockID{1, 2}},
	})
	writeMappingFile(t, partition.MappingPath(dir, 1, 2), []partition.MappingRecord{
		{ParentLocalID: 1, Children: []codec.BlockID{1, partition.SingletonSentinel}},
		{ParentLocalID: 2, Children: []codec.BlockID{3}},
	})
	writeMappingFile(t, partition.MappingPath(dir, 2, 3), []partition.MappingRecord{
		{ParentLocalID: 1, Children: []codec.BlockID{1, 2}},
		{ParentLocalID: 3, Children: []codec.BlockID{4, partition.SingletonSentinel}},
	})
	writeTriples(t, dir, []partition.Triple{
		{Subject: 0, Predicate: 7, Object: 5},
	})

	result, err := Run(context.Background(), Config{ExperimentDir: dir})
	require.NoError(t, err)

	// Ten vertices born across the chain: B; C1, C2; D1, F, singleton(2);
	// E1, E2, G, singleton(5).
	assert.Equal(t, 10, result.VertexCount)

	ivs, err := ioformat.ReadIntervals(partition.IntervalsPath(dir))
	require.NoError(t, err)
	assert.Len(t, ivs, 10)

	// (a) the terminal (level-3) edge maps through terminal_split_to_merged
	// one level up, to K-1=2, rather than staying at K or vanishing.
	edges, err := ioformat.ReadCondensedGraph(partition.CondensedGraphPath(dir))
	require.NoError(t, err)

	var sawLevel2, sawLevel1, sawLevel0 bool
	for _, e := range edges {
		sIv, sOK := ivs[e.Subject]
		oIv, oOK := ivs[e.Object]
		if !sOK || !oOK {
			continue
		}
		switch {
		case sIv.Birth == 2 && sIv.Death == 2 && oIv.Birth == 2 && oIv.Death == 2:
			sawLevel2 = true
		case sIv.Birth == 1 && sIv.Death == 1 && oIv.Birth == 1 && oIv.Death == 1:
			sawLevel1 = true
		case sIv.Birth == 0 && sIv.Death == 0 && oIv.Birth == 0 && oIv.Death == 0:
			sawLevel0 = true
		}
	}
	assert.True(t, sawLevel2, "expected the terminal edge to fold one level up to D1/F (K-1=2)")
	// (b) Phase II then lifts that same edge through every earlier
	// level in turn, never skipping straight from K-1 down to ℓ₀.
	assert.True(t, sawLevel1, "expected the level-2 edge to lift into C1/C2 (level 1)")
	assert.True(t, sawLevel0, "expected the level-1 edge to lift all the way back to B (level 0), the initial partition")

	// The mid-chain singleton born at level 2 (node 2) survives
	// untouched through the terminal level, so its interval spans
	// [2,3] rather than collapsing to a single level like every block
	// vertex above.
	var sawMidChainSingleton bool
	for id, iv := range ivs {
		if codec.IsSingleton(id) && iv.Birth == 2 && iv.Death == 3 {
			sawMidChainSingleton = true
			assert.EqualValues(t, 2, codec.NodeOfSingleton(id))
		}
	}
	assert.True(t, sawMidChainSingleton, "expected node 2's singleton to persist from its level-2 birth through the terminal level")

	for _, path := range []string{
		partition.SingletonMappingPath(dir, 1, 2),
		partition.SingletonMappingPath(dir, 2, 3),
	} {
		_, err := os.Stat(path)
		assert.NoError(t, err, "expected a singleton mapping artifact at %s", path)
	}
}

// TestS5ReserializationRoundTrip reproduces spec scenario S5: after
// assembling and writing the three condensed artifacts once (reusing
// S3's fixture), extracting the quotient at every level from those
// on-disk artifacts — each call performing its own independent replay
// of the same outcome/mapping files, per internal/quotient's own
// grounding — must reproduce exactly the partition the fixture
// describes, not merely echo back whatever the assembler happened to
// keep in memory.
func TestS5ReserializationRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeGraphStats(t, dir, 1, true)
	writeOutcomeFile(t, partition.OutcomePath(dir, 0), []partition.OutcomeRecord{
		{LocalBlockID: 1, Nodes: []codec.NodeID{0, 1, 2}},
	})
	writeOutcomeFile(t, partition.OutcomePath(dir, 1), []partition.OutcomeRecord{
		{LocalBlockID: 1, Nodes: []codec.NodeID{0, 1}},
	})
	writeMappingFile(t, partition.MappingPath(dir, 0, 1), []partition.MappingRecord{
		{ParentLocalID: 1, Children: []codec.BlockID{1, partition.SingletonSentinel}},
	})
	writeTriples(t, dir, []partition.Triple{
		{Subject: 0, Predicate: 0, Object: 2},
		{Subject: 1, Predicate: 0, Object: 2},
		{Subject: 2, Predicate: 0, Object: 2},
	})

	_, err := Run(context.Background(), Config{ExperimentDir: dir})
	require.NoError(t, err)

	edges, err := ioformat.ReadCondensedGraph(partition.CondensedGraphPath(dir))
	require.NoError(t, err)

	level0, err := quotient.ExtractLevel(dir, 0, edges)
	require.NoError(t, err)
	assert.Len(t, level0.Vertices, 1, "only B is alive at level 0")
	assert.Len(t, level0.Edges, 1)
	for v := range level0.Vertices {
		assert.True(t, summaryGraphSelfLoop(level0.Edges, v), "expected B's self-loop to survive the level-0 re-derivation")
	}

	level1, err := quotient.ExtractLevel(dir, 1, edges)
	require.NoError(t, err)
	assert.Len(t, level1.Vertices, 2, "C and the singleton for node 2 are alive at level 1")
	assert.Len(t, level1.Edges, 2, "(C,0,sing2) and (sing2,0,sing2), independently re-derived from the on-disk artifacts")

	ivs, err := ioformat.ReadIntervals(partition.IntervalsPath(dir))
	require.NoError(t, err)
	fixedPoint := quotient.ExtractFixedPoint(ivs, edges, 1)
	assert.Equal(t, level1.Vertices, fixedPoint.Vertices, "the fixed-point branch must agree with the general replay-based branch at the terminal level")
	assert.ElementsMatch(t, level1.Edges, fixedPoint.Edges)
}

func summaryGraphSelfLoop(edges []summarygraph.Edge, v codec.SummaryID) bool {
	for _, e := range edges {
		if e.Subject == v && e.Object == v {
			return true
		}
	}
	return false
}
