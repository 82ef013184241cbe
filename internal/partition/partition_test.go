package partition

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R-van-Bakel/Multi-Summaries/internal/codec"
)

func writeOutcomeFile(t *testing.T, path string, records []OutcomeRecord) {
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

func writeMappingFile(t *testing.T, path string, records []MappingRecord) {
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

func TestReadOutcomeRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "outcome_condensed-0000.bin")
	want := []OutcomeRecord{
		{LocalBlockID: 1, Nodes: []codec.NodeID{0, 1, 2}},
		{LocalBlockID: 2, Nodes: []codec.NodeID{3}},
	}
	writeOutcomeFile(t, path, want)

	got, err := ReadOutcome(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReadOutcomeMissingFile(t *testing.T) {
	_, err := ReadOutcome(filepath.Join(t.TempDir(), "nope.bin"))
	require.Error(t, err)
}

func TestReadMappingRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mapping-0000to0001.bin")
	want := []MappingRecord{
		{ParentLocalID: 1, Children: []codec.BlockID{2, 3}},
		{ParentLocalID: 4, Children: []codec.BlockID{0}},
	}
	writeMappingFile(t, path, want)

	got, err := ReadMapping(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.True(t, got[1].Dissolved())
	assert.False(t, got[0].Dissolved())
}

func TestReadMappingMissingFileIsNilNotError(t *testing.T) {
	got, err := ReadMapping(filepath.Join(t.TempDir(), "nope.bin"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPathHelpers(t *testing.T) {
	root := "/tmp/exp"
	assert.Equal(t, "/tmp/exp/bisimulation/outcome_condensed-0003.bin", OutcomePath(root, 3))
	assert.Equal(t, "/tmp/exp/bisimulation/mapping-0000to0001.bin", MappingPath(root, 0, 1))
	assert.Equal(t, "/tmp/exp/bisimulation/singleton_mapping-0002to0003.bin", SingletonMappingPath(root, 2, 3))
}
