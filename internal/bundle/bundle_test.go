package bundle

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R-van-Bakel/Multi-Summaries/internal/partition"
	"github.com/R-van-Bakel/Multi-Summaries/pkg/compression"
)

func writeArtifact(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func relName(t *testing.T, dir, path string) string {
	t.Helper()
	rel, err := filepath.Rel(dir, path)
	require.NoError(t, err)
	return rel
}

func TestBuildTarsOnlyPresentArtifacts(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, partition.CondensedGraphPath(dir), "graph-bytes")
	writeArtifact(t, partition.IntervalsPath(dir), "intervals-bytes")
	// local-global map and stats are deliberately left missing.

	comp := compression.NewNoOpCompressor()
	data, err := Build(dir, comp)
	require.NoError(t, err)

	tr := tar.NewReader(bytes.NewReader(data))
	names := map[string]string{}
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		content, err := io.ReadAll(tr)
		require.NoError(t, err)
		names[hdr.Name] = string(content)
	}

	assert.Equal(t, "graph-bytes", names[relName(t, dir, partition.CondensedGraphPath(dir))])
	assert.Equal(t, "intervals-bytes", names[relName(t, dir, partition.IntervalsPath(dir))])
	assert.NotContains(t, names, relName(t, dir, partition.LocalGlobalMapPath(dir)))
	assert.NotContains(t, names, relName(t, dir, partition.SummaryGraphStatsPath(dir)))
}

func TestBuildMissingDirReturnsNoEntries(t *testing.T) {
	dir := t.TempDir()
	comp := compression.NewNoOpCompressor()

	data, err := Build(dir, comp)
	require.NoError(t, err)

	tr := tar.NewReader(bytes.NewReader(data))
	_, err = tr.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestKeyExtensionByCompressorType(t *testing.T) {
	dir := "/experiments/run-001"

	assert.Equal(t, "run-001.tar", Key(dir, compression.NewNoOpCompressor()))
	assert.Equal(t, "run-001.tar.gz", Key(dir, compression.NewGzipCompressor(compression.LevelDefault)))

	zc, err := compression.NewZstdCompressor(compression.LevelDefault)
	require.NoError(t, err)
	defer zc.Close()
	assert.Equal(t, "run-001.tar.zst", Key(dir, zc))
}
