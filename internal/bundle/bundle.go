// Package bundle packages an assembled experiment's canonical condensed
// artifacts into a single compressed tar archive suitable for handing
// to internal/storage, for the optional --upload path (supplemented:
// the spec's canonical binary wire formats are untouched by this —
// bundling only ever wraps a copy of the already-written files).
package bundle

import (
	"archive/tar"
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/R-van-Bakel/Multi-Summaries/internal/partition"
	"github.com/R-van-Bakel/Multi-Summaries/pkg/compression"
)

// artifactPaths returns the canonical output files worth publishing for
// one experiment, in a fixed order for a reproducible archive.
func artifactPaths(experimentDir string) []string {
	return []string{
		partition.CondensedGraphPath(experimentDir),
		partition.IntervalsPath(experimentDir),
		partition.LocalGlobalMapPath(experimentDir),
		partition.SummaryGraphStatsPath(experimentDir),
	}
}

// Build tars the canonical condensed artifacts under experimentDir and
// compresses the result with comp. Missing optional files (e.g.
// summary_graph_stats.json before a first condense) are skipped rather
// than failing the bundle.
func Build(experimentDir string, comp compression.Compressor) ([]byte, error) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	for _, path := range artifactPaths(experimentDir) {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		name, err := filepath.Rel(experimentDir, path)
		if err != nil {
			name = filepath.Base(path)
		}
		if err := tw.WriteHeader(&tar.Header{
			Name: name,
			Mode: 0o644,
			Size: int64(len(data)),
		}); err != nil {
			return nil, fmt.Errorf("failed to write tar header for %s: %w", name, err)
		}
		if _, err := tw.Write(data); err != nil {
			return nil, fmt.Errorf("failed to write tar entry for %s: %w", name, err)
		}
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize tar archive: %w", err)
	}

	return comp.Compress(buf.Bytes())
}

// Key derives the upload key for an experiment's bundle from its
// directory name and the compressor's extension.
func Key(experimentDir string, comp compression.Compressor) string {
	ext := ".gz"
	if comp.Type() == compression.TypeZstd {
		ext = ".zst"
	} else if comp.Type() == compression.TypeNone {
		ext = ""
	}
	return filepath.Base(experimentDir) + ".tar" + ext
}
