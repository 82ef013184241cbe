package partition

import (
	"fmt"
	"path/filepath"

	"github.com/R-van-Bakel/Multi-Summaries/internal/codec"
)

// OutcomePath returns the path to the per-level outcome file inside an
// experiment directory, e.g. bisimulation/outcome_condensed-0003.bin.
func OutcomePath(experimentDir string, level codec.Level) string {
	return filepath.Join(experimentDir, "bisimulation", fmt.Sprintf("outcome_condensed-%04d.bin", level))
}

// MappingPath returns the path to the mapping file between two
// consecutive levels, e.g. bisimulation/mapping-0000to0001.bin.
func MappingPath(experimentDir string, from, to codec.Level) string {
	return filepath.Join(experimentDir, "bisimulation", fmt.Sprintf("mapping-%04dto%04d.bin", from, to))
}

// SingletonMappingPath returns the path to the output file recording
// which parent block birthed which singletons between two levels.
func SingletonMappingPath(experimentDir string, from, to codec.Level) string {
	return filepath.Join(experimentDir, "bisimulation", fmt.Sprintf("singleton_mapping-%04dto%04d.bin", from, to))
}

// StatisticsPath returns the path to the per-level condensed statistics
// JSON file.
func StatisticsPath(experimentDir string, level codec.Level) string {
	return filepath.Join(experimentDir, "ad_hoc_results", fmt.Sprintf("statistics_condensed-%04d.json", level))
}

// GraphStatsPath returns the path to the top-level graph statistics JSON
// produced by the (external) bisimulation solver.
func GraphStatsPath(experimentDir string) string {
	return filepath.Join(experimentDir, "ad_hoc_results", "graph_stats.json")
}

// SummaryGraphStatsPath returns the path to the output statistics JSON
// written once the condensed summary graph has been assembled.
func SummaryGraphStatsPath(experimentDir string) string {
	return filepath.Join(experimentDir, "ad_hoc_results", "summary_graph_stats.json")
}

// BinaryEncodingPath returns the path to the input triple stream.
func BinaryEncodingPath(experimentDir string) string {
	return filepath.Join(experimentDir, "binary_encoding.bin")
}

// Entity2IDPath and Rel2IDPath return the paths to the name<->id maps.
func Entity2IDPath(experimentDir string) string {
	return filepath.Join(experimentDir, "entity2ID.txt")
}

func Rel2IDPath(experimentDir string) string {
	return filepath.Join(experimentDir, "rel2ID.txt")
}

// CondensedGraphPath, IntervalsPath and LocalGlobalMapPath return the
// paths to the three serialized condensed-summary artifacts.
func CondensedGraphPath(experimentDir string) string {
	return filepath.Join(experimentDir, "bisimulation", "condensed_multi_summary_graph.bin")
}

func IntervalsPath(experimentDir string) string {
	return filepath.Join(experimentDir, "bisimulation", "condensed_multi_summary_intervals.bin")
}

func LocalGlobalMapPath(experimentDir string) string {
	return filepath.Join(experimentDir, "bisimulation", "condensed_multi_summary_local_global_map.bin")
}

// QuotientDir returns the directory quotient artifacts for level ℓ are
// written to (supplemented: the spec names the three binary outputs but
// leaves the quotient extractor's own on-disk layout unspecified).
func QuotientDir(experimentDir string) string {
	return filepath.Join(experimentDir, "bisimulation", "quotient")
}

func QuotientContainsPath(experimentDir string, level codec.Level) string {
	return filepath.Join(QuotientDir(experimentDir), fmt.Sprintf("quotient_graph_contains-%04d.txt", level))
}

func QuotientEdgesPath(experimentDir string, level codec.Level) string {
	return filepath.Join(QuotientDir(experimentDir), fmt.Sprintf("quotient_graph_edges-%04d.txt", level))
}

// QuotientTypesPath returns the path to the file holding each edge's
// predicate, one per line, in the same order as QuotientEdgesPath's
// subject/object pairs.
func QuotientTypesPath(experimentDir string, level codec.Level) string {
	return filepath.Join(QuotientDir(experimentDir), fmt.Sprintf("quotient_graph_types-%04d.txt", level))
}

func QuotientStatsPath(experimentDir string, level codec.Level) string {
	return filepath.Join(experimentDir, "ad_hoc_results", fmt.Sprintf("quotient_graph_stats-%04d.json", level))
}
