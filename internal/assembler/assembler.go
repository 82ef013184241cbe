// Package assembler is the condensed-summary assembler's driver: it
// wires the partition-replay engine, identity allocator, interval
// bookkeeper, edge folder, and summary-graph store into the
// end-to-end pipeline described in spec §4.8, then serializes the
// three condensed artifacts with the commit discipline of §4.9 (no
// partial output; atomic rename on success).
//
// Grounded on the orchestration shape of
// create_condensed_summary_graph_from_partitions.cpp's main(): read
// graph_stats.json, replay partitions, fold edges, write artifacts,
// report timing and memory statistics.
package assembler

import (
	"context"
	"os"
	"runtime"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/R-van-Bakel/Multi-Summaries/internal/codec"
	"github.com/R-van-Bakel/Multi-Summaries/internal/fold"
	"github.com/R-van-Bakel/Multi-Summaries/internal/identity"
	"github.com/R-van-Bakel/Multi-Summaries/internal/interval"
	"github.com/R-van-Bakel/Multi-Summaries/internal/ioformat"
	"github.com/R-van-Bakel/Multi-Summaries/internal/partition"
	"github.com/R-van-Bakel/Multi-Summaries/internal/replay"
	"github.com/R-van-Bakel/Multi-Summaries/internal/summarygraph"
	apperrors "github.com/R-van-Bakel/Multi-Summaries/pkg/errors"
	"github.com/R-van-Bakel/Multi-Summaries/pkg/logging"
)

var tracer = otel.Tracer("github.com/R-van-Bakel/Multi-Summaries/internal/assembler")

// Config parameterizes one assembler run.
type Config struct {
	ExperimentDir string
	Logger        logging.Logger
}

// Result summarizes a completed run, mirroring the fields written to
// ad_hoc_results/summary_graph_stats.json.
type Result struct {
	VertexCount          int
	DataEdgeCount        int
	RefinesEdgeCount     int
	SingletonCount       int
	InitialPartitionSize int
	TotalTimeTakenMs     int64
	MaxMemoryFootprintKB int64
}

// Run executes the full assembler pipeline against cfg.ExperimentDir and
// writes the three condensed artifacts plus the summary statistics
// file, atomically.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	log := cfg.Logger
	if log == nil {
		log = logging.GetGlobalLogger()
	}
	start := time.Now()

	ctx, span := tracer.Start(ctx, "assemble")
	defer span.End()

	stats, err := ioformat.ReadGraphStats(partition.GraphStatsPath(cfg.ExperimentDir))
	if err != nil {
		return nil, err
	}
	finalDepth := codec.Level(stats.FinalDepth)
	log.Info("loaded graph stats: final depth=%d fixed point=%v vertex count=%d", stats.FinalDepth, stats.FixedPoint, stats.VertexCount)

	ids := identity.New()
	ivs := interval.New()
	src := replay.NewFileSource(cfg.ExperimentDir)
	eng := replay.New(ids, ivs, src)

	_, replaySpan := tracer.Start(ctx, "replay")
	nodeToBlock, err := eng.Run(finalDepth)
	replaySpan.End()
	if err != nil {
		return nil, err
	}
	log.Debug("replay complete: %d blocks allocated", ids.Count())

	initialPartitionSize, err := countInitialBlocks(src, eng.StartLevel())
	if err != nil {
		return nil, err
	}

	store := summarygraph.New()
	folder := fold.New(store, ids, ivs)

	foldCfg := fold.Config{
		FinalDepth:   finalDepth,
		FixedPoint:   stats.FixedPoint,
		HasLevelZero: src.HasLevelZero(),
	}

	var terminalRelation fold.SplitToMerged
	if !foldCfg.FixedPoint && finalDepth > eng.StartLevel() {
		mappings, err := partition.ReadMapping(partition.MappingPath(cfg.ExperimentDir, finalDepth-1, finalDepth))
		if err != nil {
			return nil, err
		}
		terminalRelation = fold.BuildSplitToMerged(mappings, finalDepth, ids, eng.SingletonsByLevel[finalDepth])
	}

	_, foldSpan := tracer.Start(ctx, "fold")
	tf, err := os.Open(partition.BinaryEncodingPath(cfg.ExperimentDir))
	if err != nil {
		foldSpan.End()
		return nil, apperrors.Wrap(apperrors.CodeInputNotFound, "binary_encoding.bin not found", err).WithLocation("fold", partition.BinaryEncodingPath(cfg.ExperimentDir), -1)
	}
	triples := partition.NewTripleReader(codec.NewReader(tf), partition.BinaryEncodingPath(cfg.ExperimentDir))
	_, err = folder.FoldTerminal(triples, nodeToBlock, foldCfg, terminalRelation)
	closeErr := tf.Close()
	if err != nil {
		foldSpan.End()
		return nil, err
	}
	if closeErr != nil {
		foldSpan.End()
		return nil, apperrors.Wrap(apperrors.CodeIoError, "failed to close binary_encoding.bin", closeErr).WithLocation("fold", partition.BinaryEncodingPath(cfg.ExperimentDir), -1)
	}

	// Phase II: lift edges backward one level at a time, from the
	// terminal level down to the start level. When the terminal fold
	// already folded through the finalDepth relation (no fixed point),
	// the first iteration rebuilds that same relation and is a no-op,
	// since those vertices no longer appear as edge endpoints; after a
	// self-refining terminal fold it performs the first real lift. Every
	// earlier level does real work. Each level's own singleton
	// births, if any, are written out as that level's singleton-mapping
	// artifact immediately.
	for level := finalDepth; level > eng.StartLevel(); level-- {
		mappings, err := partition.ReadMapping(partition.MappingPath(cfg.ExperimentDir, level-1, level))
		if err != nil {
			return nil, err
		}
		if len(mappings) == 0 {
			continue
		}
		rel := fold.BuildSplitToMerged(mappings, level, ids, eng.SingletonsByLevel[level])
		folder.LiftLevel(rel)

		entries := singletonMappingEntries(mappings, eng.SingletonsByLevel[level])
		if len(entries) > 0 {
			if err := ioformat.WriteSingletonMapping(partition.SingletonMappingPath(cfg.ExperimentDir, level-1, level), entries); err != nil {
				foldSpan.End()
				return nil, err
			}
		}
	}
	foldSpan.End()

	finalizeIntervals(ivs, eng, finalDepth)

	writeErr := writeArtifacts(cfg.ExperimentDir, store, ivs, ids)
	if writeErr != nil {
		return nil, writeErr
	}

	result := &Result{
		VertexCount:          ivs.Len(),
		DataEdgeCount:        store.Len(),
		RefinesEdgeCount:     refinesEdgeCount(ivs),
		SingletonCount:       singletonCount(ivs),
		InitialPartitionSize: initialPartitionSize,
		TotalTimeTakenMs:     time.Since(start).Milliseconds(),
		MaxMemoryFootprintKB: peakMemoryKB(),
	}

	if err := ioformat.WriteSummaryGraphStats(partition.SummaryGraphStatsPath(cfg.ExperimentDir), ioformat.SummaryGraphStats{
		VertexCount:          result.VertexCount,
		DataEdgeCount:        result.DataEdgeCount,
		RefinesEdgeCount:     result.RefinesEdgeCount,
		SingletonCount:       result.SingletonCount,
		InitialPartitionSize: result.InitialPartitionSize,
		TotalTimeTakenMs:     result.TotalTimeTakenMs,
		MaxMemoryFootprintKB: result.MaxMemoryFootprintKB,
	}); err != nil {
		return nil, err
	}

	log.Info("assembled %d vertices, %d data edges in %dms", result.VertexCount, result.DataEdgeCount, result.TotalTimeTakenMs)
	return result, nil
}

// finalizeIntervals closes out every vertex still alive at finalDepth:
// per §3's data model, a surviving block's death is the terminal level,
// not the level it happened to be born at (Birth leaves Death ==
// Birth until something overwrites it). Blocks that split already had
// Die called on them during replay; this only touches true survivors.
func finalizeIntervals(ivs *interval.Book, eng *replay.Engine, finalDepth codec.Level) {
	for _, global := range eng.LocalGlobal() {
		ivs.Die(global, finalDepth)
	}
	for _, block := range eng.NodeToBlock() {
		if codec.IsSingleton(block) {
			ivs.Die(block, finalDepth)
		}
	}
}

func refinesEdgeCount(ivs *interval.Book) int {
	// Every non-root vertex was born as a split child, a freshly-minted
	// singleton, or (in the universal-parent case) points at the
	// synthetic root itself, so it contributes exactly one implicit
	// refines edge to its parent (spec §3's refinement forest). The
	// root set is exactly the vertices with no earlier-born vertex
	// above them, i.e. those sharing the minimum recorded birth across
	// all intervals: ordinarily that is the replay's start level, but a
	// synthesized universal vertex is deliberately birthed at level 0
	// regardless of the start level, so the minimum is recomputed from
	// the intervals themselves rather than assumed equal to it.
	if ivs.Len() == 0 {
		return 0
	}
	var minBirth codec.Level = ^codec.Level(0)
	for _, iv := range ivs.All() {
		if iv.Birth < minBirth {
			minBirth = iv.Birth
		}
	}
	roots := 0
	for _, iv := range ivs.All() {
		if iv.Birth == minBirth {
			roots++
		}
	}
	return ivs.Len() - roots
}

func singletonCount(ivs *interval.Book) int {
	count := 0
	for id := range ivs.All() {
		if codec.IsSingleton(id) {
			count++
		}
	}
	return count
}

func countInitialBlocks(src *replay.FileSource, startLevel codec.Level) (int, error) {
	records, err := src.Outcome(startLevel)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

func singletonMappingEntries(mappings []partition.MappingRecord, singletonsBornHere map[codec.BlockID][]codec.NodeID) []ioformat.SingletonMappingEntry {
	var entries []ioformat.SingletonMappingEntry
	for _, m := range mappings {
		nodes, ok := singletonsBornHere[m.ParentLocalID]
		if !ok || len(nodes) == 0 {
			continue
		}
		children := make([]codec.SummaryID, 0, len(nodes))
		for _, n := range nodes {
			children = append(children, codec.SingletonID(n))
		}
		entries = append(entries, ioformat.SingletonMappingEntry{ParentLocal: m.ParentLocalID, Children: children})
	}
	return entries
}

func writeArtifacts(experimentDir string, store *summarygraph.Store, ivs *interval.Book, ids *identity.Allocator) error {
	if err := ioformat.WriteCondensedGraph(partition.CondensedGraphPath(experimentDir), store); err != nil {
		return err
	}
	if err := ioformat.WriteIntervals(partition.IntervalsPath(experimentDir), ivs); err != nil {
		return err
	}
	entries := make([]ioformat.LocalGlobalEntry, 0, ids.Count())
	for _, e := range ids.All() {
		entries = append(entries, ioformat.LocalGlobalEntry{Level: e.Level, Local: e.Local, Global: e.Global})
	}
	if err := ioformat.WriteLocalGlobalMap(partition.LocalGlobalMapPath(experimentDir), entries); err != nil {
		return err
	}
	return nil
}

func peakMemoryKB() int64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return int64(m.Sys / 1024)
}
