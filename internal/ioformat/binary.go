// Package ioformat implements serialization for the condensed
// multi-summary artifacts and the JSON statistics files the assembler
// and quotient extractor read and write (spec §6). Grounded on the
// final serialization loop of create_condensed_summary_graph_from_partitions.cpp
// (the graph/intervals/local-global-map writers) and on
// create_quotient_graph_from_condensed_summary.cpp's own readers for
// those same three files.
package ioformat

import (
	"os"
	"path/filepath"

	"github.com/R-van-Bakel/Multi-Summaries/internal/codec"
	"github.com/R-van-Bakel/Multi-Summaries/internal/interval"
	"github.com/R-van-Bakel/Multi-Summaries/internal/summarygraph"
	apperrors "github.com/R-van-Bakel/Multi-Summaries/pkg/errors"
)

// atomicWrite writes content to path by first writing to a temporary
// file in the same directory, then renaming it into place, so a crash
// mid-write never leaves a partially-written artifact where one was
// expected (spec §4.9: "no partial output is committed").
func atomicWrite(path string, write func(*os.File) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.Wrap(apperrors.CodeIoError, "failed to create output directory", err).WithLocation("serialize", dir, -1)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return apperrors.Wrap(apperrors.CodeIoError, "failed to create temp file", err).WithLocation("serialize", path, -1)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return apperrors.Wrap(apperrors.CodeIoError, "failed to close temp file", err).WithLocation("serialize", path, -1)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return apperrors.Wrap(apperrors.CodeIoError, "failed to rename temp file into place", err).WithLocation("serialize", path, -1)
	}
	return nil
}

// WriteCondensedGraph serializes every edge in store as a sequence of
// (SummaryId, PredicateId, SummaryId) records.
func WriteCondensedGraph(path string, store *summarygraph.Store) error {
	return atomicWrite(path, func(f *os.File) error {
		w := codec.NewWriter(f)
		for _, e := range store.All() {
			if err := w.WriteBlockOrSingleton(e.Subject); err != nil {
				return err
			}
			if err := w.WritePredicate(e.Predicate); err != nil {
				return err
			}
			if err := w.WriteBlockOrSingleton(e.Object); err != nil {
				return err
			}
		}
		return w.Flush()
	})
}

// ReadCondensedGraph parses a condensed_multi_summary_graph.bin file.
func ReadCondensedGraph(path string) ([]summarygraph.Edge, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Wrap(apperrors.CodeInputNotFound, "condensed graph file not found", err).WithLocation("quotient", path, -1)
		}
		return nil, apperrors.Wrap(apperrors.CodeIoError, "failed to open condensed graph file", err).WithLocation("quotient", path, -1)
	}
	defer f.Close()

	r := codec.NewReader(f)
	var edges []summarygraph.Edge
	var idx int64
	for {
		s, err := r.ReadBlockOrSingleton()
		if err != nil {
			if isCleanEOF(err) {
				break
			}
			return nil, locate(err, "quotient", path, idx)
		}
		p, err := r.ReadPredicate()
		if err != nil {
			return nil, locate(err, "quotient", path, idx)
		}
		o, err := r.ReadBlockOrSingleton()
		if err != nil {
			return nil, locate(err, "quotient", path, idx)
		}
		edges = append(edges, summarygraph.Edge{Subject: s, Predicate: p, Object: o})
		idx++
	}
	return edges, nil
}

// WriteIntervals serializes every (id, interval) pair as a
// (BLOCK_OR_SINGLETON id, K birth, K death) record.
func WriteIntervals(path string, ivs *interval.Book) error {
	return atomicWrite(path, func(f *os.File) error {
		w := codec.NewWriter(f)
		for id, iv := range ivs.All() {
			if err := w.WriteBlockOrSingleton(id); err != nil {
				return err
			}
			if err := w.WriteK(iv.Birth); err != nil {
				return err
			}
			if err := w.WriteK(iv.Death); err != nil {
				return err
			}
		}
		return w.Flush()
	})
}

// ReadIntervals parses a condensed_multi_summary_intervals.bin file.
func ReadIntervals(path string) (map[codec.SummaryID]interval.Interval, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Wrap(apperrors.CodeInputNotFound, "intervals file not found", err).WithLocation("quotient", path, -1)
		}
		return nil, apperrors.Wrap(apperrors.CodeIoError, "failed to open intervals file", err).WithLocation("quotient", path, -1)
	}
	defer f.Close()

	r := codec.NewReader(f)
	out := make(map[codec.SummaryID]interval.Interval)
	var idx int64
	for {
		id, err := r.ReadBlockOrSingleton()
		if err != nil {
			if isCleanEOF(err) {
				break
			}
			return nil, locate(err, "quotient", path, idx)
		}
		birth, err := r.ReadK()
		if err != nil {
			return nil, locate(err, "quotient", path, idx)
		}
		death, err := r.ReadK()
		if err != nil {
			return nil, locate(err, "quotient", path, idx)
		}
		out[id] = interval.Interval{Birth: birth, Death: death}
		idx++
	}
	return out, nil
}

// LocalGlobalEntry is one (level, local, global) triple of the
// local-to-global identity map.
type LocalGlobalEntry struct {
	Level  codec.Level
	Local  codec.BlockID
	Global codec.SummaryID
}

// WriteLocalGlobalMap serializes entries as (K level, BLOCK_OR_SINGLETON
// local, BLOCK_OR_SINGLETON global) records.
func WriteLocalGlobalMap(path string, entries []LocalGlobalEntry) error {
	return atomicWrite(path, func(f *os.File) error {
		w := codec.NewWriter(f)
		for _, e := range entries {
			if err := w.WriteK(e.Level); err != nil {
				return err
			}
			if err := w.WriteBlockOrSingleton(int64(e.Local)); err != nil {
				return err
			}
			if err := w.WriteBlockOrSingleton(e.Global); err != nil {
				return err
			}
		}
		return w.Flush()
	})
}

// ReadLocalGlobalMap parses a condensed_multi_summary_local_global_map.bin
// file.
func ReadLocalGlobalMap(path string) ([]LocalGlobalEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Wrap(apperrors.CodeInputNotFound, "local-global map file not found", err).WithLocation("quotient", path, -1)
		}
		return nil, apperrors.Wrap(apperrors.CodeIoError, "failed to open local-global map file", err).WithLocation("quotient", path, -1)
	}
	defer f.Close()

	r := codec.NewReader(f)
	var out []LocalGlobalEntry
	var idx int64
	for {
		level, err := r.ReadK()
		if err != nil {
			if isCleanEOF(err) {
				break
			}
			return nil, locate(err, "quotient", path, idx)
		}
		local, err := r.ReadBlockOrSingleton()
		if err != nil {
			return nil, locate(err, "quotient", path, idx)
		}
		global, err := r.ReadBlockOrSingleton()
		if err != nil {
			return nil, locate(err, "quotient", path, idx)
		}
		out = append(out, LocalGlobalEntry{Level: level, Local: codec.BlockID(local), Global: global})
		idx++
	}
	return out, nil
}

// SingletonMappingEntry is one parent-to-singletons record, the output
// counterpart of the input mapping files' 0-sentinel children.
type SingletonMappingEntry struct {
	ParentLocal codec.BlockID
	Children    []codec.SummaryID
}

// WriteSingletonMapping serializes entries as (BLOCK parent_local,
// BLOCK_OR_SINGLETON count, BLOCK_OR_SINGLETON child x count) records.
func WriteSingletonMapping(path string, entries []SingletonMappingEntry) error {
	return atomicWrite(path, func(f *os.File) error {
		w := codec.NewWriter(f)
		for _, e := range entries {
			if err := w.WriteBlock(e.ParentLocal); err != nil {
				return err
			}
			if err := w.WriteBlockOrSingleton(int64(len(e.Children))); err != nil {
				return err
			}
			for _, c := range e.Children {
				if err := w.WriteBlockOrSingleton(c); err != nil {
					return err
				}
			}
		}
		return w.Flush()
	})
}

func isCleanEOF(err error) bool {
	return err == codec.ErrCleanEOF
}

func locate(err error, stage, file string, idx int64) error {
	if ae, ok := err.(*apperrors.AppError); ok {
		return ae.WithLocation(stage, file, idx)
	}
	return apperrors.Wrap(apperrors.CodeIoError, "unexpected error", err).WithLocation(stage, file, idx)
}
