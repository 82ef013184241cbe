package partition

import (
	"io"

	"github.com/R-van-Bakel/Multi-Summaries/internal/codec"
)

// Triple is one original data edge: (subject_node, predicate, object_node).
type Triple struct {
	Subject   codec.NodeID
	Predicate codec.PredicateID
	Object    codec.NodeID
}

// TripleReader streams binary_encoding.bin: a concatenation of
// (ENTITY subject, PREDICATE, ENTITY object) records, read until clean
// EOF. Used by the edge folder's Phase I, which needs only one forward
// pass over the triples and should not hold them all in memory at once.
type TripleReader struct {
	r    *codec.Reader
	path string
	idx  int64
}

// NewTripleReader wraps a codec.Reader positioned at the start of a
// triple stream.
func NewTripleReader(r *codec.Reader, path string) *TripleReader {
	return &TripleReader{r: r, path: path}
}

// Next returns the next triple, or io.EOF once the stream is exhausted
// cleanly.
func (t *TripleReader) Next() (Triple, error) {
	s, err := t.r.ReadEntity()
	if err != nil {
		if err == io.EOF {
			return Triple{}, io.EOF
		}
		return Triple{}, wrapStage(err, "fold", t.path, t.idx)
	}
	p, err := t.r.ReadPredicate()
	if err != nil {
		return Triple{}, wrapStage(err, "fold", t.path, t.idx)
	}
	o, err := t.r.ReadEntity()
	if err != nil {
		return Triple{}, wrapStage(err, "fold", t.path, t.idx)
	}
	t.idx++
	return Triple{Subject: s, Predicate: p, Object: o}, nil
}
