// Package merge implements the K-way external merge that turns a set of
// sorted SPIMI block files into one immutable postings file plus a lexicon.
// The heap below is a min-heap over open block streams: one heap entry per
// open block stream, popped in (term, stream index) order.
package merge

import (
	"container/heap"
	"fmt"
	"io"
	"sort"

	"github.com/rs/zerolog"

	"github.com/scampagna/catalogsearch/internal/lexicon"
	"github.com/scampagna/catalogsearch/internal/postings"
	"github.com/scampagna/catalogsearch/internal/spimi"
)

// streamEntry is one heap element: the current (term, posting list) popped
// off block stream index, and a handle back to the stream so the merger can
// pull its next entry once this one has been consumed.
type streamEntry struct {
	term   string
	entry  postings.Entry
	stream int
	reader *spimi.BlockReader
}

// mergeHeap is a min-heap over streamEntry keyed on (term, stream index).
// The stream index is a pure tie-breaker: it guarantees a deterministic pop
// order when two streams happen to hold the same term, which in turn makes
// the final postings file a deterministic function of (block contents,
// stream index assignment).
type mergeHeap []*streamEntry

func (h mergeHeap) Len() int { return len(h) }

func (h mergeHeap) Less(i, j int) bool {
	if h[i].term != h[j].term {
		return h[i].term < h[j].term
	}
	return h[i].stream < h[j].stream
}

func (h mergeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *mergeHeap) Push(x any) {
	*h = append(*h, x.(*streamEntry))
}

func (h *mergeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Result reports the artifacts a merge produced.
type Result struct {
	FinalIndexPath string
	LexiconPath    string
	NumTerms       int
}

// Merge streams blockPaths (the block files of one build, e.g. block_1,
// block_2, ...) through a K-way heap merge, writing the concatenated posting lists to
// finalIndexPath and a term -> (offset, length) directory to lexiconPath.
// Stream indices are assigned by sorting blockPaths lexicographically, so
// the caller does not need to pre-sort them for determinism — Merge does it
// itself to keep that guarantee in one place.
func Merge(blockPaths []string, finalIndexPath, lexiconPath string, log zerolog.Logger) (Result, error) {
	sorted := append([]string(nil), blockPaths...)
	sort.Strings(sorted)

	readers := make([]*spimi.BlockReader, len(sorted))
	defer func() {
		for _, r := range readers {
			if r != nil {
				r.Close()
			}
		}
	}()

	h := &mergeHeap{}
	heap.Init(h)

	for i, path := range sorted {
		r, err := spimi.OpenBlockReader(path)
		if err != nil {
			return Result{}, fmt.Errorf("merge: open block %s: %w", path, err)
		}
		readers[i] = r

		e, err := r.Next()
		if err == io.EOF {
			continue
		}
		if err != nil {
			return Result{}, fmt.Errorf("merge: read first entry of %s: %w", path, err)
		}
		heap.Push(h, &streamEntry{term: e.Term, entry: e, stream: i, reader: r})
	}

	writer := lexicon.NewWriter(finalIndexPath, lexiconPath)
	if err := writer.Open(); err != nil {
		return Result{}, fmt.Errorf("merge: open output writer: %w", err)
	}
	defer writer.Close()

	var (
		currentTerm string
		accumulator postings.List
		haveCurrent bool
		numTerms    int
	)

	flush := func() error {
		if !haveCurrent {
			return nil
		}
		if err := writer.WriteTerm(currentTerm, accumulator); err != nil {
			return fmt.Errorf("merge: write term %q: %w", currentTerm, err)
		}
		numTerms++
		return nil
	}

	for h.Len() > 0 {
		top := heap.Pop(h).(*streamEntry)

		if haveCurrent && top.term == currentTerm {
			for docID, tf := range top.entry.Postings {
				if existing, collided := accumulator[docID]; collided {
					log.Warn().Str("stage", "merge").Str("term", top.term).Str("doc_id", docID).
						Msg("cross-block posting collision, summing term frequencies")
					accumulator[docID] = existing + tf
				} else {
					accumulator[docID] = tf
				}
			}
		} else {
			if err := flush(); err != nil {
				return Result{}, err
			}
			currentTerm = top.term
			accumulator = top.entry.Postings
			haveCurrent = true
		}

		next, err := top.reader.Next()
		if err == io.EOF {
			continue
		}
		if err != nil {
			return Result{}, fmt.Errorf("merge: read next entry from stream %d: %w", top.stream, err)
		}
		heap.Push(h, &streamEntry{term: next.Term, entry: next, stream: top.stream, reader: top.reader})
	}

	if err := flush(); err != nil {
		return Result{}, err
	}

	if err := writer.Finish(); err != nil {
		return Result{}, fmt.Errorf("merge: finalize lexicon: %w", err)
	}

	log.Info().Str("stage", "merge").Int("blocks", len(sorted)).Int("terms", numTerms).Msg("merge complete")
	return Result{FinalIndexPath: finalIndexPath, LexiconPath: lexiconPath, NumTerms: numTerms}, nil
}
