package spimi

import (
	"sort"

	"github.com/scampagna/catalogsearch/internal/postings"
)

// perTermOverhead and perPostingOverhead approximate the bookkeeping cost of
// one Go map entry (bucket metadata, pointer, hashed key) on top of the raw
// key/value bytes. The exact constants don't matter — only that the
// estimate is monotone and conservative, so a flush is eventually triggered
// for any unbounded input stream.
const (
	perTermOverhead    = 48
	perPostingOverhead = 40
)

// BlockBuffer is the in-memory partial dictionary term -> doc_id -> tf that
// the SPIMI driver fills between flushes.
type BlockBuffer struct {
	terms      map[string]postings.List
	estimate   int64
	numDocs    int
	numTerms   int
	numEntries int
}

// NewBlockBuffer returns an empty buffer ready to accept documents.
func NewBlockBuffer() *BlockBuffer {
	return &BlockBuffer{terms: make(map[string]postings.List)}
}

// Add folds one document's tokens into the buffer, incrementing
// buffer[term][doc_id] for every occurrence.
func (b *BlockBuffer) Add(docID string, tokens []string) {
	if len(tokens) > 0 {
		b.numDocs++
	}
	for _, term := range tokens {
		list, ok := b.terms[term]
		if !ok {
			list = make(postings.List)
			b.terms[term] = list
			b.estimate += int64(len(term)) + perTermOverhead
			b.numTerms++
		}
		if _, exists := list[docID]; !exists {
			b.estimate += int64(len(docID)) + perPostingOverhead
			b.numEntries++
		}
		list[docID]++
	}
}

// SizeEstimate returns the buffer's approximate in-memory footprint in
// bytes. It only ever grows between DrainSorted calls, which reset it, so any
// caller comparing it against a fixed limit will eventually see it cross
// that threshold.
func (b *BlockBuffer) SizeEstimate() int64 {
	return b.estimate
}

// Empty reports whether the buffer holds no terms.
func (b *BlockBuffer) Empty() bool {
	return len(b.terms) == 0
}

// DrainSorted returns the buffer's contents as block entries in ascending
// term order, then resets the buffer to empty. No state persists across
// calls — the next Add starts a fresh block.
func (b *BlockBuffer) DrainSorted() []postings.Entry {
	terms := make([]string, 0, len(b.terms))
	for t := range b.terms {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	entries := make([]postings.Entry, 0, len(terms))
	for _, t := range terms {
		entries = append(entries, postings.Entry{Term: t, Postings: b.terms[t]})
	}

	b.terms = make(map[string]postings.List)
	b.estimate = 0
	b.numDocs = 0
	b.numTerms = 0
	b.numEntries = 0
	return entries
}
