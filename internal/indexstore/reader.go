// Package indexstore implements the random-access postings reader: given a
// term, resolve its byte range via the lexicon and read exactly that range
// out of the final postings file.
package indexstore

import (
	"errors"
	"fmt"
	"os"

	"github.com/scampagna/catalogsearch/internal/lexicon"
	"github.com/scampagna/catalogsearch/internal/postings"
	"github.com/scampagna/catalogsearch/internal/spimi"
)

// ErrMissingIndex is returned when the final postings file or lexicon is
// absent at construction time — fatal for the reader; the caller must
// rebuild before retrying.
var ErrMissingIndex = errors.New("indexstore: missing final index or lexicon")

// Reader serves term lookups against an immutable, already-built index. It
// owns one *os.File for the final postings file for the reader's lifetime
// and reads it exclusively via positional ReadAt calls, so concurrent
// Lookup calls never race over a shared file cursor.
type Reader struct {
	final    *os.File
	lex      *lexicon.Lexicon
	metadata spimi.Metadata
}

// Open loads the lexicon and metadata wholly into memory and opens the
// final postings file for positional reads. Any missing artifact is a
// fatal error.
func Open(finalIndexPath, lexiconPath, metadataPath string) (*Reader, error) {
	lex, err := lexicon.Load(lexiconPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMissingIndex, lexiconPath, err)
	}

	f, err := os.Open(finalIndexPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMissingIndex, finalIndexPath, err)
	}

	metadata, err := spimi.ReadMetadata(metadataPath)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrMissingIndex, metadataPath, err)
	}

	return &Reader{final: f, lex: lex, metadata: metadata}, nil
}

// Lookup resolves term via the lexicon and reads its posting list. A term
// absent from the lexicon returns an empty list without touching the final
// index file — this is the documented non-error "unknown query term" case,
// not a fault.
func (r *Reader) Lookup(term string) (postings.List, error) {
	entry, ok := r.lex.Lookup(term)
	if !ok {
		return postings.List{}, nil
	}

	buf := make([]byte, entry.Length)
	if _, err := r.final.ReadAt(buf, int64(entry.Offset)); err != nil {
		return nil, fmt.Errorf("indexstore: read postings for %q: %w", term, err)
	}

	list, err := postings.DeserializeList(buf)
	if err != nil {
		return nil, fmt.Errorf("indexstore: deserialize postings for %q: %w", term, err)
	}
	return list, nil
}

// Metadata returns the collection statistics loaded at Open time.
func (r *Reader) Metadata() spimi.Metadata {
	return r.metadata
}

// NumTerms returns the number of distinct terms in the lexicon.
func (r *Reader) NumTerms() int {
	return r.lex.Len()
}

// Close releases the final postings file handle.
func (r *Reader) Close() error {
	return r.final.Close()
}
