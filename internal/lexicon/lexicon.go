// Package lexicon builds and loads the term -> (offset, length) directory
// into the final postings file. The final postings file itself is pure
// data (a concatenation of serialized posting lists in ascending term
// order); the lexicon is its sole directory, loaded wholly into memory at
// query time.
package lexicon

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/scampagna/catalogsearch/internal/postings"
)

// Entry is one lexicon record: the byte range within the final postings
// file holding one term's serialized posting list.
type Entry struct {
	Offset uint64
	Length uint64
}

// lexiconMagic/lexiconVersion give the lexicon file the same
// self-describing header used by the other binary artifacts in this repo.
const (
	lexiconMagic   uint32 = 0x4C455831 // "LEX1"
	lexiconVersion uint8  = 1
)

// Writer accumulates (term, posting list) pairs in ascending term order
// during a merge, appending each term's serialized postings to the final
// index file and recording its byte range for the lexicon. Terms must be
// supplied to WriteTerm in strictly ascending order; the merger guarantees
// this because it flushes its accumulator only when the popped term
// changes.
type Writer struct {
	finalPath string
	lexPath   string
	final     *os.File
	offset    uint64
	entries   []Entry
	terms     []string
}

// NewWriter returns a Writer that will produce finalPath and lexPath.
func NewWriter(finalPath, lexPath string) *Writer {
	return &Writer{finalPath: finalPath, lexPath: lexPath}
}

// Open creates the final index file, truncating any existing contents.
func (w *Writer) Open() error {
	f, err := os.Create(w.finalPath)
	if err != nil {
		return fmt.Errorf("lexicon: create final index %s: %w", w.finalPath, err)
	}
	w.final = f
	return nil
}

// WriteTerm serializes list, appends it to the final index file, and
// records the resulting (term, offset, length) for the lexicon.
func (w *Writer) WriteTerm(term string, list postings.List) error {
	data, err := postings.SerializeList(list)
	if err != nil {
		return fmt.Errorf("lexicon: serialize term %q: %w", term, err)
	}
	if _, err := w.final.Write(data); err != nil {
		return fmt.Errorf("lexicon: append term %q: %w", term, err)
	}
	w.terms = append(w.terms, term)
	w.entries = append(w.entries, Entry{Offset: w.offset, Length: uint64(len(data))})
	w.offset += uint64(len(data))
	return nil
}

// Finish flushes the final index file and writes the lexicon file. Offsets
// are delta-encoded against the previous entry's offset (0 for the first
// entry), since WriteTerm is required to be called in ascending term order
// and therefore ascending offset order.
func (w *Writer) Finish() (err error) {
	if err := w.final.Sync(); err != nil {
		return fmt.Errorf("lexicon: sync final index %s: %w", w.finalPath, err)
	}

	lf, createErr := os.Create(w.lexPath)
	if createErr != nil {
		return fmt.Errorf("lexicon: create %s: %w", w.lexPath, createErr)
	}
	defer func() {
		if closeErr := lf.Close(); err == nil {
			err = closeErr
		}
	}()

	bw := bufio.NewWriter(lf)
	if err = binary.Write(bw, binary.LittleEndian, lexiconMagic); err != nil {
		return fmt.Errorf("lexicon: write magic %s: %w", w.lexPath, err)
	}
	if err = binary.Write(bw, binary.LittleEndian, lexiconVersion); err != nil {
		return fmt.Errorf("lexicon: write version %s: %w", w.lexPath, err)
	}
	if err = binary.Write(bw, binary.LittleEndian, uint64(len(w.terms))); err != nil {
		return fmt.Errorf("lexicon: write entry count %s: %w", w.lexPath, err)
	}

	var prevOffset uint64
	for i, term := range w.terms {
		entry := w.entries[i]
		termBytes := []byte(term)
		if len(termBytes) > 0xFFFF {
			return fmt.Errorf("lexicon: term %q exceeds max encodable length", term)
		}
		if err = binary.Write(bw, binary.LittleEndian, uint16(len(termBytes))); err != nil {
			return fmt.Errorf("lexicon: write term length %s: %w", w.lexPath, err)
		}
		if _, err = bw.Write(termBytes); err != nil {
			return fmt.Errorf("lexicon: write term bytes %s: %w", w.lexPath, err)
		}
		delta := entry.Offset - prevOffset
		if err = writeVarint(bw, delta); err != nil {
			return fmt.Errorf("lexicon: write offset delta %s: %w", w.lexPath, err)
		}
		if err = writeVarint(bw, entry.Length); err != nil {
			return fmt.Errorf("lexicon: write length %s: %w", w.lexPath, err)
		}
		prevOffset = entry.Offset
	}
	return bw.Flush()
}

// Close releases the final index file handle. Safe to call after Finish.
func (w *Writer) Close() error {
	if w.final == nil {
		return nil
	}
	return w.final.Close()
}

// Lexicon is the in-memory term directory loaded once at reader startup.
type Lexicon struct {
	entries map[string]Entry
	terms   []string
}

// Load reads the lexicon file at path in full.
func Load(path string) (*Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("lexicon: open %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var magic uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, fmt.Errorf("%w: %s: read magic: %v", ErrCorruptLexicon, path, err)
	}
	if magic != lexiconMagic {
		return nil, fmt.Errorf("%w: %s: unexpected magic 0x%X", ErrCorruptLexicon, path, magic)
	}
	var version uint8
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("%w: %s: read version: %v", ErrCorruptLexicon, path, err)
	}
	if version != lexiconVersion {
		return nil, fmt.Errorf("%w: %s: unsupported version %d", ErrCorruptLexicon, path, version)
	}

	var count uint64
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("%w: %s: read entry count: %v", ErrCorruptLexicon, path, err)
	}

	entries := make(map[string]Entry, count)
	terms := make([]string, 0, count)
	var prevOffset uint64
	for i := uint64(0); i < count; i++ {
		var termLen uint16
		if err := binary.Read(r, binary.LittleEndian, &termLen); err != nil {
			return nil, fmt.Errorf("%w: %s: read term length: %v", ErrCorruptLexicon, path, err)
		}
		termBytes := make([]byte, termLen)
		if _, err := io.ReadFull(r, termBytes); err != nil {
			return nil, fmt.Errorf("%w: %s: read term bytes: %v", ErrCorruptLexicon, path, err)
		}
		delta, err := readVarint(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: read offset delta: %v", ErrCorruptLexicon, path, err)
		}
		length, err := readVarint(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: read length: %v", ErrCorruptLexicon, path, err)
		}
		offset := prevOffset + delta
		prevOffset = offset

		term := string(termBytes)
		entries[term] = Entry{Offset: offset, Length: length}
		terms = append(terms, term)
	}

	return &Lexicon{entries: entries, terms: terms}, nil
}

// Lookup returns the entry for term and whether it was found.
func (l *Lexicon) Lookup(term string) (Entry, bool) {
	e, ok := l.entries[term]
	return e, ok
}

// Terms returns every term in the lexicon in ascending order.
func (l *Lexicon) Terms() []string {
	out := append([]string(nil), l.terms...)
	sort.Strings(out)
	return out
}

// Len returns the number of terms in the lexicon.
func (l *Lexicon) Len() int {
	return len(l.entries)
}
