// Package postings implements the wire codec shared by SPIMI block files and
// the final merged postings file. A block file is a sequence of
// self-delimited (term, posting list) entries so that a reader can iterate
// them one at a time without ever materializing a whole file in memory —
// the streaming requirement the K-way merger depends on. The final postings
// file holds only the posting-list sections (SerializeList), with no term
// headers; it is read through the lexicon's byte ranges and DeserializeList.
package postings

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
)

// List maps doc_id to term frequency within one term's posting list.
type List map[string]uint32

// Entry is one (term, posting list) pair as it appears in a block file or in
// the final postings file.
type Entry struct {
	Term     string
	Postings List
}

// SortedDocIDs returns the entry's doc IDs in ascending lexicographic order,
// giving callers (serialization, tests) a deterministic iteration order over
// an otherwise unordered map.
func (e Entry) SortedDocIDs() []string {
	ids := make([]string, 0, len(e.Postings))
	for id := range e.Postings {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// WriteEntry appends one length-prefixed entry to w: term length + term
// bytes, posting count, then each (doc_id length + bytes, tf) pair in
// ascending doc_id order so that two equal posting lists always serialize to
// identical bytes.
func WriteEntry(w io.Writer, e Entry) error {
	if len(e.Postings) == 0 {
		return fmt.Errorf("postings: refusing to write empty posting list for term %q", e.Term)
	}

	termBytes := []byte(e.Term)
	if len(termBytes) > 0xFFFF {
		return fmt.Errorf("postings: term %q exceeds max encodable length", e.Term)
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(termBytes))); err != nil {
		return fmt.Errorf("postings: write term length: %w", err)
	}
	if _, err := w.Write(termBytes); err != nil {
		return fmt.Errorf("postings: write term bytes: %w", err)
	}

	ids := e.SortedDocIDs()
	if err := binary.Write(w, binary.LittleEndian, uint32(len(ids))); err != nil {
		return fmt.Errorf("postings: write posting count: %w", err)
	}
	for _, id := range ids {
		idBytes := []byte(id)
		if len(idBytes) > 0xFFFF {
			return fmt.Errorf("postings: doc_id %q exceeds max encodable length", id)
		}
		if err := binary.Write(w, binary.LittleEndian, uint16(len(idBytes))); err != nil {
			return fmt.Errorf("postings: write doc_id length: %w", err)
		}
		if _, err := w.Write(idBytes); err != nil {
			return fmt.Errorf("postings: write doc_id bytes: %w", err)
		}
		tf := e.Postings[id]
		if tf == 0 {
			return fmt.Errorf("postings: term %q doc %q has tf=0, postings must be >= 1", e.Term, id)
		}
		if err := binary.Write(w, binary.LittleEndian, tf); err != nil {
			return fmt.Errorf("postings: write tf: %w", err)
		}
	}
	return nil
}

// Reader streams Entry values out of a stream written by WriteEntry (a
// block file body) one at a time.
// It never loads more than a single entry into memory.
type Reader struct {
	r *bufio.Reader
}

// NewReader wraps r for streaming entry-at-a-time reads.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReaderSize(r, 64*1024)}
}

// Next reads the next entry. It returns io.EOF (unwrapped, checkable with
// errors.Is) when the stream is exhausted cleanly between entries.
func (pr *Reader) Next() (Entry, error) {
	var termLen uint16
	if err := binary.Read(pr.r, binary.LittleEndian, &termLen); err != nil {
		if err == io.EOF {
			return Entry{}, io.EOF
		}
		return Entry{}, fmt.Errorf("postings: read term length: %w", err)
	}

	termBytes := make([]byte, termLen)
	if _, err := io.ReadFull(pr.r, termBytes); err != nil {
		return Entry{}, fmt.Errorf("postings: read term bytes: %w", err)
	}

	var numPostings uint32
	if err := binary.Read(pr.r, binary.LittleEndian, &numPostings); err != nil {
		return Entry{}, fmt.Errorf("postings: read posting count: %w", err)
	}

	list := make(List, numPostings)
	for i := uint32(0); i < numPostings; i++ {
		var idLen uint16
		if err := binary.Read(pr.r, binary.LittleEndian, &idLen); err != nil {
			return Entry{}, fmt.Errorf("postings: read doc_id length: %w", err)
		}
		idBytes := make([]byte, idLen)
		if _, err := io.ReadFull(pr.r, idBytes); err != nil {
			return Entry{}, fmt.Errorf("postings: read doc_id bytes: %w", err)
		}
		var tf uint32
		if err := binary.Read(pr.r, binary.LittleEndian, &tf); err != nil {
			return Entry{}, fmt.Errorf("postings: read tf: %w", err)
		}
		list[string(idBytes)] = tf
	}

	return Entry{Term: string(termBytes), Postings: list}, nil
}

// DeserializeList decodes a standalone posting list from exactly the bytes
// written for one entry's posting section — used by the index reader, which
// already knows the term (it came from the lexicon) and only has the raw
// [offset, offset+length) byte range.
func DeserializeList(data []byte) (List, error) {
	r := bufio.NewReader(newByteReader(data))
	var numPostings uint32
	if err := binary.Read(r, binary.LittleEndian, &numPostings); err != nil {
		return nil, fmt.Errorf("postings: read posting count: %w", err)
	}
	list := make(List, numPostings)
	for i := uint32(0); i < numPostings; i++ {
		var idLen uint16
		if err := binary.Read(r, binary.LittleEndian, &idLen); err != nil {
			return nil, fmt.Errorf("postings: read doc_id length: %w", err)
		}
		idBytes := make([]byte, idLen)
		if _, err := io.ReadFull(r, idBytes); err != nil {
			return nil, fmt.Errorf("postings: read doc_id bytes: %w", err)
		}
		var tf uint32
		if err := binary.Read(r, binary.LittleEndian, &tf); err != nil {
			return nil, fmt.Errorf("postings: read tf: %w", err)
		}
		list[string(idBytes)] = tf
	}
	return list, nil
}

// SerializeList encodes a posting list using the same layout WriteEntry uses
// for the postings section of an entry (posting count + sorted doc_id/tf
// pairs), without the leading term header. This is the byte range the
// lexicon's (offset, length) points at in the final postings file.
func SerializeList(list List) ([]byte, error) {
	var buf countingBuffer
	ids := make([]string, 0, len(list))
	for id := range list {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(ids))); err != nil {
		return nil, err
	}
	for _, id := range ids {
		idBytes := []byte(id)
		if err := binary.Write(&buf, binary.LittleEndian, uint16(len(idBytes))); err != nil {
			return nil, err
		}
		if _, err := buf.Write(idBytes); err != nil {
			return nil, err
		}
		if err := binary.Write(&buf, binary.LittleEndian, list[id]); err != nil {
			return nil, err
		}
	}
	return buf.bytes, nil
}

type countingBuffer struct {
	bytes []byte
}

func (b *countingBuffer) Write(p []byte) (int, error) {
	b.bytes = append(b.bytes, p...)
	return len(p), nil
}

func newByteReader(data []byte) io.Reader {
	return &byteReader{data: data}
}

type byteReader struct {
	data []byte
	pos  int
}

func (b *byteReader) Read(p []byte) (int, error) {
	if b.pos >= len(b.data) {
		return 0, io.EOF
	}
	n := copy(p, b.data[b.pos:])
	b.pos += n
	return n, nil
}
