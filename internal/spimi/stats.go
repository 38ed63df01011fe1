package spimi

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"
)

// Metadata is the collection-statistics record C3 accumulates while the
// driver walks the document stream and persists once at end-of-stream.
type Metadata struct {
	N           uint64
	TotalLength uint64
	AvgDL       float64
	DocLengths  map[string]uint32
}

// StatsRecorder accumulates N, per-document lengths and total token count
// as the driver folds each document in. The last length observed for a
// given doc_id wins; a repeated doc_id still contributes its length to
// TotalLength, matching the documented duplicate-doc_id behaviour.
type StatsRecorder struct {
	n           uint64
	totalLength uint64
	docLengths  map[string]uint32
}

// NewStatsRecorder returns an empty recorder.
func NewStatsRecorder() *StatsRecorder {
	return &StatsRecorder{docLengths: make(map[string]uint32)}
}

// Observe folds in one document's token count.
func (r *StatsRecorder) Observe(docID string, numTokens int) {
	r.n++
	r.docLengths[docID] = uint32(numTokens)
	r.totalLength += uint64(numTokens)
}

// Finalize produces the Metadata record. avgdl is 0 when no documents were
// observed rather than a division by zero.
func (r *StatsRecorder) Finalize() Metadata {
	var avgdl float64
	if r.n > 0 {
		avgdl = float64(r.totalLength) / float64(r.n)
	}
	lengths := make(map[string]uint32, len(r.docLengths))
	for k, v := range r.docLengths {
		lengths[k] = v
	}
	return Metadata{
		N:           r.n,
		TotalLength: r.totalLength,
		AvgDL:       avgdl,
		DocLengths:  lengths,
	}
}

// metadataMagic/metadataVersion give the metadata file the same
// self-describing header as block files.
const (
	metadataMagic   uint32 = 0x4D455441 // "META"
	metadataVersion uint8  = 1
)

// WriteMetadata persists m to path. doc_lengths entries are written in
// ascending doc_id order so that two runs over the same document set
// produce byte-identical files — Go's map iteration order is randomized,
// so this sort is load-bearing for reproducibility, not cosmetic.
func WriteMetadata(path string, m Metadata) (err error) {
	f, createErr := os.Create(path)
	if createErr != nil {
		return fmt.Errorf("spimi: create metadata %s: %w", path, createErr)
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()

	w := bufio.NewWriter(f)
	if err = binary.Write(w, binary.LittleEndian, metadataMagic); err != nil {
		return fmt.Errorf("spimi: write metadata magic %s: %w", path, err)
	}
	if err = binary.Write(w, binary.LittleEndian, metadataVersion); err != nil {
		return fmt.Errorf("spimi: write metadata version %s: %w", path, err)
	}
	if err = binary.Write(w, binary.LittleEndian, m.N); err != nil {
		return fmt.Errorf("spimi: write N %s: %w", path, err)
	}
	if err = binary.Write(w, binary.LittleEndian, m.TotalLength); err != nil {
		return fmt.Errorf("spimi: write total_length %s: %w", path, err)
	}
	if err = binary.Write(w, binary.LittleEndian, m.AvgDL); err != nil {
		return fmt.Errorf("spimi: write avgdl %s: %w", path, err)
	}

	docIDs := make([]string, 0, len(m.DocLengths))
	for id := range m.DocLengths {
		docIDs = append(docIDs, id)
	}
	sort.Strings(docIDs)

	if err = binary.Write(w, binary.LittleEndian, uint64(len(docIDs))); err != nil {
		return fmt.Errorf("spimi: write doc_lengths count %s: %w", path, err)
	}
	for _, id := range docIDs {
		idBytes := []byte(id)
		if len(idBytes) > 0xFFFF {
			return fmt.Errorf("spimi: doc_id %q exceeds max encodable length", id)
		}
		if err = binary.Write(w, binary.LittleEndian, uint16(len(idBytes))); err != nil {
			return fmt.Errorf("spimi: write doc_id length %s: %w", path, err)
		}
		if _, err = w.Write(idBytes); err != nil {
			return fmt.Errorf("spimi: write doc_id bytes %s: %w", path, err)
		}
		if err = binary.Write(w, binary.LittleEndian, m.DocLengths[id]); err != nil {
			return fmt.Errorf("spimi: write doc length %s: %w", path, err)
		}
	}
	return w.Flush()
}

// ReadMetadata loads the metadata record at path.
func ReadMetadata(path string) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("spimi: open metadata %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var magic uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return Metadata{}, fmt.Errorf("%w: %s: read magic: %v", ErrCorruptMetadata, path, err)
	}
	if magic != metadataMagic {
		return Metadata{}, fmt.Errorf("%w: %s: unexpected magic 0x%X", ErrCorruptMetadata, path, magic)
	}
	var version uint8
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return Metadata{}, fmt.Errorf("%w: %s: read version: %v", ErrCorruptMetadata, path, err)
	}
	if version != metadataVersion {
		return Metadata{}, fmt.Errorf("%w: %s: unsupported version %d", ErrCorruptMetadata, path, version)
	}

	var m Metadata
	if err := binary.Read(r, binary.LittleEndian, &m.N); err != nil {
		return Metadata{}, fmt.Errorf("%w: %s: read N: %v", ErrCorruptMetadata, path, err)
	}
	if err := binary.Read(r, binary.LittleEndian, &m.TotalLength); err != nil {
		return Metadata{}, fmt.Errorf("%w: %s: read total_length: %v", ErrCorruptMetadata, path, err)
	}
	if err := binary.Read(r, binary.LittleEndian, &m.AvgDL); err != nil {
		return Metadata{}, fmt.Errorf("%w: %s: read avgdl: %v", ErrCorruptMetadata, path, err)
	}

	var count uint64
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return Metadata{}, fmt.Errorf("%w: %s: read doc_lengths count: %v", ErrCorruptMetadata, path, err)
	}
	m.DocLengths = make(map[string]uint32, count)
	for i := uint64(0); i < count; i++ {
		var idLen uint16
		if err := binary.Read(r, binary.LittleEndian, &idLen); err != nil {
			return Metadata{}, fmt.Errorf("%w: %s: read doc_id length: %v", ErrCorruptMetadata, path, err)
		}
		idBytes := make([]byte, idLen)
		if _, err := io.ReadFull(r, idBytes); err != nil {
			return Metadata{}, fmt.Errorf("%w: %s: read doc_id bytes: %v", ErrCorruptMetadata, path, err)
		}
		var length uint32
		if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
			return Metadata{}, fmt.Errorf("%w: %s: read doc length: %v", ErrCorruptMetadata, path, err)
		}
		m.DocLengths[string(idBytes)] = length
	}
	return m, nil
}
