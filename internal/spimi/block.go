package spimi

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/scampagna/catalogsearch/internal/postings"
)

// blockMagic/blockVersion identify the block file format with a
// self-describing header, scaled down to what a block actually needs: just
// enough to fail fast on a foreign or truncated file.
const (
	blockMagic   uint32 = 0x53504D31 // "SPM1"
	blockVersion uint8  = 1
)

// WriteBlock serializes entries (already sorted in ascending term order by
// BlockBuffer.DrainSorted) to path as one immutable block file. Any I/O
// error aborts with the partial file left on disk for inspection; the
// caller is expected to retry the whole build.
func WriteBlock(path string, entries []postings.Entry) (err error) {
	f, createErr := os.Create(path)
	if createErr != nil {
		return fmt.Errorf("spimi: create block %s: %w", path, createErr)
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()

	if err = binary.Write(f, binary.LittleEndian, blockMagic); err != nil {
		return fmt.Errorf("spimi: write block magic %s: %w", path, err)
	}
	if err = binary.Write(f, binary.LittleEndian, blockVersion); err != nil {
		return fmt.Errorf("spimi: write block version %s: %w", path, err)
	}
	for _, e := range entries {
		if err = postings.WriteEntry(f, e); err != nil {
			return fmt.Errorf("spimi: write block entry %s: %w", path, err)
		}
	}
	return nil
}

// BlockReader streams (term, posting list) entries out of one block file in
// the order they were written, without ever loading the whole file into
// memory — the property the K-way merger relies on to stay within O(K)
// resident entries regardless of block size.
type BlockReader struct {
	f    *os.File
	pr   *postings.Reader
	path string
}

// OpenBlockReader opens path and validates its header.
func OpenBlockReader(path string) (*BlockReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("spimi: open block %s: %w", path, err)
	}

	var magic uint32
	if err := binary.Read(f, binary.LittleEndian, &magic); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s: read magic: %v", ErrCorruptBlock, path, err)
	}
	if magic != blockMagic {
		f.Close()
		return nil, fmt.Errorf("%w: %s: unexpected magic 0x%X", ErrCorruptBlock, path, magic)
	}
	var version uint8
	if err := binary.Read(f, binary.LittleEndian, &version); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s: read version: %v", ErrCorruptBlock, path, err)
	}
	if version != blockVersion {
		f.Close()
		return nil, fmt.Errorf("%w: %s: unsupported version %d", ErrCorruptBlock, path, version)
	}

	return &BlockReader{f: f, pr: postings.NewReader(f), path: path}, nil
}

// Next returns the next entry, or io.EOF when the block is exhausted.
func (r *BlockReader) Next() (postings.Entry, error) {
	e, err := r.pr.Next()
	if err != nil {
		if err == io.EOF {
			return postings.Entry{}, io.EOF
		}
		return postings.Entry{}, fmt.Errorf("%w: %s: %v", ErrCorruptBlock, r.path, err)
	}
	return e, nil
}

// Close releases the underlying file handle.
func (r *BlockReader) Close() error {
	return r.f.Close()
}
