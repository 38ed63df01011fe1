package lexicon

import (
	"encoding/binary"
	"errors"
	"io"
)

// writeVarint and readVarint are a uint64 varint codec for compact
// monotone integer sequences, applied here to the lexicon's offset
// stream: offsets are strictly increasing in term order, so encoding each
// entry's offset as a delta from the previous one keeps the directory
// small without a general-purpose compression library.
func writeVarint(w io.Writer, value uint64) error {
	buf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(buf, value)
	_, err := w.Write(buf[:n])
	return err
}

func readVarint(r io.ByteReader) (uint64, error) {
	value, err := binary.ReadUvarint(r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, io.EOF
		}
		return 0, err
	}
	return value, nil
}
