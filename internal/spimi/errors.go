package spimi

import "errors"

// ErrCorruptBlock wraps any failure to parse a block file's header or body:
// bad magic, unsupported version, or a truncated entry. Callers can test for
// it with errors.Is to distinguish a damaged intermediate file from a plain
// I/O error.
var ErrCorruptBlock = errors.New("spimi: corrupt block file")

// ErrCorruptMetadata wraps any failure to parse the collection-statistics
// file: bad magic, unsupported version, or a truncated record.
var ErrCorruptMetadata = errors.New("spimi: corrupt metadata file")
