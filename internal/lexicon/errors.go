package lexicon

import "errors"

// ErrCorruptLexicon wraps any failure to parse the lexicon file's header or
// body: bad magic, unsupported version, or a truncated entry.
var ErrCorruptLexicon = errors.New("lexicon: corrupt lexicon file")
