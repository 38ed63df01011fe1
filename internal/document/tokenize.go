package document

import "strings"

// Tokenize lowercases s and splits it on runs of ASCII characters that are
// neither letters nor digits, dropping empty fields. Every non-ASCII rune,
// punctuation and spaces included, is kept as part of a term. Applying the same
// fold-and-split rule to both indexed text and typed queries keeps a
// JSONLSource document built from "text" and an operator's query in the
// same term space. Document sources that need language-aware segmentation
// should supply pre-tokenised "tokens" instead of relying on this helper.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r > 127)
	})
}
