package lexicon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/scampagna/catalogsearch/internal/postings"
)

func buildLexicon(t *testing.T, terms []string, lists []postings.List) (string, string) {
	t.Helper()
	dir := t.TempDir()
	finalPath := filepath.Join(dir, "final-index")
	lexPath := filepath.Join(dir, "lexicon")

	w := NewWriter(finalPath, lexPath)
	if err := w.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	for i, term := range terms {
		if err := w.WriteTerm(term, lists[i]); err != nil {
			t.Fatalf("WriteTerm(%q): %v", term, err)
		}
	}
	if err := w.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return finalPath, lexPath
}

func TestWriterAndLoadRoundTrip(t *testing.T) {
	terms := []string{"apple", "banana", "cherry", "date"}
	lists := []postings.List{
		{"d1": 2, "d2": 1},
		{"d1": 1, "d3": 2},
		{"d2": 1},
		{"d3": 1},
	}
	finalPath, lexPath := buildLexicon(t, terms, lists)

	lex, err := Load(lexPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if lex.Len() != len(terms) {
		t.Fatalf("Len() = %d, want %d", lex.Len(), len(terms))
	}

	data, err := os.ReadFile(finalPath)
	if err != nil {
		t.Fatalf("read final index: %v", err)
	}

	for i, term := range terms {
		entry, ok := lex.Lookup(term)
		if !ok {
			t.Fatalf("missing lexicon entry for %q", term)
		}
		chunk := data[entry.Offset : entry.Offset+entry.Length]
		got, err := postings.DeserializeList(chunk)
		if err != nil {
			t.Fatalf("DeserializeList(%q): %v", term, err)
		}
		for docID, tf := range lists[i] {
			if got[docID] != tf {
				t.Errorf("term %q doc %q tf = %d, want %d", term, docID, got[docID], tf)
			}
		}
	}
}

func TestLexiconOffsetsStrictlyIncreasingAndDisjoint(t *testing.T) {
	terms := []string{"apple", "banana", "cherry"}
	lists := []postings.List{
		{"d1": 1},
		{"d1": 1, "d2": 3},
		{"d3": 9},
	}
	_, lexPath := buildLexicon(t, terms, lists)

	lex, err := Load(lexPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	var prevEnd uint64
	for _, term := range terms {
		e, ok := lex.Lookup(term)
		if !ok {
			t.Fatalf("missing entry for %q", term)
		}
		if e.Offset < prevEnd {
			t.Fatalf("term %q offset %d overlaps previous range ending at %d", term, e.Offset, prevEnd)
		}
		prevEnd = e.Offset + e.Length
	}
}

func TestLexiconLookupUnknownTerm(t *testing.T) {
	_, lexPath := buildLexicon(t, []string{"apple"}, []postings.List{{"d1": 1}})
	lex, err := Load(lexPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := lex.Lookup("kiwi"); ok {
		t.Fatal("Lookup(kiwi) should report not found")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatal("expected error loading a missing lexicon file")
	}
}
