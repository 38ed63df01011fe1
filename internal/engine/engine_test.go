package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/scampagna/catalogsearch/internal/document"
	"github.com/scampagna/catalogsearch/internal/indexstore"
	"github.com/scampagna/catalogsearch/internal/merge"
	"github.com/scampagna/catalogsearch/internal/spimi"
)

type sliceSource struct {
	docs []document.Document
	pos  int
}

func (s *sliceSource) Next(ctx context.Context) (document.Document, bool, error) {
	if s.pos >= len(s.docs) {
		return document.Document{}, false, nil
	}
	d := s.docs[s.pos]
	s.pos++
	return d, true, nil
}

func (s *sliceSource) Close() error { return nil }

func buildEngine(t *testing.T) *QueryEngine {
	t.Helper()
	dir := t.TempDir()

	b := spimi.NewBuilder(filepath.Join(dir, "blocks"), spimi.DefaultBlockSizeLimit, zerolog.Nop())
	docs := []document.Document{
		{DocID: "d1", Tokens: []string{"apple", "banana", "apple"}},
		{DocID: "d2", Tokens: []string{"apple", "cherry"}},
		{DocID: "d3", Tokens: []string{"banana", "banana", "date"}},
	}
	buildResult, err := b.Build(context.Background(), &sliceSource{docs: docs})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	finalPath := filepath.Join(dir, "final-index")
	lexPath := filepath.Join(dir, "lexicon")
	if _, err := merge.Merge(buildResult.BlockPaths, finalPath, lexPath, zerolog.Nop()); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	reader, err := indexstore.Open(finalPath, lexPath, buildResult.MetadataPath)
	if err != nil {
		t.Fatalf("Open reader: %v", err)
	}
	t.Cleanup(func() { reader.Close() })

	return New(reader, Config{TopK: 10}, zerolog.Nop())
}

func TestQueryAppleRanksD1First(t *testing.T) {
	e := buildEngine(t)
	results, err := e.Query([]string{"apple"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].DocID != "d1" {
		t.Errorf("top result = %q, want d1", results[0].DocID)
	}
}

func TestQueryUnknownTermReturnsEmpty(t *testing.T) {
	e := buildEngine(t)
	results, err := e.Query([]string{"kiwi"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results for an unknown term, want 0", len(results))
	}
}

func TestQueryDuplicateTermsMatchesSingleTerm(t *testing.T) {
	e := buildEngine(t)
	single, err := e.Query([]string{"apple"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	duplicate, err := e.Query([]string{"apple", "apple"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	if len(single) != len(duplicate) {
		t.Fatalf("result count differs: %d vs %d", len(single), len(duplicate))
	}
	for i := range single {
		if single[i] != duplicate[i] {
			t.Errorf("result[%d] differs: %+v vs %+v", i, single[i], duplicate[i])
		}
	}
}

func TestQueryBananaDatePrefersD3(t *testing.T) {
	e := buildEngine(t)
	results, err := e.Query([]string{"banana", "date"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].DocID != "d3" {
		t.Errorf("top result = %q, want d3", results[0].DocID)
	}
}
