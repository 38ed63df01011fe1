package document

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeTempJSONL(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docs.jsonl")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write temp jsonl: %v", err)
	}
	return path
}

func TestJSONLSourceTokens(t *testing.T) {
	path := writeTempJSONL(t, `{"doc_id":"d1","tokens":["apple","banana","apple"]}
{"doc_id":"d2","tokens":["apple","cherry"]}
`)

	src, err := OpenJSONLSource(path)
	if err != nil {
		t.Fatalf("OpenJSONLSource: %v", err)
	}
	defer src.Close()

	var docs []Document
	for {
		doc, ok, err := src.Next(context.Background())
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		docs = append(docs, doc)
	}

	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}
	if docs[0].DocID != "d1" || len(docs[0].Tokens) != 3 {
		t.Errorf("unexpected first document: %+v", docs[0])
	}
}

func TestJSONLSourceText(t *testing.T) {
	path := writeTempJSONL(t, `{"doc_id":"d1","text":"Apple Banana Apple"}
`)
	src, err := OpenJSONLSource(path)
	if err != nil {
		t.Fatalf("OpenJSONLSource: %v", err)
	}
	defer src.Close()

	doc, ok, err := src.Next(context.Background())
	if err != nil || !ok {
		t.Fatalf("Next: ok=%v err=%v", ok, err)
	}
	want := []string{"apple", "banana", "apple"}
	if len(doc.Tokens) != len(want) {
		t.Fatalf("tokens = %v, want %v", doc.Tokens, want)
	}
	for i := range want {
		if doc.Tokens[i] != want[i] {
			t.Errorf("token[%d] = %q, want %q", i, doc.Tokens[i], want[i])
		}
	}
}

func TestJSONLSourceSkipsBlankLines(t *testing.T) {
	path := writeTempJSONL(t, "\n{\"doc_id\":\"d1\",\"tokens\":[\"a\"]}\n\n")
	src, err := OpenJSONLSource(path)
	if err != nil {
		t.Fatalf("OpenJSONLSource: %v", err)
	}
	defer src.Close()

	doc, ok, err := src.Next(context.Background())
	if err != nil || !ok {
		t.Fatalf("Next: ok=%v err=%v", ok, err)
	}
	if doc.DocID != "d1" {
		t.Errorf("DocID = %q, want d1", doc.DocID)
	}

	_, ok, err = src.Next(context.Background())
	if err != nil || ok {
		t.Fatalf("expected end of stream, got ok=%v err=%v", ok, err)
	}
}

func TestJSONLSourceRejectsMalformedLine(t *testing.T) {
	path := writeTempJSONL(t, "not json\n")
	src, err := OpenJSONLSource(path)
	if err != nil {
		t.Fatalf("OpenJSONLSource: %v", err)
	}
	defer src.Close()

	_, _, err = src.Next(context.Background())
	if err == nil {
		t.Fatal("expected error for malformed JSON line")
	}
}

func TestJSONLSourceMissingFile(t *testing.T) {
	_, err := OpenJSONLSource(filepath.Join(t.TempDir(), "missing.jsonl"))
	if err == nil {
		t.Fatal("expected error opening a missing file")
	}
}
