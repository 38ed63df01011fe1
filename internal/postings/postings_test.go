package postings

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestWriteEntryRoundTrip(t *testing.T) {
	entries := []Entry{
		{Term: "apple", Postings: List{"d1": 2, "d2": 1}},
		{Term: "banana", Postings: List{"d1": 1, "d3": 2}},
		{Term: "cherry", Postings: List{"d2": 1}},
	}

	var buf bytes.Buffer
	for _, e := range entries {
		if err := WriteEntry(&buf, e); err != nil {
			t.Fatalf("WriteEntry(%q): %v", e.Term, err)
		}
	}

	r := NewReader(&buf)
	for _, want := range entries {
		got, err := r.Next()
		if err != nil {
			t.Fatalf("Next(): %v", err)
		}
		if got.Term != want.Term {
			t.Fatalf("term = %q, want %q", got.Term, want.Term)
		}
		if len(got.Postings) != len(want.Postings) {
			t.Fatalf("term %q: got %d postings, want %d", want.Term, len(got.Postings), len(want.Postings))
		}
		for id, tf := range want.Postings {
			if got.Postings[id] != tf {
				t.Errorf("term %q doc %q: tf = %d, want %d", want.Term, id, got.Postings[id], tf)
			}
		}
	}

	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF at end of stream, got %v", err)
	}
}

func TestWriteEntryRejectsEmptyPostingList(t *testing.T) {
	var buf bytes.Buffer
	err := WriteEntry(&buf, Entry{Term: "ghost", Postings: List{}})
	if err == nil {
		t.Fatal("expected error writing an empty posting list")
	}
}

func TestSerializeListMatchesLexiconByteRange(t *testing.T) {
	list := List{"d1": 2, "d2": 1}
	data, err := SerializeList(list)
	if err != nil {
		t.Fatalf("SerializeList: %v", err)
	}

	got, err := DeserializeList(data)
	if err != nil {
		t.Fatalf("DeserializeList: %v", err)
	}
	if len(got) != len(list) {
		t.Fatalf("got %d postings, want %d", len(got), len(list))
	}
	for id, tf := range list {
		if got[id] != tf {
			t.Errorf("doc %q: tf = %d, want %d", id, got[id], tf)
		}
	}
}

func TestSerializeListDeterministic(t *testing.T) {
	list := List{"z": 1, "a": 3, "m": 2}
	first, err := SerializeList(list)
	if err != nil {
		t.Fatalf("SerializeList: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := SerializeList(list)
		if err != nil {
			t.Fatalf("SerializeList: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("SerializeList is not deterministic across calls")
		}
	}
}
