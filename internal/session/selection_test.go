package session

import (
	"reflect"
	"testing"

	"storyloom/api/internal/paragraph"
)

func TestSnapshotSortsByIndex(t *testing.T) {
	s := NewSession("gen-1")
	s.Add(paragraph.Paragraph{Index: 4, Text: "fifth"})
	s.Add(paragraph.Paragraph{Index: 0, Text: "first"})
	s.Add(paragraph.Paragraph{Index: 2, Text: "third"})

	snap := s.Snapshot()
	want := []Selection{
		{Index: 0, Text: "first"},
		{Index: 2, Text: "third"},
		{Index: 4, Text: "fifth"},
	}
	if !reflect.DeepEqual(snap.Paragraphs, want) {
		t.Fatalf("Snapshot() = %+v, want %+v", snap.Paragraphs, want)
	}
	if snap.GenerationID != "gen-1" {
		t.Fatalf("snapshot bound to %q, want gen-1", snap.GenerationID)
	}
}

func TestAddDuplicateIndexIsNoOp(t *testing.T) {
	s := NewSession("gen-1")
	s.Add(paragraph.Paragraph{Index: 1, Text: "original"})
	s.Add(paragraph.Paragraph{Index: 1, Text: "sneaky overwrite"})

	snap := s.Snapshot()
	if len(snap.Paragraphs) != 1 {
		t.Fatalf("expected one selection, got %d", len(snap.Paragraphs))
	}
	if snap.Paragraphs[0].Text != "original" {
		t.Fatalf("duplicate add replaced text: %q", snap.Paragraphs[0].Text)
	}
}

func TestRemoveAndClear(t *testing.T) {
	s := NewSession("gen-1")
	s.Add(paragraph.Paragraph{Index: 0, Text: "a"})
	s.Add(paragraph.Paragraph{Index: 1, Text: "b"})
	s.AddHighlight("a fragment")

	s.Remove(0)
	if snap := s.Snapshot(); len(snap.Paragraphs) != 1 || snap.Paragraphs[0].Index != 1 {
		t.Fatalf("Remove(0) left %+v", snap.Paragraphs)
	}

	s.Clear()
	if snap := s.Snapshot(); !snap.Empty() {
		t.Fatalf("Clear() left %+v", snap)
	}
}

func TestBindToNewGenerationInvalidatesSelections(t *testing.T) {
	s := NewSession("gen-1")
	s.Add(paragraph.Paragraph{Index: 0, Text: "stale"})
	s.AddHighlight("stale highlight")

	s.Bind("gen-2")
	snap := s.Snapshot()
	if !snap.Empty() {
		t.Fatalf("rebind kept selections: %+v", snap)
	}
	if snap.GenerationID != "gen-2" {
		t.Fatalf("snapshot bound to %q, want gen-2", snap.GenerationID)
	}
}

func TestBindToSameGenerationKeepsSelections(t *testing.T) {
	s := NewSession("gen-1")
	s.Add(paragraph.Paragraph{Index: 0, Text: "kept"})
	s.Bind("gen-1")
	if snap := s.Snapshot(); len(snap.Paragraphs) != 1 {
		t.Fatalf("rebind to same generation dropped selections: %+v", snap)
	}
}
