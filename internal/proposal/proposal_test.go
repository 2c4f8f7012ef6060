package proposal

import (
	"errors"
	"testing"
)

func TestApplyFullModeReturnsTextVerbatim(t *testing.T) {
	p := Proposal{Mode: ModeFull, Text: "A clean slate.\n\nWith two paragraphs."}
	got, err := Apply(p, "anything at all")
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got != p.Text {
		t.Fatalf("Apply() = %q, want %q", got, p.Text)
	}
}

func TestApplyPatchRewritesAddressedParagraph(t *testing.T) {
	base := "Para one.\n\nPara two."
	p := Proposal{Mode: ModePatch, Edits: []Edit{
		{ParagraphIndex: 1, OldText: "Para two.", NewText: "Para two revised."},
	}}
	got, err := Apply(p, base)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if want := "Para one.\n\nPara two revised."; got != want {
		t.Fatalf("Apply() = %q, want %q", got, want)
	}
}

func TestApplyPatchMultipleEditsInOneBatch(t *testing.T) {
	base := "alpha\n\nbeta\n\ngamma"
	p := Proposal{Mode: ModePatch, Edits: []Edit{
		{ParagraphIndex: 2, OldText: "gamma", NewText: "GAMMA"},
		{ParagraphIndex: 0, OldText: "alpha", NewText: "ALPHA"},
	}}
	got, err := Apply(p, base)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if want := "ALPHA\n\nbeta\n\nGAMMA"; got != want {
		t.Fatalf("Apply() = %q, want %q", got, want)
	}
}

func TestApplyPatchConflictOnChangedParagraph(t *testing.T) {
	base := "Para one.\n\nPara two has moved on."
	p := Proposal{Mode: ModePatch, Edits: []Edit{
		{ParagraphIndex: 1, OldText: "Para two.", NewText: "Para two revised."},
	}}
	_, err := Apply(p, base)
	var conflict *PatchConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("Apply() error = %v, want PatchConflictError", err)
	}
	if conflict.Index != 1 {
		t.Fatalf("conflict index = %d, want 1", conflict.Index)
	}
	var stale *StaleIndexError
	if !errors.As(err, &stale) {
		t.Fatalf("conflict does not wrap StaleIndexError: %v", err)
	}
}

func TestApplyPatchConflictOnOutOfRangeIndex(t *testing.T) {
	p := Proposal{Mode: ModePatch, Edits: []Edit{
		{ParagraphIndex: 5, OldText: "x", NewText: "y"},
	}}
	_, err := Apply(p, "only one paragraph")
	var conflict *PatchConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("Apply() error = %v, want PatchConflictError", err)
	}
	if conflict.Index != 5 {
		t.Fatalf("conflict index = %d, want 5", conflict.Index)
	}
}

func TestApplyPatchIsAtomic(t *testing.T) {
	base := "first\n\nsecond\n\nthird"
	p := Proposal{Mode: ModePatch, Edits: []Edit{
		{ParagraphIndex: 0, OldText: "first", NewText: "FIRST"},
		{ParagraphIndex: 1, OldText: "not what is there", NewText: "SECOND"},
	}}
	_, err := Apply(p, base)
	var conflict *PatchConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("Apply() error = %v, want PatchConflictError", err)
	}
	if conflict.Index != 1 {
		t.Fatalf("conflict index = %d, want 1", conflict.Index)
	}
	// The failing batch must not have touched the base through any path a
	// caller could observe: re-applying a valid batch still matches the
	// original paragraph contents.
	fixed := Proposal{Mode: ModePatch, Edits: []Edit{
		{ParagraphIndex: 1, OldText: "second", NewText: "SECOND"},
	}}
	got, err := Apply(fixed, base)
	if err != nil {
		t.Fatalf("Apply() after failed batch error = %v", err)
	}
	if want := "first\n\nSECOND\n\nthird"; got != want {
		t.Fatalf("Apply() = %q, want %q", got, want)
	}
}

func TestValidateRejectsMalformedShapes(t *testing.T) {
	cases := []struct {
		name string
		p    Proposal
	}{
		{"unknown mode", Proposal{Mode: "replace"}},
		{"full without text", Proposal{Mode: ModeFull, Text: "   "}},
		{"full with edits", Proposal{Mode: ModeFull, Text: "ok", Edits: []Edit{{}}}},
		{"patch without edits", Proposal{Mode: ModePatch}},
		{"patch with text", Proposal{Mode: ModePatch, Text: "x", Edits: []Edit{{OldText: "a", NewText: "b"}}}},
		{"negative index", Proposal{Mode: ModePatch, Edits: []Edit{{ParagraphIndex: -1, OldText: "a", NewText: "b"}}}},
		{"duplicate index", Proposal{Mode: ModePatch, Edits: []Edit{
			{ParagraphIndex: 0, OldText: "a", NewText: "b"},
			{ParagraphIndex: 0, OldText: "a", NewText: "c"},
		}}},
		{"empty replacement", Proposal{Mode: ModePatch, Edits: []Edit{{ParagraphIndex: 0, OldText: "a", NewText: " "}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.p.Validate(); err == nil {
				t.Fatalf("Validate() accepted %+v", tc.p)
			}
		})
	}
}
