package paragraph

import (
	"reflect"
	"testing"
)

func TestSplitAssignsOrderedIndices(t *testing.T) {
	text := "Para one.\n\nPara two.\n\n\nPara three."
	got := Split(text)
	want := []Paragraph{
		{Index: 0, Text: "Para one."},
		{Index: 1, Text: "Para two."},
		{Index: 2, Text: "Para three."},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Split() = %+v, want %+v", got, want)
	}
}

func TestSplitKeepsSingleNewlinesInsideParagraph(t *testing.T) {
	text := "Line one\nline two\n\nSecond para"
	got := Split(text)
	if len(got) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d: %+v", len(got), got)
	}
	if got[0].Text != "Line one\nline two" {
		t.Fatalf("unexpected first paragraph: %q", got[0].Text)
	}
}

func TestSplitTreatsWhitespaceOnlyLinesAsBlank(t *testing.T) {
	text := "First.\n \t \nSecond."
	got := Split(text)
	if len(got) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d: %+v", len(got), got)
	}
}

func TestSplitIsTotal(t *testing.T) {
	for _, text := range []string{"", "\n", "\n\n\n", "   ", "\r\n\r\n", "only"} {
		got := Split(text)
		if got == nil {
			t.Fatalf("Split(%q) returned nil slice", text)
		}
		for i, p := range got {
			if p.Index != i {
				t.Fatalf("Split(%q) index %d holds %d", text, i, p.Index)
			}
			if p.Text == "" {
				t.Fatalf("Split(%q) produced empty paragraph at %d", text, i)
			}
		}
	}
}

func TestSplitIsIdempotent(t *testing.T) {
	text := "  Para one. \n\n\nPara two.\r\n\r\nPara three.  "
	first := Split(text)
	second := Split(Join(first))
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("re-split after join diverged: %+v vs %+v", first, second)
	}
}

func TestJoinRoundTripsNormalizedText(t *testing.T) {
	text := "Para one.\n\nPara two.\n\nPara three."
	if got := Join(Split(text)); got != text {
		t.Fatalf("Join(Split()) = %q, want %q", got, text)
	}
}
