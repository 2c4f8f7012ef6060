package textdiff

import (
	"reflect"
	"testing"
)

func TestSegmentsReconstructBothSides(t *testing.T) {
	cases := []struct {
		name   string
		before string
		after  string
	}{
		{"replace middle line", "one\ntwo\nthree\n", "one\n2\nthree\n"},
		{"append paragraph", "Para one.\n\nPara two.", "Para one.\n\nPara two.\n\nPara three."},
		{"delete everything", "gone\nentirely\n", ""},
		{"from empty", "", "fresh start\n"},
		{"identical", "same\ntext\n", "same\ntext\n"},
		{"no trailing newline", "alpha\nbeta", "alpha\ngamma"},
		{"reorder", "a\nb\nc\n", "c\na\nb\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			segments := Segments(tc.before, tc.after)
			if got := Before(segments); got != tc.before {
				t.Fatalf("Before() = %q, want %q", got, tc.before)
			}
			if got := After(segments); got != tc.after {
				t.Fatalf("After() = %q, want %q", got, tc.after)
			}
		})
	}
}

func TestSegmentsDeterministic(t *testing.T) {
	before := "Para one.\n\nPara two.\n\nPara three."
	after := "Para one.\n\nPara two revised.\n\nPara three.\n\nPara four."
	first := Segments(before, after)
	for i := 0; i < 5; i++ {
		if got := Segments(before, after); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d diverged: %+v vs %+v", i, got, first)
		}
	}
}

func TestSegmentsUnchangedOnly(t *testing.T) {
	segments := Segments("stable\n", "stable\n")
	if len(segments) != 1 || segments[0].Kind != Unchanged {
		t.Fatalf("expected single unchanged segment, got %+v", segments)
	}
}

func TestSegmentsEmptyPair(t *testing.T) {
	if segments := Segments("", ""); len(segments) != 0 {
		t.Fatalf("expected empty script, got %+v", segments)
	}
}

func TestStatsCountsLines(t *testing.T) {
	segments := Segments("one\ntwo\nthree\n", "one\n2\nthree\nfour\n")
	added, removed := Stats(segments)
	if added != 2 || removed != 1 {
		t.Fatalf("Stats() = +%d -%d, want +2 -1", added, removed)
	}
}
