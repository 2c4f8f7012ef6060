// Package textdiff computes reviewable line-level edit scripts between two
// text versions.
package textdiff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Kind classifies one segment of an edit script.
type Kind string

const (
	Unchanged Kind = "unchanged"
	Added     Kind = "added"
	Removed   Kind = "removed"
)

// Segment is one contiguous run of the edit script. Concatenating the content
// of all Unchanged+Removed segments in order reconstructs the before text;
// Unchanged+Added reconstructs the after text.
type Segment struct {
	Kind    Kind   `json:"kind"`
	Content string `json:"content"`
}

// Segments computes a minimal line-level edit script between before and after.
// The result is deterministic for a given input pair: the matcher runs without
// a time budget, so it never degrades to a coarser script under load.
func Segments(before, after string) []Segment {
	if before == after {
		if before == "" {
			return []Segment{}
		}
		return []Segment{{Kind: Unchanged, Content: before}}
	}

	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0

	beforeRunes, afterRunes, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(beforeRunes, afterRunes, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	segments := make([]Segment, 0, len(diffs))
	for _, d := range diffs {
		if d.Text == "" {
			continue
		}
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			segments = append(segments, Segment{Kind: Unchanged, Content: d.Text})
		case diffmatchpatch.DiffDelete:
			segments = append(segments, Segment{Kind: Removed, Content: d.Text})
		case diffmatchpatch.DiffInsert:
			segments = append(segments, Segment{Kind: Added, Content: d.Text})
		}
	}
	return segments
}

// Before rebuilds the before text from an edit script.
func Before(segments []Segment) string {
	var sb strings.Builder
	for _, seg := range segments {
		if seg.Kind == Unchanged || seg.Kind == Removed {
			sb.WriteString(seg.Content)
		}
	}
	return sb.String()
}

// After rebuilds the after text from an edit script.
func After(segments []Segment) string {
	var sb strings.Builder
	for _, seg := range segments {
		if seg.Kind == Unchanged || seg.Kind == Added {
			sb.WriteString(seg.Content)
		}
	}
	return sb.String()
}

// Stats counts added and removed lines across an edit script.
func Stats(segments []Segment) (added, removed int) {
	for _, seg := range segments {
		n := countLines(seg.Content)
		switch seg.Kind {
		case Added:
			added += n
		case Removed:
			removed += n
		}
	}
	return added, removed
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}
