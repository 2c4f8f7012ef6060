// Package paragraph splits document text into stably indexed paragraphs.
//
// Indices are zero-based and valid only for the exact text they were computed
// from; any edit invalidates them and callers must re-split.
package paragraph

import "strings"

// Separator is the canonical paragraph separator used when joining.
const Separator = "\n\n"

// Paragraph is one blank-line-delimited unit of a document.
type Paragraph struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// Split breaks text on runs of one or more blank lines. Each paragraph is
// trimmed of leading/trailing whitespace; empty paragraphs are dropped.
// Split never fails: any input, including "", yields a (possibly empty) slice.
func Split(text string) []Paragraph {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(normalized, "\n")

	paragraphs := make([]Paragraph, 0)
	var current []string
	flush := func() {
		if len(current) == 0 {
			return
		}
		body := strings.TrimSpace(strings.Join(current, "\n"))
		current = current[:0]
		if body == "" {
			return
		}
		paragraphs = append(paragraphs, Paragraph{Index: len(paragraphs), Text: body})
	}

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()
	return paragraphs
}

// Join reassembles paragraphs with the canonical separator, in slice order.
// Indices carried on the paragraphs are ignored; callers that care about
// ordering sort before joining.
func Join(paragraphs []Paragraph) string {
	parts := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, Separator)
}

// Texts returns just the text of each paragraph, in order.
func Texts(paragraphs []Paragraph) []string {
	parts := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		parts = append(parts, p.Text)
	}
	return parts
}
