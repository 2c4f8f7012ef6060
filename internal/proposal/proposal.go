// Package proposal models the structured result of a revision request and its
// application against a base text.
package proposal

import (
	"fmt"
	"strings"

	"storyloom/api/internal/paragraph"
)

// Mode tags the two proposal variants.
type Mode string

const (
	// ModeFull replaces the entire base text.
	ModeFull Mode = "full"
	// ModePatch rewrites individual paragraphs in place.
	ModePatch Mode = "patch"
)

// Edit is one localized paragraph rewrite. ParagraphIndex addresses the
// paragraph sequence of the base text the patch was computed against; OldText
// is the expected current content of that paragraph and guards against
// applying the edit to a text that has since changed.
type Edit struct {
	ParagraphIndex int    `json:"paragraphIndex"`
	OldText        string `json:"oldText"`
	NewText        string `json:"newText"`
}

// Proposal is a validated revision proposal: exactly one of the two shapes.
type Proposal struct {
	Mode  Mode   `json:"mode"`
	Text  string `json:"text,omitempty"`
	Edits []Edit `json:"edits,omitempty"`
}

// StaleIndexError reports a single edit whose paragraph address no longer
// matches the base text.
type StaleIndexError struct {
	Index  int
	Reason string
}

func (e *StaleIndexError) Error() string {
	return fmt.Sprintf("stale paragraph index %d: %s", e.Index, e.Reason)
}

// PatchConflictError reports that a patch batch was rejected. Index names the
// first conflicting edit; no part of the batch was applied.
type PatchConflictError struct {
	Index int
	Err   error
}

func (e *PatchConflictError) Error() string {
	return fmt.Sprintf("patch conflicts at paragraph %d: %v", e.Index, e.Err)
}

func (e *PatchConflictError) Unwrap() error {
	return e.Err
}

// Validate checks the tagged shape. A full proposal must carry text; a patch
// proposal must carry at least one edit with a non-negative index.
func (p Proposal) Validate() error {
	switch p.Mode {
	case ModeFull:
		if strings.TrimSpace(p.Text) == "" {
			return fmt.Errorf("full proposal carries no text")
		}
		if len(p.Edits) > 0 {
			return fmt.Errorf("full proposal must not carry edits")
		}
		return nil
	case ModePatch:
		if len(p.Edits) == 0 {
			return fmt.Errorf("patch proposal carries no edits")
		}
		if p.Text != "" {
			return fmt.Errorf("patch proposal must not carry replacement text")
		}
		seen := make(map[int]struct{}, len(p.Edits))
		for _, edit := range p.Edits {
			if edit.ParagraphIndex < 0 {
				return fmt.Errorf("edit index %d is negative", edit.ParagraphIndex)
			}
			if _, dup := seen[edit.ParagraphIndex]; dup {
				return fmt.Errorf("duplicate edit for paragraph %d", edit.ParagraphIndex)
			}
			if strings.TrimSpace(edit.NewText) == "" {
				return fmt.Errorf("edit for paragraph %d carries no replacement text", edit.ParagraphIndex)
			}
			seen[edit.ParagraphIndex] = struct{}{}
		}
		return nil
	default:
		return fmt.Errorf("unknown proposal mode %q", p.Mode)
	}
}

// Apply is a pure text transformation: it never mutates lineage state and the
// caller decides whether the result becomes a new generation.
//
// Full mode returns the proposal text verbatim. Patch mode re-splits baseText,
// validates every edit against the current paragraph sequence, and only then
// applies the whole batch; any stale address fails the batch with a
// PatchConflictError wrapping the first StaleIndexError, leaving baseText
// untouched.
func Apply(p Proposal, baseText string) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	if p.Mode == ModeFull {
		return p.Text, nil
	}

	paragraphs := paragraph.Split(baseText)
	for _, edit := range p.Edits {
		if err := checkEdit(edit, paragraphs); err != nil {
			return "", &PatchConflictError{Index: edit.ParagraphIndex, Err: err}
		}
	}
	for _, edit := range p.Edits {
		paragraphs[edit.ParagraphIndex].Text = edit.NewText
	}
	return paragraph.Join(paragraphs), nil
}

func checkEdit(edit Edit, paragraphs []paragraph.Paragraph) error {
	if edit.ParagraphIndex < 0 || edit.ParagraphIndex >= len(paragraphs) {
		return &StaleIndexError{
			Index:  edit.ParagraphIndex,
			Reason: fmt.Sprintf("out of range, document has %d paragraphs", len(paragraphs)),
		}
	}
	if current := paragraphs[edit.ParagraphIndex].Text; current != edit.OldText {
		return &StaleIndexError{
			Index:  edit.ParagraphIndex,
			Reason: "paragraph text changed since the patch was computed",
		}
	}
	return nil
}
