package generate

import (
	"context"

	"storyloom/api/internal/paragraph"
	"storyloom/api/internal/proposal"
)

// Mock is a deterministic offline generator for local runs and tests. It
// echoes the request back as a proposal: a patch touching the first selected
// paragraph when the selection is non-empty, otherwise a full rewrite built
// from the user request.
type Mock struct{}

func (Mock) Propose(_ context.Context, req Request) (proposal.Proposal, error) {
	if len(req.Selection.Paragraphs) > 0 {
		first := req.Selection.Paragraphs[0]
		return proposal.Proposal{
			Mode: proposal.ModePatch,
			Edits: []proposal.Edit{{
				ParagraphIndex: first.Index,
				OldText:        first.Text,
				NewText:        first.Text + " (revised)",
			}},
		}, nil
	}

	text := req.UserRequest
	if text == "" {
		text = req.Synopsis
	}
	paragraphs := paragraph.Split(text)
	if len(paragraphs) == 0 {
		paragraphs = []paragraph.Paragraph{{Text: "A quiet opening paragraph."}}
	}
	return proposal.Proposal{Mode: proposal.ModeFull, Text: paragraph.Join(paragraphs)}, nil
}
