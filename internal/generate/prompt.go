package generate

import (
	"fmt"
	"strings"
)

const systemInstructions = `You are a narrative co-writer. Respond with a single JSON object.
Use mode "patch" with paragraph edits when the request targets specific paragraphs;
use mode "full" with complete replacement text when the whole passage should be rewritten.
Paragraph indices are zero-based and refer to the current accepted text.
For every patch edit, oldText must repeat the addressed paragraph exactly as given.`

// BuildPrompt renders the request bundle as the user-facing prompt text. The
// same rendering is persisted on the resulting generation so a node's prompt
// can be audited later.
func BuildPrompt(req Request) string {
	var sb strings.Builder

	if req.Synopsis != "" {
		sb.WriteString("Synopsis:\n")
		sb.WriteString(req.Synopsis)
		sb.WriteString("\n\n")
	}
	if req.StyleNote != "" {
		sb.WriteString("Style:\n")
		sb.WriteString(req.StyleNote)
		sb.WriteString("\n\n")
	}
	if req.RequestedLength > 0 {
		fmt.Fprintf(&sb, "Target length: about %d words.\n\n", req.RequestedLength)
	}

	if req.AcceptedText != "" {
		sb.WriteString("Current accepted text:\n---\n")
		sb.WriteString(req.AcceptedText)
		sb.WriteString("\n---\n\n")
	}

	if len(req.Selection.Paragraphs) > 0 {
		sb.WriteString("The request is anchored to these paragraphs:\n")
		for _, sel := range req.Selection.Paragraphs {
			fmt.Fprintf(&sb, "[%d] %s\n", sel.Index, sel.Text)
		}
		sb.WriteString("\n")
	}
	for _, highlight := range req.Selection.Highlights {
		fmt.Fprintf(&sb, "Highlighted span: %q\n", highlight)
	}
	if len(req.Selection.Highlights) > 0 {
		sb.WriteString("\n")
	}

	if req.UserRequest != "" {
		sb.WriteString("Request:\n")
		sb.WriteString(req.UserRequest)
		sb.WriteString("\n")
	} else {
		sb.WriteString("Request:\nRevise the anchored paragraphs.\n")
	}

	return sb.String()
}
