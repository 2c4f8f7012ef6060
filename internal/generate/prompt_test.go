package generate

import (
	"strings"
	"testing"

	"storyloom/api/internal/session"
)

func TestBuildPromptIncludesAnchoredParagraphsInOrder(t *testing.T) {
	req := Request{
		Synopsis:     "A lighthouse keeper finds a message in a bottle.",
		AcceptedText: "Para one.\n\nPara two.",
		UserRequest:  "Make paragraph two more ominous.",
		Selection: session.ContextSelection{
			GenerationID: "gen-1",
			Paragraphs: []session.Selection{
				{Index: 0, Text: "Para one."},
				{Index: 1, Text: "Para two."},
			},
		},
	}
	prompt := BuildPrompt(req)

	for _, want := range []string{
		"A lighthouse keeper",
		"Current accepted text:",
		"[0] Para one.",
		"[1] Para two.",
		"Make paragraph two more ominous.",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
	if strings.Index(prompt, "[0]") > strings.Index(prompt, "[1]") {
		t.Fatal("anchored paragraphs out of order")
	}
}

func TestBuildPromptDefaultsRequestLine(t *testing.T) {
	prompt := BuildPrompt(Request{
		Selection: session.ContextSelection{
			Paragraphs: []session.Selection{{Index: 3, Text: "pinned"}},
		},
	})
	if !strings.Contains(prompt, "Revise the anchored paragraphs.") {
		t.Fatalf("prompt missing default request line:\n%s", prompt)
	}
}

func TestBuildPromptDeterministic(t *testing.T) {
	req := Request{Synopsis: "s", StyleNote: "n", RequestedLength: 800, AcceptedText: "text"}
	if BuildPrompt(req) != BuildPrompt(req) {
		t.Fatal("prompt rendering is not deterministic")
	}
}
