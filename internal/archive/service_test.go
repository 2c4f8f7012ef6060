package archive

import (
	"strings"
	"testing"
)

func TestCommitAcceptedLifecycle(t *testing.T) {
	svc := New(t.TempDir())

	first, err := svc.CommitAccepted("story-1", "Para one.\n\nPara two.", "Avery", "Accept root draft")
	if err != nil {
		t.Fatalf("CommitAccepted() error = %v", err)
	}
	if first.Hash == "" {
		t.Fatal("expected commit hash")
	}
	if first.Added == 0 {
		t.Fatalf("expected added lines on first commit, got %+v", first)
	}

	second, err := svc.CommitAccepted("story-1", "Para one.\n\nPara two revised.", "Avery", "Accept revision")
	if err != nil {
		t.Fatalf("CommitAccepted() error = %v", err)
	}
	if second.Hash == first.Hash {
		t.Fatal("expected a new commit")
	}
	if second.Added != 1 || second.Removed != 1 {
		t.Fatalf("stats = +%d -%d, want +1 -1", second.Added, second.Removed)
	}

	head, err := svc.HeadText("story-1")
	if err != nil {
		t.Fatalf("HeadText() error = %v", err)
	}
	if head != "Para one.\n\nPara two revised." {
		t.Fatalf("HeadText() = %q", head)
	}

	history, err := svc.History("story-1", 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 commits, got %d", len(history))
	}
	if history[0].Hash != second.Hash {
		t.Fatal("history is not newest first")
	}
	if !strings.Contains(history[0].Message, "Accept revision") {
		t.Fatalf("unexpected head message %q", history[0].Message)
	}
	if history[0].Added != 1 || history[0].Removed != 1 {
		t.Fatalf("head stats = +%d -%d, want +1 -1", history[0].Added, history[0].Removed)
	}
}

func TestHistoryOfUnknownStoryIsEmpty(t *testing.T) {
	svc := New(t.TempDir())
	history, err := svc.History("never-accepted", 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expected empty history, got %+v", history)
	}
}

func TestHeadTextOfUnknownStoryIsEmpty(t *testing.T) {
	svc := New(t.TempDir())
	head, err := svc.HeadText("never-accepted")
	if err != nil {
		t.Fatalf("HeadText() error = %v", err)
	}
	if head != "" {
		t.Fatalf("HeadText() = %q, want empty", head)
	}
}

func TestStoriesAreIsolated(t *testing.T) {
	svc := New(t.TempDir())
	if _, err := svc.CommitAccepted("story-a", "alpha", "Avery", ""); err != nil {
		t.Fatalf("CommitAccepted(story-a) error = %v", err)
	}
	if _, err := svc.CommitAccepted("story-b", "beta", "Avery", ""); err != nil {
		t.Fatalf("CommitAccepted(story-b) error = %v", err)
	}
	a, err := svc.HeadText("story-a")
	if err != nil || a != "alpha" {
		t.Fatalf("story-a head = %q, err = %v", a, err)
	}
	b, err := svc.HeadText("story-b")
	if err != nil || b != "beta" {
		t.Fatalf("story-b head = %q, err = %v", b, err)
	}
}
