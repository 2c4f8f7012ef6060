// Package session tracks which paragraphs a user has pinned as context for
// the next revision request.
//
// Paragraph indices are only meaningful against one text snapshot, so a
// session is bound to a generation id and drops all selections whenever the
// bound generation changes.
package session

import (
	"sort"
	"strings"
	"sync"

	"storyloom/api/internal/paragraph"
)

// Selection is one pinned paragraph: its index and the text it held when
// pinned.
type Selection struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// ContextSelection is the serializable snapshot handed to the orchestrator.
// Paragraphs are always sorted ascending by index.
type ContextSelection struct {
	GenerationID string      `json:"generationId"`
	Paragraphs   []Selection `json:"paragraphs"`
	Highlights   []string    `json:"highlights,omitempty"`
}

// Empty reports whether nothing is pinned.
func (c ContextSelection) Empty() bool {
	return len(c.Paragraphs) == 0 && len(c.Highlights) == 0
}

// Session is the mutable, chat-scoped selection state. Safe for concurrent
// use. It is never persisted to the lineage store.
type Session struct {
	mu           sync.Mutex
	generationID string
	byIndex      map[int]string
	highlights   []string
}

// NewSession creates an empty session bound to the given generation snapshot.
func NewSession(generationID string) *Session {
	return &Session{
		generationID: generationID,
		byIndex:      make(map[int]string),
	}
}

// Bind points the session at a different generation snapshot. Selections are
// invalidated on change since indices do not carry across snapshots.
func (s *Session) Bind(generationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generationID == generationID {
		return
	}
	s.generationID = generationID
	s.byIndex = make(map[int]string)
	s.highlights = nil
}

// Add pins a paragraph. Adding an already-pinned index is a no-op.
func (s *Session) Add(p paragraph.Paragraph) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byIndex[p.Index]; exists {
		return
	}
	s.byIndex[p.Index] = p.Text
}

// Remove unpins the paragraph at index, if pinned.
func (s *Session) Remove(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byIndex, index)
}

// AddHighlight records a raw highlighted substring.
func (s *Session) AddHighlight(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(text) == "" {
		return
	}
	s.highlights = append(s.highlights, text)
}

// Clear drops every pinned paragraph and highlight. Called on submit.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byIndex = make(map[int]string)
	s.highlights = nil
}

// Snapshot returns the current selection sorted ascending by index,
// regardless of insertion order. Downstream consumers rely on this ordering
// to rebuild a spatially coherent context window.
func (s *Session) Snapshot() ContextSelection {
	s.mu.Lock()
	defer s.mu.Unlock()

	paragraphs := make([]Selection, 0, len(s.byIndex))
	for index, text := range s.byIndex {
		paragraphs = append(paragraphs, Selection{Index: index, Text: text})
	}
	sort.Slice(paragraphs, func(i, j int) bool {
		return paragraphs[i].Index < paragraphs[j].Index
	})

	highlights := make([]string, len(s.highlights))
	copy(highlights, s.highlights)

	return ContextSelection{
		GenerationID: s.generationID,
		Paragraphs:   paragraphs,
		Highlights:   highlights,
	}
}
