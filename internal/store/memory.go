package store

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a mutex-guarded in-memory lineage store. It backs tests and
// the demo mode of cmd/revise; semantics mirror PostgresStore, including the
// branch-scoped atomic accept.
type MemoryStore struct {
	mu          sync.Mutex
	generations map[string]Generation
	order       []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{generations: make(map[string]Generation)}
}

func (s *MemoryStore) InsertGeneration(_ context.Context, g Generation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}
	s.generations[g.ID] = g
	s.order = append(s.order, g.ID)
	return nil
}

func (s *MemoryStore) GetGeneration(_ context.Context, id string) (Generation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.generations[id]
	if !ok {
		return Generation{}, sql.ErrNoRows
	}
	return g, nil
}

func (s *MemoryStore) ListBranch(_ context.Context, rootID string) ([]Generation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]Generation, 0)
	for _, id := range s.order {
		if g := s.generations[id]; g.RootID == rootID {
			items = append(items, g)
		}
	}
	return items, nil
}

func (s *MemoryStore) AcceptGeneration(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.generations[id]
	if !ok {
		return sql.ErrNoRows
	}
	if target.Status == StatusRejected {
		return ErrGenerationRejected
	}
	for otherID, other := range s.generations {
		if other.RootID == target.RootID && other.IsAccepted {
			other.IsAccepted = false
			s.generations[otherID] = other
		}
	}
	target.IsAccepted = true
	target.Status = StatusAccepted
	s.generations[id] = target
	return nil
}

func (s *MemoryStore) RejectGeneration(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.generations[id]
	if !ok || g.Status != StatusProposed {
		return false, nil
	}
	g.Status = StatusRejected
	g.IsAccepted = false
	s.generations[id] = g
	return true, nil
}

func (s *MemoryStore) History(_ context.Context, id string) ([]Generation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.generations[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	path := []Generation{g}
	for g.ParentID != nil {
		parent, ok := s.generations[*g.ParentID]
		if !ok {
			break
		}
		path = append(path, parent)
		g = parent
	}
	// reverse to root-first order
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

func (s *MemoryStore) ListRecent(_ context.Context, storyID string, limit int) ([]Generation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = 20
	}
	items := make([]Generation, 0)
	for _, id := range s.order {
		if g := s.generations[id]; g.StoryID == storyID {
			items = append(items, g)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}
