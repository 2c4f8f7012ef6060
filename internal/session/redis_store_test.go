package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStoreWithClient(client, time.Minute)
}

func TestSaveAndLoadSelection(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	selection := ContextSelection{
		GenerationID: "gen-1",
		Paragraphs: []Selection{
			{Index: 0, Text: "Para one."},
			{Index: 2, Text: "Para three."},
		},
		Highlights: []string{"a highlighted span"},
	}
	if err := store.SaveSelection(ctx, "chat-1", selection); err != nil {
		t.Fatalf("SaveSelection() error = %v", err)
	}

	loaded, err := store.LoadSelection(ctx, "chat-1")
	if err != nil {
		t.Fatalf("LoadSelection() error = %v", err)
	}
	if loaded.GenerationID != "gen-1" || len(loaded.Paragraphs) != 2 || len(loaded.Highlights) != 1 {
		t.Fatalf("loaded selection mismatch: %+v", loaded)
	}
	if loaded.Paragraphs[1].Index != 2 {
		t.Fatalf("paragraph order lost: %+v", loaded.Paragraphs)
	}
}

func TestLoadMissingSelection(t *testing.T) {
	store := newTestStore(t)
	_, err := store.LoadSelection(context.Background(), "chat-none")
	if !errors.Is(err, ErrSelectionNotFound) {
		t.Fatalf("LoadSelection() error = %v, want ErrSelectionNotFound", err)
	}
}

func TestClearSelection(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveSelection(ctx, "chat-1", ContextSelection{GenerationID: "gen-1"}); err != nil {
		t.Fatalf("SaveSelection() error = %v", err)
	}
	if err := store.ClearSelection(ctx, "chat-1"); err != nil {
		t.Fatalf("ClearSelection() error = %v", err)
	}
	if _, err := store.LoadSelection(ctx, "chat-1"); !errors.Is(err, ErrSelectionNotFound) {
		t.Fatalf("selection survived clear: err = %v", err)
	}
}

func TestSelectionsAreScopedPerChatSession(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveSelection(ctx, "chat-a", ContextSelection{GenerationID: "gen-a"}); err != nil {
		t.Fatalf("SaveSelection() error = %v", err)
	}
	if err := store.SaveSelection(ctx, "chat-b", ContextSelection{GenerationID: "gen-b"}); err != nil {
		t.Fatalf("SaveSelection() error = %v", err)
	}

	a, err := store.LoadSelection(ctx, "chat-a")
	if err != nil || a.GenerationID != "gen-a" {
		t.Fatalf("chat-a selection = %+v, err = %v", a, err)
	}
	b, err := store.LoadSelection(ctx, "chat-b")
	if err != nil || b.GenerationID != "gen-b" {
		t.Fatalf("chat-b selection = %+v, err = %v", b, err)
	}
}
