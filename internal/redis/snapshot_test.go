package redis

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ensured/skate-deck-sub000/internal/domain"
)

func newTestStore(t *testing.T) (*SnapshotStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewSnapshotStoreWithClient(client, "skate:test", slog.New(slog.NewTextHandler(io.Discard, nil))), mr
}

func sampleSnapshot() domain.Snapshot {
	trick := domain.Trick{ID: 9, Name: "Kickflip", Difficulty: domain.DifficultyIntermediate, Points: 25}
	return domain.Snapshot{
		Version: domain.SnapshotVersion,
		GameState: domain.GameState{
			GameID:          "g-1",
			Status:          domain.StatusActive,
			Players:         []domain.Player{{ID: 1, Name: "Alpha", IsCreator: true, IsLeader: true}, {ID: 2, Name: "Bravo"}},
			CurrentPlayerID: 1,
			CurrentLeaderID: 1,
			CurrentTrick:    &trick,
			Round:           3,
			EventLog:        []string{"Game on!"},
			Settings:        domain.DefaultSettings(),
			NextPlayerID:    3,
		},
		DeckState: domain.DeckState{DrawPile: []int{1, 2}, DiscardPile: []int{3}},
		SavedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestSaveLoad(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Load(ctx); !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Fatalf("err = %v, want ErrSnapshotNotFound", err)
	}
	if ok, _ := store.Exists(ctx); ok {
		t.Fatal("empty store reports a snapshot")
	}

	want := sampleSnapshot()
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.GameState.GameID != "g-1" || got.GameState.Round != 3 || got.GameState.CurrentTrick.Name != "Kickflip" {
		t.Fatalf("loaded = %+v", got.GameState)
	}
	if len(got.DeckState.DrawPile) != 2 || !got.SavedAt.Equal(want.SavedAt) {
		t.Fatalf("loaded deck = %+v saved at %v", got.DeckState, got.SavedAt)
	}

	meta, err := store.Meta(ctx)
	if err != nil {
		t.Fatalf("meta: %v", err)
	}
	if meta.Status != domain.StatusActive || meta.Round != 3 || meta.Players != 2 || !meta.SavedAt.Equal(want.SavedAt) {
		t.Fatalf("meta = %+v", meta)
	}
}

func TestLoadCorrupt(t *testing.T) {
	store, mr := newTestStore(t)
	mr.Set("skate:test", "{not json")

	if _, err := store.Load(context.Background()); !errors.Is(err, domain.ErrInvalidSnapshot) {
		t.Fatalf("err = %v, want ErrInvalidSnapshot", err)
	}
}

func TestDelete(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()
	if err := store.Save(ctx, sampleSnapshot()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Delete(ctx); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists("skate:test") || mr.Exists("skate:test:meta") {
		t.Fatal("keys survived delete")
	}
	if _, err := store.Meta(ctx); !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Fatalf("err = %v, want ErrSnapshotNotFound", err)
	}
}
