package main

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/squadwatch/pubg-tracker/internal/models"
	"github.com/squadwatch/pubg-tracker/internal/players"
)

func TestSeedPlayers(t *testing.T) {
	store := players.NewMemory(models.TrackedPlayer{Handle: "alice", Shard: "steam"})
	seeds := []string{"alice", "bob@kakao", " carol ", "", "dave@"}

	if err := seedPlayers(context.Background(), store, seeds, "steam", zap.NewNop().Sugar()); err != nil {
		t.Fatalf("seedPlayers failed: %v", err)
	}

	list, _ := store.ListTracked(context.Background())
	got := map[string]string{}
	for _, p := range list {
		got[p.Handle] = p.Shard
	}
	want := map[string]string{"alice": "steam", "bob": "kakao", "carol": "steam", "dave": "steam"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for h, s := range want {
		if got[h] != s {
			t.Errorf("%s shard = %q, want %q", h, got[h], s)
		}
	}
}

type failingStore struct{ players.Store }

func (failingStore) Add(ctx context.Context, p models.TrackedPlayer) error {
	return players.ErrUnavailable
}

func TestSeedPlayers_StoreError(t *testing.T) {
	err := seedPlayers(context.Background(), failingStore{}, []string{"alice"}, "steam", zap.NewNop().Sugar())
	if !errors.Is(err, players.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}
