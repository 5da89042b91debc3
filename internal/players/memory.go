package players

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/squadwatch/pubg-tracker/internal/models"
)

type playerKey struct {
	handle string
	shard  string
}

// Memory is an in-process Store
type Memory struct {
	mu      sync.RWMutex
	players map[playerKey]models.TrackedPlayer
}

// NewMemory creates a store seeded with players
func NewMemory(seed ...models.TrackedPlayer) *Memory {
	m := &Memory{players: make(map[playerKey]models.TrackedPlayer)}
	for _, p := range seed {
		if p.CreatedAt.IsZero() {
			p.CreatedAt = time.Now().UTC()
		}
		m.players[playerKey{p.Handle, p.Shard}] = p
	}
	return m
}

func (m *Memory) ListTracked(ctx context.Context) ([]models.TrackedPlayer, error) {
	m.mu.RLock()
	out := make([]models.TrackedPlayer, 0, len(m.players))
	for _, p := range m.players {
		out = append(out, p)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Handle != out[j].Handle {
			return out[i].Handle < out[j].Handle
		}
		return out[i].Shard < out[j].Shard
	})
	return out, nil
}

func (m *Memory) Add(ctx context.Context, p models.TrackedPlayer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := playerKey{p.Handle, p.Shard}
	if _, ok := m.players[key]; ok {
		return ErrPlayerExists
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	m.players[key] = p
	return nil
}

func (m *Memory) Remove(ctx context.Context, handle, shard string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := playerKey{handle, shard}
	if _, ok := m.players[key]; !ok {
		return ErrPlayerNotTracked
	}
	delete(m.players, key)
	return nil
}

func (m *Memory) SetAccountID(ctx context.Context, handle, shard, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := playerKey{handle, shard}
	p, ok := m.players[key]
	if !ok {
		return ErrPlayerNotTracked
	}
	p.AccountID = accountID
	m.players[key] = p
	return nil
}
