package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/squadwatch/pubg-tracker/internal/models"
)

// Memory is a process-local ledger for development and tests
type Memory struct {
	mu   sync.RWMutex
	seen map[string]time.Time
	now  func() time.Time
}

// NewMemory creates an empty in-memory ledger
func NewMemory() *Memory {
	return &Memory{
		seen: make(map[string]time.Time),
		now:  time.Now,
	}
}

func (m *Memory) HasProcessed(ctx context.Context, matchID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.seen[matchID]
	return ok, nil
}

func (m *Memory) MarkProcessed(ctx context.Context, matchID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.seen[matchID]; !ok {
		m.seen[matchID] = m.now().UTC()
	}
	return nil
}

func (m *Memory) Recent(ctx context.Context, limit int) ([]models.ProcessedMatchRecord, error) {
	m.mu.RLock()
	records := make([]models.ProcessedMatchRecord, 0, len(m.seen))
	for id, at := range m.seen {
		records = append(records, models.ProcessedMatchRecord{MatchID: id, ProcessedAt: at})
	}
	m.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		if !records[i].ProcessedAt.Equal(records[j].ProcessedAt) {
			return records[i].ProcessedAt.After(records[j].ProcessedAt)
		}
		return records[i].MatchID < records[j].MatchID
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (m *Memory) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for id, at := range m.seen {
		if at.Before(cutoff) {
			delete(m.seen, id)
			removed++
		}
	}
	return removed, nil
}

func (m *Memory) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.seen = make(map[string]time.Time)
	m.mu.Unlock()
	return nil
}

// Len returns the number of recorded matches
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.seen)
}
