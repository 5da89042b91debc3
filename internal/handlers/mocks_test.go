package handlers

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/squadwatch/pubg-tracker/internal/logic"
	"github.com/squadwatch/pubg-tracker/internal/models"
	"github.com/squadwatch/pubg-tracker/internal/players"
)

type MockResolver struct {
	ResolveFunc func(ctx context.Context, handle, shard string) (string, error)
}

func (m *MockResolver) ResolveAccountID(ctx context.Context, handle, shard string) (string, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, handle, shard)
	}
	return "account." + handle, nil
}

type MockMatchService struct {
	Records []models.ProcessedMatchRecord
	Err     error
	Limit   int
}

func (m *MockMatchService) RecentProcessed(ctx context.Context, limit int) ([]models.ProcessedMatchRecord, error) {
	m.Limit = limit
	return m.Records, m.Err
}

type MockInstaller struct {
	Calls int
	Err   error
}

func (m *MockInstaller) EnsureSchema(ctx context.Context) error {
	m.Calls++
	return m.Err
}

var errDown = errors.New("connection refused")

// newTestHandler wires a handler over an in-memory store
func newTestHandler(seed ...models.TrackedPlayer) (*Handler, *players.Memory, *MockMatchService, *MockInstaller) {
	store := players.NewMemory(seed...)
	matches := &MockMatchService{}
	installer := &MockInstaller{}
	h := New(Config{
		Players:    logic.NewPlayerService(store, &MockResolver{}, "steam"),
		Matches:    matches,
		Installer:  installer,
		AdminToken: "admin-secret",
		Checks: map[string]Pinger{
			"postgres": PingFunc(func(ctx context.Context) error { return nil }),
		},
		Logger: zap.NewNop(),
	})
	return h, store, matches, installer
}
