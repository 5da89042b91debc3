// Package players persists the set of tracked players
package players

import (
	"context"
	"errors"

	"github.com/squadwatch/pubg-tracker/internal/models"
)

var (
	ErrPlayerExists     = errors.New("players: player already tracked")
	ErrPlayerNotTracked = errors.New("players: player not tracked")
	ErrUnavailable      = errors.New("players: store unavailable")
)

// Store holds tracked players. Handles are unique per shard.
type Store interface {
	ListTracked(ctx context.Context) ([]models.TrackedPlayer, error)
	Add(ctx context.Context, p models.TrackedPlayer) error
	Remove(ctx context.Context, handle, shard string) error
	SetAccountID(ctx context.Context, handle, shard, accountID string) error
}
