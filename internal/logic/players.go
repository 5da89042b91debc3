package logic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/squadwatch/pubg-tracker/internal/models"
	"github.com/squadwatch/pubg-tracker/internal/players"
)

// MaxHandleLength bounds player handles accepted for tracking
const MaxHandleLength = 64

var (
	ErrInvalidHandle = errors.New("invalid player handle")
	ErrUnknownShard  = errors.New("unknown shard")
)

// KnownShards are the platform shards the PUBG API serves
var KnownShards = []string{"steam", "kakao", "psn", "xbox", "console", "stadia", "tournament"}

// PlayerService is the command surface over the tracked-player store
type PlayerService interface {
	RegisterPlayer(ctx context.Context, handle, shard string) (models.TrackedPlayer, error)
	UnregisterPlayer(ctx context.Context, handle, shard string) error
	ListPlayers(ctx context.Context) ([]models.TrackedPlayer, error)
}

type playerService struct {
	store        players.Store
	resolver     AccountResolver
	defaultShard string
}

// NewPlayerService creates the service. A nil resolver skips the upstream
// existence check at registration.
func NewPlayerService(store players.Store, resolver AccountResolver, defaultShard string) PlayerService {
	if defaultShard == "" {
		defaultShard = "steam"
	}
	return &playerService{store: store, resolver: resolver, defaultShard: defaultShard}
}

func (s *playerService) normalize(handle, shard string) (string, string, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" || utf8.RuneCountInString(handle) > MaxHandleLength {
		return "", "", fmt.Errorf("%w: must be 1-%d characters", ErrInvalidHandle, MaxHandleLength)
	}
	shard = strings.ToLower(strings.TrimSpace(shard))
	if shard == "" {
		shard = s.defaultShard
	}
	for _, known := range KnownShards {
		if shard == known {
			return handle, shard, nil
		}
	}
	return "", "", fmt.Errorf("%w: %q", ErrUnknownShard, shard)
}

func (s *playerService) RegisterPlayer(ctx context.Context, handle, shard string) (models.TrackedPlayer, error) {
	handle, shard, err := s.normalize(handle, shard)
	if err != nil {
		return models.TrackedPlayer{}, err
	}

	// Reject duplicates before spending an API request on them
	_, found, err := s.lookup(ctx, handle, shard)
	if err != nil {
		return models.TrackedPlayer{}, err
	}
	if found {
		return models.TrackedPlayer{}, players.ErrPlayerExists
	}

	player := models.TrackedPlayer{Handle: handle, Shard: shard}
	if s.resolver != nil {
		id, err := s.resolver.ResolveAccountID(ctx, handle, shard)
		if err != nil {
			return models.TrackedPlayer{}, fmt.Errorf("failed to resolve %s: %w", handle, err)
		}
		player.AccountID = id
	}

	if err := s.store.Add(ctx, player); err != nil {
		return models.TrackedPlayer{}, err
	}
	return player, nil
}

func (s *playerService) UnregisterPlayer(ctx context.Context, handle, shard string) error {
	handle, shard, err := s.normalize(handle, shard)
	if err != nil {
		return err
	}
	stored, found, err := s.lookup(ctx, handle, shard)
	if err != nil {
		return err
	}
	if !found {
		return players.ErrPlayerNotTracked
	}
	return s.store.Remove(ctx, stored.Handle, stored.Shard)
}

// lookup finds a tracked player by handle, ignoring case, within a shard
func (s *playerService) lookup(ctx context.Context, handle, shard string) (models.TrackedPlayer, bool, error) {
	existing, err := s.store.ListTracked(ctx)
	if err != nil {
		return models.TrackedPlayer{}, false, fmt.Errorf("failed to list players: %w", err)
	}
	for _, p := range existing {
		if p.Shard == shard && strings.EqualFold(p.Handle, handle) {
			return p, true, nil
		}
	}
	return models.TrackedPlayer{}, false, nil
}

func (s *playerService) ListPlayers(ctx context.Context) ([]models.TrackedPlayer, error) {
	list, err := s.store.ListTracked(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	if list == nil {
		list = []models.TrackedPlayer{}
	}
	return list, nil
}
