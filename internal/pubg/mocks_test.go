package pubg

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeLimiter struct {
	mu        sync.Mutex
	acquired  int
	throttled int
	relaxed   int
	err       error
}

func (l *fakeLimiter) Acquire(ctx context.Context, cost int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.acquired += cost
	return nil
}

func (l *fakeLimiter) Throttle() {
	l.mu.Lock()
	l.throttled++
	l.mu.Unlock()
}

func (l *fakeLimiter) Relax() {
	l.mu.Lock()
	l.relaxed++
	l.mu.Unlock()
}

func (l *fakeLimiter) counts() (acquired, throttled, relaxed int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.acquired, l.throttled, l.relaxed
}

func fastRetry() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		Factor:      2,
		MaxDelay:    5 * time.Millisecond,
	}
}

func newTestFetcher(t *testing.T, baseURL string, limiter *fakeLimiter) *Fetcher {
	t.Helper()
	client, err := NewClient(ClientConfig{
		BaseURL:        baseURL,
		APIKey:         "test-key",
		Limiter:        limiter,
		Retry:          fastRetry(),
		LimitTelemetry: true,
		Logger:         zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return NewFetcher(client)
}

const samplePlayers = `{
  "data": [{
    "type": "player",
    "id": "account.abc123",
    "attributes": {"name": "Shroud", "shardId": "steam"},
    "relationships": {"matches": {"data": [
      {"type": "match", "id": "m-3"},
      {"type": "match", "id": "m-2"},
      {"type": "match", "id": "m-1"}
    ]}}
  }]
}`

const samplePlayer = `{
  "data": {
    "type": "player",
    "id": "account.abc123",
    "attributes": {"name": "Shroud", "shardId": "steam"},
    "relationships": {"matches": {"data": [
      {"type": "match", "id": "m-3"},
      {"type": "match", "id": "m-2"},
      {"type": "match", "id": "m-1"}
    ]}}
  }
}`

// sampleMatch references a telemetry URL placeholder replaced per test
const sampleMatch = `{
  "data": {
    "type": "match",
    "id": "m-1",
    "attributes": {
      "createdAt": "2024-03-01T18:30:00Z",
      "duration": 1800,
      "gameMode": "squad-fpp",
      "mapName": "Baltic_Main",
      "shardId": "steam",
      "titleId": "bluehole-pubg"
    },
    "relationships": {
      "rosters": {"data": [{"type": "roster", "id": "r-1"}, {"type": "roster", "id": "r-2"}]},
      "assets": {"data": [{"type": "asset", "id": "a-1"}]}
    }
  },
  "included": [
    {"type": "participant", "id": "p-1", "attributes": {"stats": {
      "name": "Shroud", "playerId": "account.abc123", "kills": 3, "headshotKills": 1,
      "DBNOs": 2, "damageDealt": 412.5, "assists": 1, "revives": 2, "timeSurvived": 1700,
      "walkDistance": 2500.5, "rideDistance": 1200, "swimDistance": 10, "winPlace": 1
    }}},
    {"type": "participant", "id": "p-2", "attributes": {"stats": {
      "name": "Mate", "playerId": "account.def456", "damageDealt": 120, "timeSurvived": 1650, "winPlace": 1
    }}},
    {"type": "participant", "id": "p-3", "attributes": {"stats": {
      "name": "Enemy", "playerId": "account.zzz", "timeSurvived": 600, "winPlace": 12
    }}},
    {"type": "roster", "id": "r-1", "attributes": {"stats": {"rank": 1, "teamId": 7}, "won": "true"},
      "relationships": {"participants": {"data": [{"type": "participant", "id": "p-1"}, {"type": "participant", "id": "p-2"}]}}},
    {"type": "roster", "id": "r-2", "attributes": {"stats": {"rank": 12, "teamId": 3}, "won": "false"},
      "relationships": {"participants": {"data": [{"type": "participant", "id": "p-3"}]}}},
    {"type": "asset", "id": "a-1", "attributes": {"name": "telemetry", "URL": "TELEMETRY_URL"}}
  ]
}`

const sampleTelemetry = `[
  {"_T": "LogMatchStart", "_D": "2024-03-01T18:30:05.000Z"},
  {"_T": "LogPlayerPosition", "_D": "2024-03-01T18:31:00.000Z", "character": {"name": "Shroud"}},
  {"_T": "LogPlayerMakeGroggy", "_D": "2024-03-01T18:35:05.000Z",
    "attacker": {"name": "Shroud", "teamId": 7}, "victim": {"name": "Enemy", "teamId": 3},
    "damageCauserName": "WeapHK416_C", "damageReason": "TorsoShot", "distance": 4520.0},
  {"_T": "LogPlayerKillV2", "_D": "2024-03-01T18:35:20.000Z",
    "killer": {"name": "Mate"}, "finisher": {"name": "Shroud"}, "victim": {"name": "Enemy"},
    "killerDamageInfo": {"damageCauserName": "WeapAKM_C", "damageReason": "TorsoShot", "distance": 9000},
    "finishDamageInfo": {"damageCauserName": "WeapHK416_C", "damageReason": "HeadShot", "distance": 1250.0},
    "isSuicide": false},
  {"_T": "LogPlayerKillV2", "_D": "not-a-date", "victim": {"name": "Ghost"}},
  {"_T": "LogPlayerKillV2", "_D": "2024-03-01T18:40:00.000Z", "victim": "wrong-shape"},
  {"_T": "LogPlayerKillV2", "_D": "2024-03-01T18:50:00.000Z",
    "killer": null, "finisher": null, "victim": {"name": "Mate"},
    "killerDamageInfo": {"damageCauserName": "BlueZone", "damageReason": "NonSpecific"}}
]`
