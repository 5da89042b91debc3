package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/squadwatch/pubg-tracker/internal/ledger"
	"github.com/squadwatch/pubg-tracker/internal/models"
	"github.com/squadwatch/pubg-tracker/internal/pubg"
)

var matchTime = time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)

type fakeFetcher struct {
	mu sync.Mutex

	accounts     map[string]string   // handle -> account id
	resolveErr   map[string]error    // handle -> error
	matches      map[string][]string // account id -> match ids
	listErr      map[string]error    // account id -> error
	details      map[string]*pubg.MatchDetail
	detailErr    map[string]error
	telemetryErr error

	resolveCalls   map[string]int
	detailCalls    map[string]int
	telemetryCalls int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		accounts:     map[string]string{},
		resolveErr:   map[string]error{},
		matches:      map[string][]string{},
		listErr:      map[string]error{},
		details:      map[string]*pubg.MatchDetail{},
		detailErr:    map[string]error{},
		resolveCalls: map[string]int{},
		detailCalls:  map[string]int{},
	}
}

// addMatch registers a match whose roster puts the given handles in one squad
// plus an unrelated enemy squad.
func (f *fakeFetcher) addMatch(id string, squad ...string) {
	roster := []models.RosterEntry{{Handle: "enemy-" + id, AccountID: "account.enemy", TeamID: 2, Placement: 9}}
	for _, h := range squad {
		roster = append(roster, models.RosterEntry{
			Handle:    h,
			AccountID: f.accounts[h],
			TeamID:    1,
			Placement: 1,
			Kills:     3,
		})
	}
	f.details[id] = &pubg.MatchDetail{
		Summary: models.MatchSummary{
			MatchID:   id,
			Shard:     "steam",
			CreatedAt: matchTime,
			MapName:   "Baltic_Main",
			GameMode:  "squad-fpp",
			Duration:  1800,
		},
		Roster:       roster,
		TelemetryURL: "https://telemetry/" + id,
	}
}

func (f *fakeFetcher) ResolveAccountID(ctx context.Context, handle, shard string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolveCalls[handle]++
	if err := f.resolveErr[handle]; err != nil {
		return "", err
	}
	id, ok := f.accounts[handle]
	if !ok {
		return "", fmt.Errorf("%w: %s", pubg.ErrPlayerNotFound, handle)
	}
	return id, nil
}

func (f *fakeFetcher) ListRecentMatches(ctx context.Context, accountID, shard string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.listErr[accountID]; err != nil {
		return nil, err
	}
	return append([]string(nil), f.matches[accountID]...), nil
}

func (f *fakeFetcher) FetchMatchDetail(ctx context.Context, matchID, shard string) (*pubg.MatchDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailCalls[matchID]++
	if err := f.detailErr[matchID]; err != nil {
		return nil, err
	}
	d, ok := f.details[matchID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", pubg.ErrMatchGone, matchID)
	}
	return d, nil
}

func (f *fakeFetcher) FetchTelemetry(ctx context.Context, url string) (*pubg.Telemetry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.telemetryCalls++
	if f.telemetryErr != nil {
		return nil, f.telemetryErr
	}
	return &pubg.Telemetry{MatchStart: matchTime}, nil
}

func (f *fakeFetcher) detailCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.detailCalls[id]
}

type fakeSink struct {
	mu        sync.Mutex
	published []models.MatchSummary
	errs      map[string]error // match id -> error
	err       error
}

func (s *fakeSink) Publish(ctx context.Context, summary models.MatchSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if err := s.errs[summary.MatchID]; err != nil {
		return err
	}
	s.published = append(s.published, summary)
	return nil
}

func (s *fakeSink) ids() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for _, p := range s.published {
		ids = append(ids, p.MatchID)
	}
	return ids
}

// countingLedger wraps the in-memory ledger to count marks
type countingLedger struct {
	*ledger.Memory
	mu      sync.Mutex
	marks   map[string]int
	hasErr  error
	markErr error
}

func newCountingLedger() *countingLedger {
	return &countingLedger{Memory: ledger.NewMemory(), marks: map[string]int{}}
}

func (l *countingLedger) HasProcessed(ctx context.Context, id string) (bool, error) {
	if l.hasErr != nil {
		return false, l.hasErr
	}
	return l.Memory.HasProcessed(ctx, id)
}

func (l *countingLedger) MarkProcessed(ctx context.Context, id string) error {
	if l.markErr != nil {
		return l.markErr
	}
	l.mu.Lock()
	l.marks[id]++
	l.mu.Unlock()
	return l.Memory.MarkProcessed(ctx, id)
}

func (l *countingLedger) markCount(id string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.marks[id]
}
