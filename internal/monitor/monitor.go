// Package monitor runs the polling loop: it lists recent matches for every
// tracked player, drops the ones already reported, and turns each new match
// into a published summary.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/squadwatch/pubg-tracker/internal/ledger"
	"github.com/squadwatch/pubg-tracker/internal/models"
	"github.com/squadwatch/pubg-tracker/internal/notify"
	"github.com/squadwatch/pubg-tracker/internal/players"
	"github.com/squadwatch/pubg-tracker/internal/pubg"
	"github.com/squadwatch/pubg-tracker/internal/telemetry"
)

// Fetcher is the match API as seen by the monitor. *pubg.Fetcher satisfies it.
type Fetcher interface {
	ResolveAccountID(ctx context.Context, handle, shard string) (string, error)
	ListRecentMatches(ctx context.Context, accountID, shard string) ([]string, error)
	FetchMatchDetail(ctx context.Context, matchID, shard string) (*pubg.MatchDetail, error)
	FetchTelemetry(ctx context.Context, url string) (*pubg.Telemetry, error)
}

// Config tunes the monitor
type Config struct {
	Interval               time.Duration
	MaxMatchesPerPlayer    int
	MaxMatchesPerCycle     int
	PollConcurrency        int
	MatchTimeout           time.Duration
	MaxConsecutiveFailures int
	// Retention drops ledger entries older than this after a cycle. Zero keeps everything.
	Retention  time.Duration
	PruneEvery time.Duration
	Logger     *zap.Logger
}

// DefaultConfig polls every minute, five matches per player and per cycle
func DefaultConfig() Config {
	return Config{
		Interval:               time.Minute,
		MaxMatchesPerPlayer:    5,
		MaxMatchesPerCycle:     5,
		PollConcurrency:        4,
		MatchTimeout:           5 * time.Minute,
		MaxConsecutiveFailures: 3,
		PruneEvery:             time.Hour,
	}
}

// CycleStats describes one completed cycle
type CycleStats struct {
	Players    int
	Candidates int
	Processed  int
	Skipped    int
	Failed     int
}

// Monitor is the scheduler. Create with New and drive with Run.
type Monitor struct {
	cfg     Config
	fetcher Fetcher
	players players.Store
	ledger  ledger.Ledger
	sink    notify.Sink
	logger  *zap.SugaredLogger

	mu        sync.Mutex
	accounts  map[string]string // handle@shard -> account id
	lastPrune time.Time
}

// New creates a monitor. Zero config fields take DefaultConfig values.
func New(cfg Config, fetcher Fetcher, store players.Store, l ledger.Ledger, sink notify.Sink) *Monitor {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.MaxMatchesPerPlayer <= 0 {
		cfg.MaxMatchesPerPlayer = def.MaxMatchesPerPlayer
	}
	if cfg.MaxMatchesPerCycle <= 0 {
		cfg.MaxMatchesPerCycle = def.MaxMatchesPerCycle
	}
	if cfg.PollConcurrency <= 0 {
		cfg.PollConcurrency = def.PollConcurrency
	}
	if cfg.MatchTimeout <= 0 {
		cfg.MatchTimeout = def.MatchTimeout
	}
	if cfg.MaxConsecutiveFailures <= 0 {
		cfg.MaxConsecutiveFailures = def.MaxConsecutiveFailures
	}
	if cfg.PruneEvery <= 0 {
		cfg.PruneEvery = def.PruneEvery
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Monitor{
		cfg:      cfg,
		fetcher:  fetcher,
		players:  store,
		ledger:   l,
		sink:     sink,
		logger:   cfg.Logger.Sugar(),
		accounts: make(map[string]string),
	}
}

// Run executes a cycle immediately and then once per interval until ctx is
// cancelled, which returns nil. It returns an error when the API key is
// rejected or MaxConsecutiveFailures cycles in a row were aborted.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	m.logger.Infow("Match monitor started",
		"interval", m.cfg.Interval,
		"max_matches_per_cycle", m.cfg.MaxMatchesPerCycle,
	)

	failures := 0
	for {
		_, err := m.RunCycle(ctx)
		switch {
		case ctx.Err() != nil:
			m.logger.Infow("Match monitor stopped")
			return nil
		case err == nil:
			failures = 0
		case pubg.IsFatal(err):
			m.logger.Errorw("Stopping match monitor on fatal error", "error", err)
			return err
		default:
			failures++
			m.logger.Errorw("Monitor cycle aborted",
				"error", err,
				"consecutive_failures", failures,
			)
			if failures >= m.cfg.MaxConsecutiveFailures {
				return fmt.Errorf("monitor: %d consecutive cycles aborted: %w", failures, err)
			}
		}

		select {
		case <-ctx.Done():
			m.logger.Infow("Match monitor stopped")
			return nil
		case <-ticker.C:
		}
	}
}

type candidate struct {
	matchID string
	shard   string
	rank    int // best position in any player's listing, 0 = most recent
	handles []string
	keys    []string // handles and account ids of tracked players who played it
}

type listing struct {
	player    models.TrackedPlayer
	accountID string
	matchIDs  []string
}

// RunCycle performs a single poll → filter → process pass
func (m *Monitor) RunCycle(ctx context.Context) (CycleStats, error) {
	start := time.Now()
	log := m.logger.With("cycle_id", uuid.NewString())

	stats, err := m.runCycle(ctx, log)
	cycleDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		cyclesTotal.WithLabelValues("ok").Inc()
		log.Infow("Monitor cycle complete",
			"players", stats.Players,
			"candidates", stats.Candidates,
			"processed", stats.Processed,
			"skipped", stats.Skipped,
			"failed", stats.Failed,
			"duration", time.Since(start),
		)
		m.prune(ctx, log)
	case ctx.Err() != nil:
		cyclesTotal.WithLabelValues("cancelled").Inc()
	default:
		cyclesTotal.WithLabelValues("aborted").Inc()
	}
	return stats, err
}

// prune trims the ledger at most once per PruneEvery. Failures only warn.
func (m *Monitor) prune(ctx context.Context, log *zap.SugaredLogger) {
	if m.cfg.Retention <= 0 || time.Since(m.lastPrune) < m.cfg.PruneEvery {
		return
	}
	m.lastPrune = time.Now()

	removed, err := m.ledger.Prune(ctx, m.lastPrune.Add(-m.cfg.Retention))
	if err != nil {
		log.Warnw("Failed to prune processed matches", "error", err)
		return
	}
	if removed > 0 {
		log.Infow("Pruned processed matches", "removed", removed, "retention", m.cfg.Retention)
	}
}

func (m *Monitor) runCycle(ctx context.Context, log *zap.SugaredLogger) (CycleStats, error) {
	var stats CycleStats

	tracked, err := m.players.ListTracked(ctx)
	if err != nil {
		return stats, fmt.Errorf("list tracked players: %w", err)
	}
	stats.Players = len(tracked)
	trackedPlayers.Set(float64(len(tracked)))
	if len(tracked) == 0 {
		return stats, nil
	}

	listings, err := m.poll(ctx, log, tracked)
	if err != nil {
		return stats, err
	}

	candidates, err := m.filter(ctx, listings)
	if err != nil {
		return stats, err
	}
	stats.Candidates = len(candidates)

	// oldest first so channel history reads chronologically
	for i := len(candidates) - 1; i >= 0; i-- {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		if err := m.handleMatch(ctx, log, candidates[i], &stats); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// handleMatch processes one candidate on a context that ignores shutdown, so
// a match in flight is either fully reported or left untouched. Only errors
// that must abort the cycle are returned.
func (m *Monitor) handleMatch(ctx context.Context, log *zap.SugaredLogger, c *candidate, stats *CycleStats) error {
	mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.MatchTimeout)
	defer cancel()

	err := m.processMatch(mctx, log, c)
	switch {
	case err == nil:
		stats.Processed++
		matchesTotal.WithLabelValues("processed").Inc()
	case pubg.IsFatal(err), isCycleFatal(err):
		matchesTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("match %s: %w", c.matchID, err)
	case pubg.IsPermanent(err):
		stats.Skipped++
		matchesTotal.WithLabelValues("gone").Inc()
		log.Warnw("Match no longer available upstream, marking processed",
			"match_id", c.matchID,
			"shard", c.shard,
			"players", c.handles,
			"error", err,
		)
		if err := m.ledger.MarkProcessed(mctx, c.matchID); err != nil {
			return fmt.Errorf("mark gone match %s: %w", c.matchID, err)
		}
	default:
		stats.Failed++
		matchesTotal.WithLabelValues("failed").Inc()
		log.Errorw("Failed to process match, will retry next cycle",
			"match_id", c.matchID,
			"shard", c.shard,
			"players", c.handles,
			"error", err,
		)
	}
	return nil
}

func isCycleFatal(err error) bool {
	return errors.Is(err, ledger.ErrUnavailable) || notify.IsUnavailable(err)
}

// poll lists recent matches for every player with bounded concurrency. A
// failing player is logged and skipped; only an auth failure aborts.
func (m *Monitor) poll(ctx context.Context, log *zap.SugaredLogger, tracked []models.TrackedPlayer) ([]listing, error) {
	results := make([]listing, len(tracked))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.PollConcurrency)
	for i, p := range tracked {
		g.Go(func() error {
			accountID, ids, err := m.pollPlayer(gctx, log, p)
			if err != nil {
				if pubg.IsFatal(err) {
					return err
				}
				if gctx.Err() == nil {
					log.Warnw("Failed to poll player",
						"player", p.Handle,
						"shard", p.Shard,
						"error", err,
					)
				}
				return nil
			}
			if len(ids) > m.cfg.MaxMatchesPerPlayer {
				ids = ids[:m.cfg.MaxMatchesPerPlayer]
			}
			results[i] = listing{player: p, accountID: accountID, matchIDs: ids}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("poll players: %w", err)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return results, nil
}

func (m *Monitor) pollPlayer(ctx context.Context, log *zap.SugaredLogger, p models.TrackedPlayer) (string, []string, error) {
	accountID, err := m.accountID(ctx, log, p)
	if err != nil {
		return "", nil, err
	}
	ids, err := m.fetcher.ListRecentMatches(ctx, accountID, p.Shard)
	if err != nil {
		return "", nil, err
	}
	return accountID, ids, nil
}

// accountID resolves once per player and process, persisting the result
func (m *Monitor) accountID(ctx context.Context, log *zap.SugaredLogger, p models.TrackedPlayer) (string, error) {
	key := p.Handle + "@" + p.Shard

	m.mu.Lock()
	cached, ok := m.accounts[key]
	m.mu.Unlock()
	if ok {
		return cached, nil
	}
	if p.Resolved() {
		m.remember(key, p.AccountID)
		return p.AccountID, nil
	}

	id, err := m.fetcher.ResolveAccountID(ctx, p.Handle, p.Shard)
	if err != nil {
		return "", err
	}
	m.remember(key, id)

	if err := m.players.SetAccountID(ctx, p.Handle, p.Shard, id); err != nil {
		log.Warnw("Failed to persist account id",
			"player", p.Handle,
			"shard", p.Shard,
			"error", err,
		)
	}
	return id, nil
}

func (m *Monitor) remember(key, accountID string) {
	m.mu.Lock()
	m.accounts[key] = accountID
	m.mu.Unlock()
}

// filter merges listings, drops processed matches and keeps the most recent
// MaxMatchesPerCycle, returned most-recent first.
func (m *Monitor) filter(ctx context.Context, listings []listing) ([]*candidate, error) {
	byID := make(map[string]*candidate)
	var all []*candidate
	for _, l := range listings {
		for pos, id := range l.matchIDs {
			c, ok := byID[id]
			if !ok {
				c = &candidate{matchID: id, shard: l.player.Shard, rank: pos}
				byID[id] = c
				all = append(all, c)
			}
			if pos < c.rank {
				c.rank = pos
			}
			c.handles = append(c.handles, l.player.Handle)
			c.keys = append(c.keys, l.player.Handle, l.accountID)
		}
	}

	fresh := all[:0]
	for _, c := range all {
		seen, err := m.ledger.HasProcessed(ctx, c.matchID)
		if err != nil {
			return nil, fmt.Errorf("check ledger for %s: %w", c.matchID, err)
		}
		if !seen {
			sort.Strings(c.handles)
			fresh = append(fresh, c)
		}
	}

	sort.SliceStable(fresh, func(i, j int) bool {
		if fresh[i].rank != fresh[j].rank {
			return fresh[i].rank < fresh[j].rank
		}
		return fresh[i].matchID < fresh[j].matchID
	})
	if len(fresh) > m.cfg.MaxMatchesPerCycle {
		fresh = fresh[:m.cfg.MaxMatchesPerCycle]
	}
	return fresh, nil
}

// processMatch fetches, aggregates, publishes and finally marks one match
func (m *Monitor) processMatch(ctx context.Context, log *zap.SugaredLogger, c *candidate) error {
	detail, err := m.fetcher.FetchMatchDetail(ctx, c.matchID, c.shard)
	if err != nil {
		return err
	}

	var (
		entries    []models.CombatLogEntry
		matchStart = detail.Summary.CreatedAt
		missing    bool
	)
	tel, err := m.fetcher.FetchTelemetry(ctx, detail.TelemetryURL)
	switch {
	case err == nil:
		entries = tel.Entries
		if !tel.MatchStart.IsZero() {
			matchStart = tel.MatchStart
		}
	case pubg.IsFatal(err):
		return err
	default:
		missing = true
		log.Warnw("Telemetry unavailable, publishing without timeline",
			"match_id", c.matchID,
			"shard", c.shard,
			"error", err,
		)
	}

	teams := telemetry.Aggregate(detail.Roster, entries, matchStart, detail.Duration())
	if missing {
		teams = telemetry.ApplyRosterTotals(teams, detail.Roster)
	}

	summary := detail.Summary
	summary.Teams = telemetry.FilterTeams(teams, c.keys)
	summary.TrackedHandles = c.handles
	summary.TelemetryMissing = missing

	if err := m.sink.Publish(ctx, summary); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	if err := m.ledger.MarkProcessed(ctx, c.matchID); err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}

	log.Infow("Match reported",
		"match_id", c.matchID,
		"shard", c.shard,
		"players", c.handles,
		"teams", len(summary.Teams),
		"telemetry_missing", missing,
	)
	return nil
}
