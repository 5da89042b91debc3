// Command tracker polls the PUBG API for matches played by tracked players
// and posts a summary of each new match to Discord.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/squadwatch/pubg-tracker/internal/config"
	"github.com/squadwatch/pubg-tracker/internal/handlers"
	"github.com/squadwatch/pubg-tracker/internal/ledger"
	"github.com/squadwatch/pubg-tracker/internal/logging"
	"github.com/squadwatch/pubg-tracker/internal/logic"
	"github.com/squadwatch/pubg-tracker/internal/models"
	"github.com/squadwatch/pubg-tracker/internal/monitor"
	"github.com/squadwatch/pubg-tracker/internal/notify"
	"github.com/squadwatch/pubg-tracker/internal/players"
	"github.com/squadwatch/pubg-tracker/internal/pubg"
	"github.com/squadwatch/pubg-tracker/internal/ratelimit"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "tracker:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	logger, flush, err := logging.New(logging.Options{
		Development: cfg.IsDevelopment(),
		Level:       cfg.LogLevel,
		File:        cfg.LogFile,
		MaxSizeMB:   cfg.LogMaxSizeMB,
		MaxBackups:  cfg.LogMaxBackups,
		MaxAgeDays:  cfg.LogMaxAgeDays,
	})
	if err != nil {
		return err
	}
	defer flush()
	sugar := logger.Sugar()

	checks := map[string]handlers.Pinger{}

	var pool *pgxpool.Pool
	if cfg.PlayerStore == config.BackendPostgres || cfg.LedgerBackend == config.BackendPostgres {
		pool, err = pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}
		checks["postgres"] = handlers.PingFunc(pool.Ping)
	}

	var schema *players.Postgres
	if pool != nil {
		schema = players.NewPostgres(pool)
		if err := schema.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("install schema: %w", err)
		}
	}

	var store players.Store
	switch cfg.PlayerStore {
	case config.BackendPostgres:
		store = schema
	default:
		store = players.NewMemory()
	}
	if err := seedPlayers(ctx, store, cfg.SeedPlayers, cfg.DefaultShard, sugar); err != nil {
		return err
	}

	var processed ledger.Ledger
	switch cfg.LedgerBackend {
	case config.BackendRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		checks["redis"] = handlers.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
		processed = ledger.NewRedis(rdb, cfg.RedisKey)
	case config.BackendPostgres:
		processed = ledger.NewPostgres(pool)
	default:
		sugar.Warnw("Using in-memory ledger, matches will be reposted after a restart")
		processed = ledger.NewMemory()
	}

	client, err := pubg.NewClient(pubg.ClientConfig{
		BaseURL:    cfg.PUBGBaseURL,
		APIKey:     cfg.PUBGAPIKey,
		HTTPClient: &http.Client{Timeout: cfg.RequestTimeout},
		Limiter:    ratelimit.NewPerMinute(cfg.RequestsPerMinute),
		Retry: pubg.RetryPolicy{
			MaxAttempts: cfg.RetryMaxAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
			Factor:      2,
			MaxDelay:    cfg.RetryMaxDelay,
			Jitter:      0.1,
		},
		LimitTelemetry: cfg.RateLimitTelemetry,
		Logger:         logger,
	})
	if err != nil {
		return err
	}
	fetcher := pubg.NewFetcher(client)

	sink, err := newSink(cfg, logger)
	if err != nil {
		return err
	}

	mon := monitor.New(monitor.Config{
		Interval:               cfg.PollInterval,
		MaxMatchesPerPlayer:    cfg.MaxMatchesPerPlayer,
		MaxMatchesPerCycle:     cfg.MaxMatchesPerCycle,
		PollConcurrency:        cfg.PollConcurrency,
		MatchTimeout:           cfg.MatchTimeout,
		MaxConsecutiveFailures: cfg.MaxConsecutiveFailures,
		Retention:              cfg.LedgerRetention,
		Logger:                 logger,
	}, fetcher, store, processed, sink)

	var resolver logic.AccountResolver
	if cfg.ResolveOnRegistration {
		resolver = fetcher
	}
	hcfg := handlers.Config{
		Players:           logic.NewPlayerService(store, resolver, cfg.DefaultShard),
		Matches:           logic.NewMatchService(processed),
		Checks:            checks,
		AdminToken:        cfg.AdminToken,
		AllowedOrigins:    cfg.AllowedOrigins,
		RequestsPerSecond: cfg.RateLimitPerSecond,
		RequestBurst:      cfg.RateLimitBurst,
		Logger:            logger,
	}
	if schema != nil {
		hcfg.Installer = schema
	}
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handlers.New(hcfg).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sugar.Infow("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return mon.Run(gctx)
	})

	err = g.Wait()
	if err != nil {
		sugar.Errorw("Tracker stopped", "error", err)
		return err
	}
	sugar.Infow("Tracker stopped")
	return nil
}

func newSink(cfg *config.Config, logger *zap.Logger) (notify.Sink, error) {
	renderer := notify.Renderer{Location: cfg.Location()}
	if cfg.Sink == config.SinkLog {
		return notify.NewLogSink(renderer, logger), nil
	}

	token := ""
	if cfg.DiscordBotToken != "" {
		token = "Bot " + cfg.DiscordBotToken
	}
	session, err := discordgo.New(token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	sink, err := notify.NewDiscord(session, notify.DiscordConfig{
		ChannelID:   cfg.DiscordChannelID,
		WebhookURL:  cfg.DiscordWebhookURL,
		MaxAttempts: cfg.DiscordMaxAttempts,
		BaseDelay:   cfg.DiscordBaseDelay,
		Renderer:    renderer,
	}, logger)
	if err != nil {
		return nil, err
	}
	return sink, nil
}

// seedPlayers adds "handle" or "handle@shard" entries that are not tracked yet
func seedPlayers(ctx context.Context, store players.Store, seeds []string, defaultShard string, log *zap.SugaredLogger) error {
	for _, raw := range seeds {
		handle, shard, found := strings.Cut(strings.TrimSpace(raw), "@")
		if handle == "" {
			continue
		}
		if !found || shard == "" {
			shard = defaultShard
		}
		err := store.Add(ctx, models.TrackedPlayer{Handle: handle, Shard: shard})
		switch {
		case err == nil:
			log.Infow("Seeded tracked player", "handle", handle, "shard", shard)
		case errors.Is(err, players.ErrPlayerExists):
		default:
			return fmt.Errorf("seed %s: %w", handle, err)
		}
	}
	return nil
}
