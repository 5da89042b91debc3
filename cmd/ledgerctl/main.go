// Command ledgerctl inspects and maintains the processed-match ledger.
//
//	ledgerctl list [-n 20]
//	ledgerctl prune -older-than 720h
//	ledgerctl clear -yes
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/squadwatch/pubg-tracker/internal/config"
	"github.com/squadwatch/pubg-tracker/internal/ledger"
)

const usage = "usage: ledgerctl list [-n N] | prune -older-than DURATION | clear -yes"

var errUsage = errors.New(usage)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.LoadStorage(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ledgerctl:", err)
		os.Exit(1)
	}

	l, closeFn, err := openLedger(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ledgerctl:", err)
		os.Exit(1)
	}
	defer closeFn()

	if err := run(ctx, os.Args[1:], os.Stdout, l, time.Now); err != nil {
		fmt.Fprintln(os.Stderr, "ledgerctl:", err)
		closeFn()
		os.Exit(2)
	}
}

func openLedger(ctx context.Context, cfg *config.Config) (ledger.Ledger, func(), error) {
	switch cfg.LedgerBackend {
	case config.BackendRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse redis url: %w", err)
		}
		rdb := redis.NewClient(opts)
		return ledger.NewRedis(rdb, cfg.RedisKey), func() { rdb.Close() }, nil
	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		return ledger.NewPostgres(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("ledger backend %q has nothing to maintain", cfg.LedgerBackend)
	}
}

func run(ctx context.Context, args []string, out io.Writer, l ledger.Ledger, now func() time.Time) error {
	if len(args) == 0 {
		return errUsage
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	switch args[0] {
	case "list":
		n := fs.Int("n", 20, "number of entries")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		records, err := l.Recent(ctx, *n)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "MATCH ID\tPROCESSED AT")
		for _, r := range records {
			fmt.Fprintf(tw, "%s\t%s\n", r.MatchID, r.ProcessedAt.UTC().Format(time.RFC3339))
		}
		return tw.Flush()

	case "prune":
		olderThan := fs.Duration("older-than", 0, "remove entries processed before now minus this")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *olderThan <= 0 {
			return errors.New("prune needs a positive -older-than")
		}
		removed, err := l.Prune(ctx, now().Add(-*olderThan))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "removed %d entries\n", removed)
		return nil

	case "clear":
		yes := fs.Bool("yes", false, "confirm clearing every entry")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if !*yes {
			return errors.New("clear reposts every recent match on the next cycle; pass -yes to confirm")
		}
		if err := l.Clear(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "ledger cleared")
		return nil

	default:
		return errUsage
	}
}
