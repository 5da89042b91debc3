package players

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/squadwatch/pubg-tracker/internal/models"
	"github.com/squadwatch/pubg-tracker/migrations"
)

const uniqueViolation = "23505"

// PgPool is the subset of *pgxpool.Pool the store uses
type PgPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Postgres is the tracked_players table
type Postgres struct {
	pool PgPool
}

func NewPostgres(pool PgPool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema applies the bundled migrations. Every statement is idempotent.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	scripts, err := migrations.Postgres()
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	for _, script := range scripts {
		if _, err := s.pool.Exec(ctx, script); err != nil {
			return fmt.Errorf("%w: apply schema: %v", ErrUnavailable, err)
		}
	}
	return nil
}

func (s *Postgres) ListTracked(ctx context.Context) ([]models.TrackedPlayer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT handle, shard, account_id, created_at
		FROM tracked_players
		ORDER BY handle, shard
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var out []models.TrackedPlayer
	for rows.Next() {
		var p models.TrackedPlayer
		if err := rows.Scan(&p.Handle, &p.Shard, &p.AccountID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrUnavailable, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows: %v", ErrUnavailable, err)
	}
	return out, nil
}

func (s *Postgres) Add(ctx context.Context, p models.TrackedPlayer) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tracked_players (handle, shard, account_id)
		VALUES ($1, $2, $3)
	`, p.Handle, p.Shard, p.AccountID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrPlayerExists
		}
		return fmt.Errorf("%w: add %s: %v", ErrUnavailable, p.Handle, err)
	}
	return nil
}

func (s *Postgres) Remove(ctx context.Context, handle, shard string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM tracked_players WHERE handle = $1 AND shard = $2`, handle, shard)
	if err != nil {
		return fmt.Errorf("%w: remove %s: %v", ErrUnavailable, handle, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlayerNotTracked
	}
	return nil
}

func (s *Postgres) SetAccountID(ctx context.Context, handle, shard, accountID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tracked_players SET account_id = $3 WHERE handle = $1 AND shard = $2`,
		handle, shard, accountID)
	if err != nil {
		return fmt.Errorf("%w: set account %s: %v", ErrUnavailable, handle, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlayerNotTracked
	}
	return nil
}
