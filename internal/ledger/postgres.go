package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/squadwatch/pubg-tracker/internal/models"
)

// PgPool is the subset of *pgxpool.Pool the ledger uses
type PgPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Postgres stores processed ids in the processed_matches table
type Postgres struct {
	pool PgPool
}

// NewPostgres creates a Postgres ledger. The schema lives in migrations/.
func NewPostgres(pool PgPool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) HasProcessed(ctx context.Context, matchID string) (bool, error) {
	var one int
	err := p.pool.QueryRow(ctx,
		`SELECT 1 FROM processed_matches WHERE match_id = $1`, matchID,
	).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: lookup %s: %v", ErrUnavailable, matchID, err)
	}
	return true, nil
}

func (p *Postgres) MarkProcessed(ctx context.Context, matchID string) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO processed_matches (match_id, processed_at)
		VALUES ($1, NOW())
		ON CONFLICT (match_id) DO NOTHING
	`, matchID)
	if err != nil {
		return fmt.Errorf("%w: mark %s: %v", ErrUnavailable, matchID, err)
	}
	return nil
}

func (p *Postgres) Recent(ctx context.Context, limit int) ([]models.ProcessedMatchRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.pool.Query(ctx, `
		SELECT match_id, processed_at
		FROM processed_matches
		ORDER BY processed_at DESC, match_id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: recent: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var records []models.ProcessedMatchRecord
	for rows.Next() {
		var rec models.ProcessedMatchRecord
		if err := rows.Scan(&rec.MatchID, &rec.ProcessedAt); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrUnavailable, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows: %v", ErrUnavailable, err)
	}
	return records, nil
}

func (p *Postgres) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM processed_matches WHERE processed_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%w: prune: %v", ErrUnavailable, err)
	}
	return tag.RowsAffected(), nil
}

func (p *Postgres) Clear(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, `TRUNCATE processed_matches`); err != nil {
		return fmt.Errorf("%w: clear: %v", ErrUnavailable, err)
	}
	return nil
}
