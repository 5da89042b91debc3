// Package ledger records which matches have already been reported so a
// match is published at most once across restarts.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/squadwatch/pubg-tracker/internal/models"
)

// ErrUnavailable wraps any backend failure. The monitor treats it as
// cycle-fatal.
var ErrUnavailable = errors.New("ledger: store unavailable")

// Ledger is the processed-match store
type Ledger interface {
	// HasProcessed reports whether matchID was marked
	HasProcessed(ctx context.Context, matchID string) (bool, error)
	// MarkProcessed records matchID. Marking twice is a no-op.
	MarkProcessed(ctx context.Context, matchID string) error
	// Recent lists the newest records first
	Recent(ctx context.Context, limit int) ([]models.ProcessedMatchRecord, error)
	// Prune deletes records processed before cutoff and returns how many went
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
	// Clear deletes every record
	Clear(ctx context.Context) error
}
