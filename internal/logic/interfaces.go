package logic

import (
	"context"

	"github.com/squadwatch/pubg-tracker/internal/models"
)

// AccountResolver looks players up upstream. *pubg.Fetcher satisfies it.
type AccountResolver interface {
	ResolveAccountID(ctx context.Context, handle, shard string) (string, error)
}

// LedgerReader is the read side of ledger.Ledger
type LedgerReader interface {
	Recent(ctx context.Context, limit int) ([]models.ProcessedMatchRecord, error)
}
