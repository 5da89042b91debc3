package logic

import (
	"context"
	"fmt"

	"github.com/squadwatch/pubg-tracker/internal/models"
)

const maxProcessedListing = 500

// MatchService exposes the processed-match ledger read side
type MatchService interface {
	RecentProcessed(ctx context.Context, limit int) ([]models.ProcessedMatchRecord, error)
}

type matchService struct {
	ledger LedgerReader
}

func NewMatchService(ledger LedgerReader) MatchService {
	return &matchService{ledger: ledger}
}

func (s *matchService) RecentProcessed(ctx context.Context, limit int) ([]models.ProcessedMatchRecord, error) {
	if limit <= 0 || limit > maxProcessedListing {
		limit = maxProcessedListing
	}
	records, err := s.ledger.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list processed matches: %w", err)
	}
	if records == nil {
		records = []models.ProcessedMatchRecord{}
	}
	return records, nil
}
