package logic

import (
	"context"

	"github.com/squadwatch/pubg-tracker/internal/models"
)

type fakeResolver struct {
	ids   map[string]string
	err   error
	calls int
}

func (f *fakeResolver) ResolveAccountID(ctx context.Context, handle, shard string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.ids[handle], nil
}

type fakeLedger struct {
	records   []models.ProcessedMatchRecord
	err       error
	lastLimit int
}

func (f *fakeLedger) Recent(ctx context.Context, limit int) ([]models.ProcessedMatchRecord, error) {
	f.lastLimit = limit
	return f.records, f.err
}
