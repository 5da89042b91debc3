// Package notify renders match summaries and publishes them to Discord or
// the log.
package notify

import (
	"context"
	"errors"

	"github.com/squadwatch/pubg-tracker/internal/models"
)

var (
	// ErrPublishRejected means the destination refused this summary. The
	// match is retried next cycle; other matches are unaffected.
	ErrPublishRejected = errors.New("notify: publish rejected")
	// ErrSinkUnavailable means the destination stayed unreachable after the
	// sink's retry budget. The monitor aborts the cycle.
	ErrSinkUnavailable = errors.New("notify: sink unavailable")
)

// Sink accepts a finished summary. A nil error means the summary was durably
// accepted and the match may be marked processed.
type Sink interface {
	Publish(ctx context.Context, summary models.MatchSummary) error
}

// IsRejected reports whether err is a per-match rejection
func IsRejected(err error) bool {
	return errors.Is(err, ErrPublishRejected)
}

// IsUnavailable reports whether err means the sink cannot be reached at all
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrSinkUnavailable)
}
