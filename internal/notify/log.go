package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/squadwatch/pubg-tracker/internal/models"
)

// LogSink writes rendered summaries to the logger. Useful for dry runs.
type LogSink struct {
	renderer Renderer
	logger   *zap.SugaredLogger
}

func NewLogSink(renderer Renderer, logger *zap.Logger) *LogSink {
	return &LogSink{renderer: renderer, logger: logger.Sugar()}
}

func (l *LogSink) Publish(ctx context.Context, s models.MatchSummary) error {
	for _, embed := range l.renderer.Embeds(s) {
		l.logger.Infow(embed.Title,
			"match_id", s.MatchID,
			"body", embed.Description,
		)
	}
	return nil
}
