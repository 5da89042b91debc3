package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cenkalti/backoff/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/squadwatch/pubg-tracker/internal/models"
)

var publishTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pubgtracker_notify_publish_total",
	Help: "Summaries handed to the Discord sink by outcome",
}, []string{"outcome"})

// DiscordSession is the subset of *discordgo.Session the sink uses
type DiscordSession interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordConfig selects a bot channel or a webhook. WebhookURL wins when set.
type DiscordConfig struct {
	ChannelID   string
	WebhookURL  string
	MaxAttempts int
	BaseDelay   time.Duration
	Renderer    Renderer
}

// Discord publishes summaries as embed messages
type Discord struct {
	session      DiscordSession
	channelID    string
	webhookID    string
	webhookToken string
	maxAttempts  int
	baseDelay    time.Duration
	renderer     Renderer
	logger       *zap.SugaredLogger
}

// NewDiscord creates a Discord sink
func NewDiscord(session DiscordSession, cfg DiscordConfig, logger *zap.Logger) (*Discord, error) {
	d := &Discord{
		session:     session,
		channelID:   cfg.ChannelID,
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.BaseDelay,
		renderer:    cfg.Renderer,
		logger:      logger.Sugar(),
	}
	if cfg.WebhookURL != "" {
		id, token, err := ParseWebhookURL(cfg.WebhookURL)
		if err != nil {
			return nil, err
		}
		d.webhookID, d.webhookToken = id, token
	} else if cfg.ChannelID == "" {
		return nil, errors.New("notify: discord channel id or webhook url is required")
	}
	if d.maxAttempts <= 0 {
		d.maxAttempts = 3
	}
	if d.baseDelay <= 0 {
		d.baseDelay = time.Second
	}
	return d, nil
}

// ParseWebhookURL extracts id and token from
// https://discord.com/api/webhooks/{id}/{token}
func ParseWebhookURL(raw string) (id, token string, err error) {
	const marker = "/webhooks/"
	i := strings.Index(raw, marker)
	if i < 0 {
		return "", "", fmt.Errorf("notify: not a webhook url: %q", raw)
	}
	parts := strings.Split(strings.Trim(raw[i+len(marker):], "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("notify: webhook url lacks id or token")
	}
	return parts[0], parts[1], nil
}

// Publish sends every chunk of the rendered summary. A chunk that fails
// after earlier chunks went out leaves a partial post; the next cycle
// reposts the whole summary.
func (d *Discord) Publish(ctx context.Context, s models.MatchSummary) error {
	chunks := Chunk(d.renderer.Embeds(s))
	if len(chunks) == 0 {
		publishTotal.WithLabelValues("empty").Inc()
		d.logger.Warnw("Match summary has no squads to show", "match_id", s.MatchID)
		return nil
	}

	for i, chunk := range chunks {
		if err := d.send(ctx, chunk); err != nil {
			d.logger.Errorw("Failed to publish match summary",
				"match_id", s.MatchID,
				"chunk", i+1,
				"chunks", len(chunks),
				"error", err,
			)
			return err
		}
	}

	publishTotal.WithLabelValues("ok").Inc()
	d.logger.Infow("Published match summary",
		"match_id", s.MatchID,
		"messages", len(chunks),
		"tracked", s.TrackedHandles,
	)
	return nil
}

func (d *Discord) send(ctx context.Context, embeds []*discordgo.MessageEmbed) error {
	operation := func() (*discordgo.Message, error) {
		var (
			msg *discordgo.Message
			err error
		)
		if d.webhookID != "" {
			msg, err = d.session.WebhookExecute(d.webhookID, d.webhookToken, true,
				&discordgo.WebhookParams{Embeds: embeds}, discordgo.WithContext(ctx))
		} else {
			msg, err = d.session.ChannelMessageSendComplex(d.channelID,
				&discordgo.MessageSend{Embeds: embeds}, discordgo.WithContext(ctx))
		}
		if err != nil && rejected(err) {
			return nil, backoff.Permanent(fmt.Errorf("%w: %v", ErrPublishRejected, err))
		}
		return msg, err
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(&backoff.ExponentialBackOff{
			InitialInterval:     d.baseDelay,
			RandomizationFactor: 0.2,
			Multiplier:          2,
			MaxInterval:         30 * time.Second,
		}),
		backoff.WithMaxTries(uint(d.maxAttempts)),
		backoff.WithNotify(func(err error, delay time.Duration) {
			d.logger.Warnw("Retrying Discord publish", "delay", delay, "error", err)
		}),
	)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrPublishRejected):
		publishTotal.WithLabelValues("rejected").Inc()
		return err
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		publishTotal.WithLabelValues("unavailable").Inc()
		return fmt.Errorf("%w: %v", ErrSinkUnavailable, err)
	}
}

// rejected reports a 4xx answer other than 429, which no retry will fix
func rejected(err error) bool {
	var rest *discordgo.RESTError
	if !errors.As(err, &rest) || rest.Response == nil {
		return false
	}
	code := rest.Response.StatusCode
	return code >= http.StatusBadRequest && code < http.StatusInternalServerError && code != http.StatusTooManyRequests
}
