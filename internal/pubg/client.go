// Package pubg fetches players, matches and telemetry from the PUBG developer
// API. Every request is admitted by the shared token bucket and transient
// failures are retried with exponential backoff.
package pubg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/klauspost/compress/gzip"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

const (
	defaultBaseURL   = "https://api.pubg.com"
	defaultTimeout   = 30 * time.Second
	maxRetryAfter    = 60 * time.Second
	maxResponseBytes = 256 << 20
	jsonAPIMediaType = "application/vnd.api+json"
	gzipMagicFirst   = 0x1f
	gzipMagicSecond  = 0x8b
)

var (
	apiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pubgtracker_api_requests_total",
		Help: "PUBG API requests by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	apiRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pubgtracker_api_retries_total",
		Help: "PUBG API retries after transient failures",
	}, []string{"endpoint"})

	apiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pubgtracker_api_request_duration_seconds",
		Help:    "PUBG API request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)

// Limiter admits outbound requests. *ratelimit.Bucket satisfies it.
type Limiter interface {
	Acquire(ctx context.Context, cost int) error
	Throttle()
	Relax()
}

// RetryPolicy bounds the exponential backoff applied to transient failures
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Factor      float64
	MaxDelay    time.Duration
	Jitter      float64
}

// DefaultRetryPolicy is base 1s, factor 2, three attempts
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Factor:      2,
		MaxDelay:    30 * time.Second,
		Jitter:      0.1,
	}
}

// ClientConfig configures the API client
type ClientConfig struct {
	BaseURL        string
	APIKey         string
	HTTPClient     *http.Client
	Limiter        Limiter
	Retry          RetryPolicy
	LimitTelemetry bool // route telemetry CDN downloads through the limiter too
	Logger         *zap.Logger
}

// Client is a rate-limited PUBG API client
type Client struct {
	baseURL        string
	apiKey         string
	http           *http.Client
	limiter        Limiter
	retry          RetryPolicy
	limitTelemetry bool
	logger         *zap.SugaredLogger
}

// NewClient creates a client. A nil limiter is rejected because unthrottled
// requests would burn the API quota.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Limiter == nil {
		return nil, errors.New("pubg: limiter is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: empty API key", ErrAuth)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryPolicy()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	// Older configs pointed at ".../shards"; the client appends shards itself
	base := strings.TrimRight(cfg.BaseURL, "/")
	base = strings.TrimSuffix(base, "/shards")

	return &Client{
		baseURL:        base,
		apiKey:         cfg.APIKey,
		http:           cfg.HTTPClient,
		limiter:        cfg.Limiter,
		retry:          cfg.Retry,
		limitTelemetry: cfg.LimitTelemetry,
		logger:         cfg.Logger.Sugar(),
	}, nil
}

// hintedBackOff lets a Retry-After header stretch the next exponential delay
type hintedBackOff struct {
	inner *backoff.ExponentialBackOff
	hint  time.Duration
}

func (b *hintedBackOff) NextBackOff() time.Duration {
	next := b.inner.NextBackOff()
	if b.hint > next {
		next = b.hint
	}
	b.hint = 0
	return next
}

func (b *hintedBackOff) Reset() {
	b.inner.Reset()
	b.hint = 0
}

type request struct {
	endpoint string // metrics label
	url      string
	api      bool // authenticated JSON:API call, as opposed to a CDN asset
}

// get performs req with limiter admission and transient retries, returning
// the decompressed body.
func (c *Client) get(ctx context.Context, req request) ([]byte, error) {
	policy := &hintedBackOff{inner: &backoff.ExponentialBackOff{
		InitialInterval:     c.retry.BaseDelay,
		RandomizationFactor: c.retry.Jitter,
		Multiplier:          c.retry.Factor,
		MaxInterval:         c.retry.MaxDelay,
	}}
	policy.Reset()

	operation := func() ([]byte, error) {
		body, retryAfter, err := c.do(ctx, req)
		if err == nil {
			return body, nil
		}
		if !IsTransient(err) {
			return nil, backoff.Permanent(err)
		}
		policy.hint = retryAfter
		return nil, err
	}

	body, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(c.retry.MaxAttempts)),
		backoff.WithNotify(func(err error, delay time.Duration) {
			apiRetries.WithLabelValues(req.endpoint).Inc()
			c.logger.Warnw("Retrying PUBG API request",
				"endpoint", req.endpoint,
				"delay", delay,
				"error", err,
			)
		}),
	)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// do performs a single attempt. The returned duration is the server's
// Retry-After hint, if any.
func (c *Client) do(ctx context.Context, req request) ([]byte, time.Duration, error) {
	if req.api || c.limitTelemetry {
		if err := c.limiter.Acquire(ctx, 1); err != nil {
			return nil, 0, fmt.Errorf("acquire token: %w", err)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept-Encoding", "gzip")
	if req.api {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
		httpReq.Header.Set("Accept", jsonAPIMediaType)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	apiDuration.WithLabelValues(req.endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		apiRequests.WithLabelValues(req.endpoint, "network_error").Inc()
		return nil, 0, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := readBody(resp.Body)
		if err != nil {
			apiRequests.WithLabelValues(req.endpoint, "read_error").Inc()
			return nil, 0, fmt.Errorf("%w: read body: %v", ErrTransient, err)
		}
		apiRequests.WithLabelValues(req.endpoint, "ok").Inc()
		if req.api {
			c.limiter.Relax()
		}
		return body, 0, nil

	case resp.StatusCode == http.StatusTooManyRequests:
		apiRequests.WithLabelValues(req.endpoint, "rate_limited").Inc()
		c.limiter.Throttle()
		return nil, parseRetryAfter(resp.Header.Get("Retry-After")),
			fmt.Errorf("%w: %w", ErrTransient, ErrRateLimited)

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		apiRequests.WithLabelValues(req.endpoint, "auth_error").Inc()
		return nil, 0, fmt.Errorf("%w: status %d", ErrAuth, resp.StatusCode)

	case resp.StatusCode == http.StatusNotFound:
		apiRequests.WithLabelValues(req.endpoint, "not_found").Inc()
		return nil, 0, errNotFound

	case resp.StatusCode >= http.StatusInternalServerError:
		apiRequests.WithLabelValues(req.endpoint, "server_error").Inc()
		return nil, 0, fmt.Errorf("%w: status %d", ErrTransient, resp.StatusCode)

	default:
		apiRequests.WithLabelValues(req.endpoint, "unexpected_status").Inc()
		return nil, 0, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
}

// readBody reads at most maxResponseBytes and transparently inflates gzip,
// which telemetry assets may or may not use.
func readBody(r io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r, maxResponseBytes))
	if err != nil {
		return nil, err
	}
	if len(raw) < 2 || raw[0] != gzipMagicFirst || raw[1] != gzipMagicSecond {
		return raw, nil
	}

	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(io.LimitReader(zr, maxResponseBytes))
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	d := time.Duration(secs) * time.Second
	if d > maxRetryAfter {
		d = maxRetryAfter
	}
	return d
}
