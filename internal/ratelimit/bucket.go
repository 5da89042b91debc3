// Package ratelimit implements the token bucket that gates every outbound
// PUBG API request.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ErrRateLimitTimeout is returned when tokens cannot be acquired within the
	// configured maximum wait.
	ErrRateLimitTimeout = errors.New("rate limit: timed out waiting for tokens")
	// ErrInvalidCost is returned for a cost that is not positive or exceeds capacity.
	ErrInvalidCost = errors.New("rate limit: invalid cost")
)

const (
	minRateDivisor = 8
	relaxStep      = 1.1
	// epsilon absorbs float error from elapsed*rate so an exact wait succeeds
	epsilon = 1e-9
)

var (
	acquireWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pubgtracker_ratelimit_wait_seconds",
		Help:    "Time spent waiting for rate limiter tokens",
		Buckets: []float64{0, 0.05, 0.25, 1, 2.5, 5, 10, 30, 60},
	})

	effectiveRate = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pubgtracker_ratelimit_refill_per_second",
		Help: "Current effective refill rate of the API token bucket",
	})
)

// Clock abstracts time so tests can drive the bucket deterministically
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Bucket is a token bucket with lazy refill. It is safe for concurrent use;
// the mutex only covers token arithmetic, never the caller's I/O.
type Bucket struct {
	mu         sync.Mutex
	capacity   float64
	baseRate   float64 // tokens per second as configured
	rate       float64 // effective tokens per second
	tokens     float64
	lastRefill time.Time
	maxWait    time.Duration
	clock      Clock
}

// Option configures a Bucket
type Option func(*Bucket)

// WithClock replaces the wall clock
func WithClock(c Clock) Option {
	return func(b *Bucket) {
		if c != nil {
			b.clock = c
		}
	}
}

// WithMaxWait bounds how long Acquire may wait; zero means wait indefinitely
func WithMaxWait(d time.Duration) Option {
	return func(b *Bucket) {
		if d > 0 {
			b.maxWait = d
		}
	}
}

// NewBucket creates a full bucket holding capacity tokens, refilled at
// refillPerSecond.
func NewBucket(capacity int, refillPerSecond float64, opts ...Option) *Bucket {
	if capacity < 1 {
		capacity = 1
	}
	if refillPerSecond <= 0 {
		refillPerSecond = float64(capacity) / 60
	}

	b := &Bucket{
		capacity: float64(capacity),
		baseRate: refillPerSecond,
		rate:     refillPerSecond,
		tokens:   float64(capacity),
		clock:    realClock{},
	}
	for _, opt := range opts {
		opt(b)
	}
	b.lastRefill = b.clock.Now()
	effectiveRate.Set(b.rate)
	return b
}

// NewPerMinute builds the bucket used for the PUBG API, whose quota is
// expressed in requests per minute.
func NewPerMinute(requestsPerMinute int, opts ...Option) *Bucket {
	return NewBucket(requestsPerMinute, float64(requestsPerMinute)/60, opts...)
}

// Acquire blocks until cost tokens are available and debits them. It honours
// the bucket's maximum wait and ctx cancellation.
func (b *Bucket) Acquire(ctx context.Context, cost int) error {
	return b.AcquireWithin(ctx, cost, b.maxWait)
}

// AcquireWithin is Acquire with an explicit maximum wait (zero = unbounded).
func (b *Bucket) AcquireWithin(ctx context.Context, cost int, maxWait time.Duration) error {
	if cost < 1 || float64(cost) > b.capacity {
		return fmt.Errorf("%w: %d (capacity %.0f)", ErrInvalidCost, cost, b.capacity)
	}

	start := b.clock.Now()
	defer func() {
		acquireWait.Observe(b.clock.Now().Sub(start).Seconds())
	}()

	for {
		wait, ok := b.tryDebit(float64(cost))
		if ok {
			return nil
		}

		if maxWait > 0 {
			waited := b.clock.Now().Sub(start)
			if waited+wait > maxWait {
				return fmt.Errorf("%w after %s (cost %d)", ErrRateLimitTimeout, waited, cost)
			}
		}

		// Sleep for the computed deficit, then re-check: concurrent callers may
		// have taken the refilled tokens in the meantime.
		if err := b.clock.Sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// tryDebit refills and, if enough tokens are present, debits cost. Otherwise
// it returns the time needed to cover the deficit at the current rate.
func (b *Bucket) tryDebit(cost float64) (time.Duration, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refillLocked()
	if b.tokens+epsilon >= cost {
		b.tokens = math.Max(0, b.tokens-cost)
		return 0, true
	}

	deficit := cost - b.tokens
	seconds := deficit / b.rate
	wait := time.Duration(math.Ceil(seconds * float64(time.Second)))
	if wait <= 0 {
		wait = time.Millisecond
	}
	return wait, false
}

func (b *Bucket) refillLocked() {
	now := b.clock.Now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed > 0 {
		b.tokens = math.Min(b.capacity, b.tokens+elapsed*b.rate)
		b.lastRefill = now
	}
}

// Tokens returns the current token count after a lazy refill
func (b *Bucket) Tokens() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillLocked()
	return b.tokens
}

// Capacity returns the bucket capacity
func (b *Bucket) Capacity() float64 {
	return b.capacity
}

// Rate returns the effective refill rate in tokens per second
func (b *Bucket) Rate() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rate
}

// Throttle halves the effective refill rate after an upstream 429, down to
// baseRate/8. Tokens accrued so far are kept.
func (b *Bucket) Throttle() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refillLocked()
	b.rate = math.Max(b.baseRate/minRateDivisor, b.rate/2)
	effectiveRate.Set(b.rate)
}

// Relax nudges a throttled rate back towards the configured rate
func (b *Bucket) Relax() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.rate >= b.baseRate {
		return
	}
	b.refillLocked()
	b.rate = math.Min(b.baseRate, b.rate*relaxStep)
	effectiveRate.Set(b.rate)
}
