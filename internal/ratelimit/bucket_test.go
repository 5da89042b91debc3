package ratelimit

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"
)

// fakeClock advances only when the bucket sleeps
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	slept  []time.Duration
	cancel bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) totalSlept() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total time.Duration
	for _, d := range c.slept {
		total += d
	}
	return total
}

func TestAcquireImmediateWhenTokensAvailable(t *testing.T) {
	clock := newFakeClock()
	b := NewBucket(5, 1, WithClock(clock))

	for i := 0; i < 5; i++ {
		if err := b.Acquire(context.Background(), 1); err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
	}
	if got := clock.totalSlept(); got != 0 {
		t.Errorf("expected no waiting, slept %v", got)
	}
	if tokens := b.Tokens(); tokens != 0 {
		t.Errorf("expected empty bucket, got %v tokens", tokens)
	}
}

func TestEleventhRequestWaitsSixSeconds(t *testing.T) {
	clock := newFakeClock()
	b := NewPerMinute(10, WithClock(clock))

	for i := 0; i < 10; i++ {
		if err := b.Acquire(context.Background(), 1); err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
	}

	start := clock.Now()
	if err := b.Acquire(context.Background(), 1); err != nil {
		t.Fatalf("11th acquire: %v", err)
	}
	waited := clock.Now().Sub(start)

	if math.Abs(waited.Seconds()-6) > 0.01 {
		t.Errorf("expected ~6s wait, got %v", waited)
	}
}

func TestEleventhRequestWaitsRealTime(t *testing.T) {
	// 10 tokens refilled at 100/s: the 11th request waits about 10ms
	b := NewBucket(10, 100)
	for i := 0; i < 10; i++ {
		if err := b.Acquire(context.Background(), 1); err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
	}

	start := time.Now()
	if err := b.Acquire(context.Background(), 1); err != nil {
		t.Fatalf("11th acquire: %v", err)
	}
	if waited := time.Since(start); waited < 5*time.Millisecond {
		t.Errorf("expected the 11th acquire to wait, returned after %v", waited)
	}
}

func TestRefillNeverExceedsCapacity(t *testing.T) {
	clock := newFakeClock()
	b := NewBucket(3, 10, WithClock(clock))

	clock.Advance(time.Hour)
	if tokens := b.Tokens(); tokens != 3 {
		t.Errorf("expected tokens capped at 3, got %v", tokens)
	}
}

func TestMaxWaitTimeout(t *testing.T) {
	clock := newFakeClock()
	b := NewPerMinute(10, WithClock(clock), WithMaxWait(time.Second))

	for i := 0; i < 10; i++ {
		if err := b.Acquire(context.Background(), 1); err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
	}

	err := b.Acquire(context.Background(), 1)
	if !errors.Is(err, ErrRateLimitTimeout) {
		t.Fatalf("expected ErrRateLimitTimeout, got %v", err)
	}
	if tokens := b.Tokens(); tokens < 0 {
		t.Errorf("tokens went negative: %v", tokens)
	}
}

func TestAcquireWithinOverridesDefault(t *testing.T) {
	clock := newFakeClock()
	b := NewPerMinute(10, WithClock(clock), WithMaxWait(time.Second))
	for i := 0; i < 10; i++ {
		_ = b.Acquire(context.Background(), 1)
	}

	if err := b.AcquireWithin(context.Background(), 1, 10*time.Second); err != nil {
		t.Fatalf("expected acquire within 10s to succeed, got %v", err)
	}
}

func TestInvalidCost(t *testing.T) {
	b := NewBucket(2, 1)

	for _, cost := range []int{0, -1, 3} {
		if err := b.Acquire(context.Background(), cost); !errors.Is(err, ErrInvalidCost) {
			t.Errorf("cost %d: expected ErrInvalidCost, got %v", cost, err)
		}
	}
}

func TestAcquireHonoursCancellation(t *testing.T) {
	b := NewBucket(1, 0.001)
	if err := b.Acquire(context.Background(), 1); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := b.Acquire(ctx, 1)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestConcurrentAcquireNeverOverdraws(t *testing.T) {
	b := NewBucket(20, 1000)

	const callers = 8
	const perCaller = 25

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perCaller; j++ {
				if err := b.Acquire(context.Background(), 1); err != nil {
					t.Errorf("acquire: %v", err)
					return
				}
				if tokens := b.Tokens(); tokens < 0 || tokens > b.Capacity() {
					t.Errorf("tokens out of range: %v", tokens)
					return
				}
			}
		}()
	}
	wg.Wait()

	// 200 tokens with 20 up front need at least 180/1000 s of refill
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Errorf("bucket admitted 200 requests in %v, faster than its refill rate", elapsed)
	}
}

func TestThrottleAndRelax(t *testing.T) {
	clock := newFakeClock()
	b := NewBucket(10, 8, WithClock(clock))

	b.Throttle()
	if got := b.Rate(); got != 4 {
		t.Fatalf("expected rate 4 after throttle, got %v", got)
	}
	for i := 0; i < 10; i++ {
		b.Throttle()
	}
	if got := b.Rate(); got != 1 {
		t.Fatalf("expected rate floor 1, got %v", got)
	}

	for i := 0; i < 100; i++ {
		b.Relax()
	}
	if got := b.Rate(); got != 8 {
		t.Fatalf("expected rate restored to 8, got %v", got)
	}
}
