package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestLocalLimiter_AllowsBurstThenRejects(t *testing.T) {
	clock := newFakeClock()
	limiter := NewLocalLimiter(Config{Requests: 3, Window: time.Minute, Burst: 3})
	limiter.now = clock.Now
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := limiter.Allow(ctx, "ip:1")
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d", i)
		assert.Equal(t, 2-i, res.Remaining)
	}

	res, err := limiter.Allow(ctx, "ip:1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.InDelta(t, (20 * time.Second).Seconds(), res.RetryAfter.Seconds(), 0.01)

	other, err := limiter.Allow(ctx, "ip:2")
	require.NoError(t, err)
	assert.True(t, other.Allowed, "keys must not share a bucket")

	clock.Advance(21 * time.Second)
	res, err = limiter.Allow(ctx, "ip:1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestLocalLimiter_SweepsIdleKeys(t *testing.T) {
	clock := newFakeClock()
	limiter := NewLocalLimiter(Config{Requests: 10, Window: time.Minute, Burst: 10})
	limiter.now = clock.Now
	ctx := context.Background()

	_, err := limiter.Allow(ctx, "a")
	require.NoError(t, err)
	_, err = limiter.Allow(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, 2, limiter.Len())

	clock.Advance(2 * time.Minute)
	_, err = limiter.Allow(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, 1, limiter.Len())
}

func TestConfig_Normalize(t *testing.T) {
	cfg := Config{Requests: 5}.normalize()
	assert.Equal(t, 5, cfg.Requests)
	assert.Equal(t, 5, cfg.Burst)
	assert.Equal(t, 15*time.Minute, cfg.Window)

	assert.Equal(t, DefaultConfig(), Config{}.normalize())
}

func TestRedisLimiter_FixedWindow(t *testing.T) {
	mr, client := setupRedis(t)
	limiter := NewRedisLimiter(client, Config{Requests: 2, Window: time.Minute}, "auth")
	ctx := context.Background()

	first, err := limiter.Allow(ctx, "ip:1")
	require.NoError(t, err)
	assert.True(t, first.Allowed)
	assert.Equal(t, 1, first.Remaining)
	assert.Equal(t, time.Minute, mr.TTL("auth:ip:1"))

	mr.FastForward(30 * time.Second)

	second, err := limiter.Allow(ctx, "ip:1")
	require.NoError(t, err)
	assert.True(t, second.Allowed)
	assert.Equal(t, 0, second.Remaining)
	assert.Equal(t, 30*time.Second, mr.TTL("auth:ip:1"), "later requests must not extend the window")

	third, err := limiter.Allow(ctx, "ip:1")
	require.NoError(t, err)
	assert.False(t, third.Allowed)
	assert.Equal(t, 30*time.Second, third.RetryAfter)

	mr.FastForward(31 * time.Second)

	fresh, err := limiter.Allow(ctx, "ip:1")
	require.NoError(t, err)
	assert.True(t, fresh.Allowed)
}

func TestRedisLimiter_KeysAreIndependent(t *testing.T) {
	_, client := setupRedis(t)
	limiter := NewRedisLimiter(client, Config{Requests: 1, Window: time.Minute}, "")
	ctx := context.Background()

	res, err := limiter.Allow(ctx, "a")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = limiter.Allow(ctx, "b")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = limiter.Allow(ctx, "a")
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	require.NoError(t, limiter.Reset(ctx, "a"))
	res, err = limiter.Allow(ctx, "a")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestRedisLimiter_Unavailable(t *testing.T) {
	mr, client := setupRedis(t)
	limiter := NewRedisLimiter(client, Config{Requests: 1, Window: time.Minute}, "auth")
	mr.Close()

	_, err := limiter.Allow(context.Background(), "ip:1")
	assert.Error(t, err)
}

func TestPingCheck(t *testing.T) {
	mr, client := setupRedis(t)
	check := PingCheck(client)

	assert.NoError(t, check(context.Background()))

	mr.Close()
	assert.Error(t, check(context.Background()))
}

func TestCircuitBreaker_Transitions(t *testing.T) {
	clock := newFakeClock()
	cb := NewCircuitBreaker(&BreakerConfig{MaxFailures: 2, Timeout: 10 * time.Second, HalfOpenMaxCalls: 2})
	cb.now = clock.Now

	boom := errors.New("boom")
	fail := func() error { return boom }
	ok := func() error { return nil }

	assert.ErrorIs(t, cb.Execute(fail), boom)
	assert.Equal(t, BreakerClosed, cb.State())
	assert.ErrorIs(t, cb.Execute(fail), boom)
	assert.Equal(t, BreakerOpen, cb.State())

	assert.ErrorIs(t, cb.Execute(ok), ErrBreakerOpen)

	clock.Advance(10 * time.Second)
	assert.NoError(t, cb.Execute(ok))
	assert.Equal(t, BreakerHalfOpen, cb.State())
	assert.NoError(t, cb.Execute(ok))
	assert.Equal(t, BreakerClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	clock := newFakeClock()
	cb := NewCircuitBreaker(&BreakerConfig{MaxFailures: 1, Timeout: time.Second, HalfOpenMaxCalls: 3})
	cb.now = clock.Now

	boom := errors.New("boom")
	assert.Error(t, cb.Execute(func() error { return boom }))
	assert.Equal(t, BreakerOpen, cb.State())

	clock.Advance(time.Second)
	assert.ErrorIs(t, cb.Execute(func() error { return boom }), boom)
	assert.Equal(t, BreakerOpen, cb.State())
	assert.ErrorIs(t, cb.Execute(func() error { return nil }), ErrBreakerOpen)
	assert.Equal(t, "open", cb.State().String())
}

type failingLimiter struct {
	calls int
	err   error
}

func (f *failingLimiter) Allow(context.Context, string) (Result, error) {
	f.calls++
	return Result{}, f.err
}

func TestFallbackLimiter_FallsBackWhileRedisFails(t *testing.T) {
	primary := &failingLimiter{err: errors.New("redis down")}
	fallback := NewLocalLimiter(Config{Requests: 2, Window: time.Minute, Burst: 2})
	breaker := NewCircuitBreaker(&BreakerConfig{MaxFailures: 2, Timeout: time.Minute, HalfOpenMaxCalls: 1})

	var seen []error
	limiter := NewFallbackLimiter(primary, fallback, breaker).OnError(func(err error) {
		seen = append(seen, err)
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := limiter.Allow(ctx, "ip:1")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}

	res, err := limiter.Allow(ctx, "ip:1")
	require.NoError(t, err)
	assert.False(t, res.Allowed, "fallback still enforces the limit")

	assert.Equal(t, 2, primary.calls, "open breaker skips the primary")
	assert.Len(t, seen, 2)
	assert.Equal(t, BreakerOpen, limiter.Breaker().State())

	stats := limiter.Stats()
	assert.Equal(t, int64(2), stats.Allowed)
	assert.Equal(t, int64(1), stats.Rejected)
	assert.Equal(t, int64(2), stats.Errors)
	assert.Equal(t, int64(3), stats.Fallbacks)
}

func TestFallbackLimiter_UsesPrimaryWhenHealthy(t *testing.T) {
	_, client := setupRedis(t)
	primary := NewRedisLimiter(client, Config{Requests: 1, Window: time.Minute}, "auth")
	limiter := NewFallbackLimiter(primary, NewLocalLimiter(Config{Requests: 100, Window: time.Minute}), nil)
	ctx := context.Background()

	res, err := limiter.Allow(ctx, "ip:1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = limiter.Allow(ctx, "ip:1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	assert.Zero(t, limiter.Stats().Fallbacks)
}
