// Package ratelimit throttles requests per key, either in process or shared
// through redis.
package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

type Config struct {
	Requests int
	Window   time.Duration
	Burst    int
}

func DefaultConfig() Config {
	return Config{
		Requests: 100,
		Window:   15 * time.Minute,
		Burst:    100,
	}
}

func (c Config) normalize() Config {
	def := DefaultConfig()
	if c.Requests <= 0 {
		c.Requests = def.Requests
	}
	if c.Window <= 0 {
		c.Window = def.Window
	}
	if c.Burst <= 0 {
		c.Burst = c.Requests
	}
	return c
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalLimiter keeps one token bucket per key. Buckets refill at
// Requests/Window and hold at most Burst tokens.
type LocalLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func NewLocalLimiter(cfg Config) *LocalLimiter {
	cfg = cfg.normalize()

	return &LocalLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(float64(cfg.Requests) / cfg.Window.Seconds()),
		burst:    cfg.Burst,
		idleTTL:  cfg.Window,
		now:      time.Now,
	}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now

	if v.limiter.AllowN(now, 1) {
		return Result{
			Allowed:   true,
			Limit:     l.burst,
			Remaining: int(math.Floor(v.limiter.TokensAt(now))),
		}, nil
	}

	missing := 1 - v.limiter.TokensAt(now)
	retryAfter := time.Duration(missing / float64(l.limit) * float64(time.Second))

	return Result{
		Allowed:    false,
		Limit:      l.burst,
		RetryAfter: retryAfter,
	}, nil
}

// Len returns the number of keys currently tracked.
func (l *LocalLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// sweep drops buckets idle for a full window. Runs at most once per window.
func (l *LocalLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.idleTTL {
		return
	}
	l.lastSweep = now

	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) >= l.idleTTL {
			delete(l.visitors, key)
		}
	}
}
