package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"
)

type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

var ErrBreakerOpen = errors.New("circuit breaker is open")

type BreakerConfig struct {
	MaxFailures      int           `json:"max_failures"`
	Timeout          time.Duration `json:"timeout"`
	HalfOpenMaxCalls int           `json:"half_open_max_calls"`
}

func DefaultBreakerConfig() *BreakerConfig {
	return &BreakerConfig{
		MaxFailures:      5,
		Timeout:          30 * time.Second,
		HalfOpenMaxCalls: 3,
	}
}

// CircuitBreaker stops calling a failing dependency for Timeout after
// MaxFailures consecutive failures, then lets HalfOpenMaxCalls trial calls
// through before closing again.
type CircuitBreaker struct {
	mu              sync.Mutex
	state           BreakerState
	failureCount    int
	successCount    int
	inFlight        int
	lastFailureTime time.Time

	maxFailures      int
	timeout          time.Duration
	halfOpenMaxCalls int
	now              func() time.Time
}

func NewCircuitBreaker(config *BreakerConfig) *CircuitBreaker {
	if config == nil {
		config = DefaultBreakerConfig()
	}

	return &CircuitBreaker{
		state:            BreakerClosed,
		maxFailures:      config.MaxFailures,
		timeout:          config.Timeout,
		halfOpenMaxCalls: config.HalfOpenMaxCalls,
		now:              time.Now,
	}
}

func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.allow() {
		return ErrBreakerOpen
	}

	err := fn()
	if err != nil {
		cb.recordFailure()
		return err
	}

	cb.recordSuccess()
	return nil
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case BreakerClosed:
		return true
	case BreakerOpen:
		if cb.now().Sub(cb.lastFailureTime) < cb.timeout {
			return false
		}
		cb.state = BreakerHalfOpen
		cb.successCount = 0
		cb.inFlight = 1
		return true
	case BreakerHalfOpen:
		if cb.successCount+cb.inFlight >= cb.halfOpenMaxCalls {
			return false
		}
		cb.inFlight++
		return true
	default:
		return false
	}
}

func (cb *CircuitBreaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++
	cb.lastFailureTime = cb.now()

	switch cb.state {
	case BreakerClosed:
		if cb.failureCount >= cb.maxFailures {
			cb.state = BreakerOpen
		}
	case BreakerHalfOpen:
		cb.state = BreakerOpen
		cb.successCount = 0
		cb.inFlight = 0
	}
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case BreakerClosed:
		cb.failureCount = 0
	case BreakerHalfOpen:
		cb.inFlight--
		cb.successCount++
		if cb.successCount >= cb.halfOpenMaxCalls {
			cb.state = BreakerClosed
			cb.failureCount = 0
			cb.successCount = 0
			cb.inFlight = 0
		}
	}
}

func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// FallbackLimiter asks primary through a circuit breaker and answers from
// fallback whenever primary errors or the breaker is open.
type FallbackLimiter struct {
	primary  Limiter
	fallback Limiter
	breaker  *CircuitBreaker
	stats    *Stats
	onError  func(err error)
}

func NewFallbackLimiter(primary, fallback Limiter, breaker *CircuitBreaker) *FallbackLimiter {
	if breaker == nil {
		breaker = NewCircuitBreaker(nil)
	}

	return &FallbackLimiter{
		primary:  primary,
		fallback: fallback,
		breaker:  breaker,
		stats:    NewStats(),
	}
}

// OnError registers a hook that sees every primary failure.
func (f *FallbackLimiter) OnError(fn func(err error)) *FallbackLimiter {
	f.onError = fn
	return f
}

func (f *FallbackLimiter) Allow(ctx context.Context, key string) (Result, error) {
	var result Result
	err := f.breaker.Execute(func() error {
		var err error
		result, err = f.primary.Allow(ctx, key)
		return err
	})
	if err == nil {
		f.stats.record(result.Allowed)
		return result, nil
	}

	if !errors.Is(err, ErrBreakerOpen) {
		f.stats.RecordError()
		if f.onError != nil {
			f.onError(err)
		}
	}

	f.stats.RecordFallback()
	result, err = f.fallback.Allow(ctx, key)
	if err != nil {
		return Result{}, err
	}
	f.stats.record(result.Allowed)
	return result, nil
}

func (f *FallbackLimiter) Breaker() *CircuitBreaker {
	return f.breaker
}

func (f *FallbackLimiter) Stats() StatsSnapshot {
	return f.stats.Snapshot()
}
