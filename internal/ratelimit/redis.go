package ratelimit

import (
	"context"
	"fmt"
	"time"

	"todo-api/internal/config"

	"github.com/redis/go-redis/v9"
)

type RedisClientConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func DefaultRedisClientConfig() *RedisClientConfig {
	return &RedisClientConfig{
		Addr:         "localhost:6379",
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

func RedisClientConfigFromConfig(cfg *config.Config) *RedisClientConfig {
	return &RedisClientConfig{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	}
}

func NewRedisClient(cfg *RedisClientConfig) *redis.Client {
	if cfg == nil {
		cfg = DefaultRedisClientConfig()
	}

	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
}

// PingCheck adapts a redis client to a readiness check.
func PingCheck(client *redis.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

// RedisLimiter counts requests in fixed windows shared by every instance
// pointing at the same redis.
type RedisLimiter struct {
	client  *redis.Client
	prefix  string
	limit   int
	window  time.Duration
	timeout time.Duration
}

func NewRedisLimiter(client *redis.Client, cfg Config, prefix string) *RedisLimiter {
	cfg = cfg.normalize()
	if prefix == "" {
		prefix = "ratelimit"
	}

	return &RedisLimiter{
		client:  client,
		prefix:  prefix,
		limit:   cfg.Requests,
		window:  cfg.Window,
		timeout: 2 * time.Second,
	}
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	redisKey := fmt.Sprintf("%s:%s", r.prefix, key)

	pipe := r.client.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	pttl := pipe.PTTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("redis rate limit: %w", err)
	}

	// Only the request that opened the window sets its expiry, so later
	// requests never stretch it.
	ttl := pttl.Val()
	if ttl < 0 {
		if err := r.client.PExpire(ctx, redisKey, r.window).Err(); err != nil {
			return Result{}, fmt.Errorf("redis rate limit: %w", err)
		}
		ttl = r.window
	}

	count := int(incr.Val())
	if count > r.limit {
		return Result{Allowed: false, Limit: r.limit, RetryAfter: ttl}, nil
	}

	return Result{Allowed: true, Limit: r.limit, Remaining: r.limit - count}, nil
}

// Reset clears the window for key.
func (r *RedisLimiter) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, fmt.Sprintf("%s:%s", r.prefix, key)).Err()
}
