// Package main is the entry point for the todo API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todo-api/internal/config"
	"todo-api/internal/database"
	"todo-api/internal/handlers"
	"todo-api/internal/logging"
	"todo-api/internal/monitoring"
	"todo-api/internal/ratelimit"
	"todo-api/internal/repositories"
	"todo-api/internal/routes"
	"todo-api/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	log := logging.New(cfg, os.Stdout)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	pool, err := database.NewDatabasePool(database.PoolConfigFromConfig(cfg, log))
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	if err := pool.Migrate(); err != nil {
		log.WithError(err).Fatal("failed to migrate database")
	}

	codec, err := services.NewTokenCodec(services.TokenConfig{
		SigningKey: []byte(cfg.Auth.JWTSecret),
		Issuer:     cfg.Auth.Issuer,
		TTL:        cfg.Auth.TokenTTL,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to build token codec")
	}

	sqlDB, err := pool.SQLDB()
	if err != nil {
		log.WithError(err).Fatal("failed to get database handle")
	}

	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	metrics.RegisterDatabase(sqlDB, cfg.Database.Driver)
	health := monitoring.NewHealthChecker(3*time.Second, log)
	health.Register("database", pool.HealthCheck)

	var redisClient *redis.Client
	if cfg.UsesRedis() {
		redisClient = ratelimit.NewRedisClient(ratelimit.RedisClientConfigFromConfig(cfg))
		health.Register("redis", ratelimit.PingCheck(redisClient))
	}

	store := repositories.NewGormStore(pool.DB)
	authService := services.NewAuthService(store, services.NewBcryptHasher(cfg.Auth.BCryptCost), codec)
	taskService := services.NewTaskService(store)

	router := routes.NewRouter(routes.Dependencies{
		Config:      cfg,
		Log:         log,
		AuthHandler: handlers.NewAuthHandler(authService, int64(codec.TTL().Seconds()), metrics),
		TaskHandler: handlers.NewTaskHandler(taskService),
		Tokens:      codec,
		Tasks:       store,
		AuthLimiter: newAuthLimiter(cfg, redisClient, log, metrics),
		Metrics:     metrics,
		Health:      health,
	})

	srv := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"addr":        srv.Addr,
			"environment": cfg.Server.Environment,
			"db_driver":   cfg.Database.Driver,
		}).Info("starting todo api")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("forced shutdown")
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.WithError(err).Warn("failed to close redis")
		}
	}
	if err := pool.Close(); err != nil {
		log.WithError(err).Warn("failed to close database")
	}

	log.Info("server stopped")
}

// newAuthLimiter returns nil when rate limiting is disabled. The redis-backed
// limiter exports its counters through metrics.
func newAuthLimiter(cfg *config.Config, redisClient *redis.Client, log *logrus.Logger, metrics *monitoring.Metrics) ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}

	limits := ratelimit.Config{
		Requests: cfg.RateLimit.Requests,
		Window:   cfg.RateLimit.Window,
		Burst:    cfg.RateLimit.Burst,
	}
	local := ratelimit.NewLocalLimiter(limits)
	if redisClient == nil {
		return local
	}

	shared := ratelimit.NewRedisLimiter(redisClient, limits, "ratelimit:auth")
	limiter := ratelimit.NewFallbackLimiter(shared, local, ratelimit.NewCircuitBreaker(nil)).OnError(func(err error) {
		log.WithError(err).Warn("redis rate limiter failed, using local limiter")
	})
	metrics.RegisterRateLimiter(limiter)
	return limiter
}
