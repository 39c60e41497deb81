// Package routes wires handlers and middleware into the HTTP surface.
package routes

import (
	"net/http"
	"time"

	"todo-api/internal/config"
	"todo-api/internal/handlers"
	"todo-api/internal/middleware"
	"todo-api/internal/monitoring"
	"todo-api/internal/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Dependencies struct {
	Config      *config.Config
	Log         *logrus.Logger
	AuthHandler *handlers.AuthHandler
	TaskHandler *handlers.TaskHandler
	Tokens      middleware.TokenVerifier
	Tasks       middleware.TaskFinder
	// AuthLimiter throttles signup and login. Nil disables it.
	AuthLimiter ratelimit.Limiter
	Metrics     *monitoring.Metrics
	Health      *monitoring.HealthChecker
}

func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	Setup(router, deps)
	return router
}

// Setup configures all HTTP routes for the application.
func Setup(router *gin.Engine, deps Dependencies) {
	trustProxies(router, deps.Config.Server.TrustedProxies, deps.Log)

	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(deps.Log),
		middleware.RecoveryWithLog(deps.Log),
		middleware.SecurityHeaders(deps.Config.IsProduction()),
		cors.New(corsConfig(deps.Config.Server.AllowedOrigins)),
	)
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
		router.GET("/metrics", deps.Metrics.Handler())
	}

	if deps.Health != nil {
		router.GET("/health/live", deps.Health.LivenessHandler())
		router.GET("/health/ready", deps.Health.ReadinessHandler())
	}

	auth := router.Group("/auth")
	if deps.AuthLimiter != nil {
		auth.Use(middleware.RateLimit(deps.AuthLimiter, deps.Log))
	}
	{
		auth.POST("/signup", deps.AuthHandler.Signup)
		auth.POST("/login", deps.AuthHandler.Login)
	}

	todos := router.Group("/todos", middleware.Authenticate(deps.Tokens))
	{
		todos.GET("", deps.TaskHandler.ListTasks)
		todos.POST("", deps.TaskHandler.CreateTask)

		owned := todos.Group("/:id", middleware.RequireTaskOwner(deps.Tasks))
		owned.PATCH("", deps.TaskHandler.UpdateTask)
		owned.DELETE("", deps.TaskHandler.DeleteTask)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "route not found",
		})
	})
}

// trustProxies limits which peers may set X-Forwarded-For. With none
// configured the client IP is always the socket address.
func trustProxies(router *gin.Engine, proxies []string, log *logrus.Logger) {
	if len(proxies) == 0 {
		proxies = nil
	}
	if err := router.SetTrustedProxies(proxies); err != nil {
		log.WithError(err).Warn("invalid trusted proxies, ignoring forwarding headers")
		_ = router.SetTrustedProxies(nil)
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader, "Retry-After"},
		MaxAge:        12 * time.Hour,
	}

	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}
