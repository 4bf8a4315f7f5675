package router

import (
	"time"

	"ai-chat-console/backend/internal/api"
	"ai-chat-console/backend/pkg/config"
	"ai-chat-console/backend/pkg/di"
	"ai-chat-console/backend/pkg/errors"
	"ai-chat-console/backend/pkg/logger"
	"ai-chat-console/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Router is the main router for the application
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
	Config    *config.Config
}

// New creates a new router with the given container
func New(container *di.Container) *Router {
	logger.SetGlobal(container.Logger)

	cfg := config.Get()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.SetTrustedProxies(cfg.Security.TrustedProxies)

	// Logger middleware first so every request is captured
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(errors.ErrorHandler())
	engine.Use(errors.RecoveryWithLogger())

	rateLimiter := middleware.NewRateLimiter(container.Logger, middleware.RateLimiterOptions{
		Limit:          rate.Limit(cfg.Security.RateLimit),
		Burst:          cfg.Security.RateLimitBurst,
		ExpiryDuration: time.Hour,
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	})
	engine.Use(rateLimiter.Middleware())

	return &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Config:    cfg,
	}
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	r.Engine.Use(corsMiddleware(r.Config.Security.AllowedOrigins))

	chatHandler := api.NewChatHandler(
		r.Container.Store,
		r.Container.Controller,
		r.Config.Inference.ServerTurn,
		r.Logger,
	)

	apiRoutes := r.Engine.Group("/api")
	{
		apiRoutes.GET("/health", r.healthCheckHandler())
		chatHandler.RegisterRoutes(apiRoutes)
	}
}

// healthCheckHandler probes the store's backing services
func (r *Router) healthCheckHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		components := gin.H{}
		status := "ok"

		if r.Container.DB != nil {
			dbStatus := "ok"
			if err := r.Container.DB.Exec("SELECT 1").Error; err != nil {
				dbStatus = err.Error()
				status = "degraded"
				r.Logger.Error("Database health check failed", "error", err)
			}
			components["database"] = dbStatus
		}

		if r.Container.Redis != nil {
			redisStatus := "ok"
			if err := r.Container.Redis.Ping(c.Request.Context()).Err(); err != nil {
				redisStatus = err.Error()
				status = "degraded"
				r.Logger.Error("Redis health check failed", "error", err)
			}
			components["redis"] = redisStatus
		}

		c.JSON(200, gin.H{
			"status":     status,
			"env":        r.Config.Server.Env,
			"time":       time.Now().Format(time.RFC3339),
			"components": components,
		})
	}
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		switch {
		case allowAll:
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		case allowed[origin]:
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept, Accept-Encoding, X-CSRF-Token, Authorization, Origin, Cache-Control")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
