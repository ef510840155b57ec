package main

import (
	"time"

	"codeberg.org/citelens/server/api/rest/aggregate"
	"codeberg.org/citelens/server/api/rest/analyses"
	"codeberg.org/citelens/server/api/rest/health"
	"codeberg.org/citelens/server/api/rest/prompts"
	"codeberg.org/citelens/server/api/websocket"
	"codeberg.org/citelens/server/internal/errors"
	"codeberg.org/citelens/server/internal/logger"
	"codeberg.org/citelens/server/internal/metrics"
	ws "codeberg.org/citelens/server/internal/websocket"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// sets up all API routes and middleware
func RegisterRoutes(router *gin.Engine, server *Server) {
	router.Use(gin.Recovery())
	router.Use(RequestLogger())
	router.Use(metrics.Middleware())
	router.Use(CORSMiddleware(server.config.Environment, server.config.AllowedOrigins))

	router.GET("/health", health.Handler)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	limit := server.limiter.Middleware()
	checkOrigin := ws.NewOriginChecker(server.config.Environment, server.config.AllowedOrigins)

	v1 := router.Group("/api/v1")

	{
		v1.GET("/ping", health.PingHandler)

		prompts.RegisterRoutes(v1, server.services.Crawler, server.services.Generator, limit)
		analyses.RegisterRoutes(v1, server.store, server.runner, server.auth, limit)
		aggregate.RegisterRoutes(v1, limit)
		websocket.RegisterRoutes(v1, server.hub, server.store, checkOrigin)
	}

	router.NoRoute(func(c *gin.Context) {
		errors.NotFound(c, "route")
	})
}

// allows every origin outside production and the configured ones inside it
func CORSMiddleware(environment string, allowedOrigins []string) gin.HandlerFunc {
	config := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if environment == "production" {
		config.AllowOrigins = allowedOrigins
	} else {
		config.AllowOriginFunc = func(string) bool { return true }
	}

	if len(config.AllowOrigins) == 0 && config.AllowOriginFunc == nil {
		// cors.New panics without any allowed origin
		config.AllowOriginFunc = func(string) bool { return false }
	}

	return cors.New(config)
}

// logs one line per request through the structured logger
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", c.ClientIP(),
		)
	}
}
