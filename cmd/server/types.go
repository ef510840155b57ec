package main

import (
	"codeberg.org/citelens/server/citelens/reports"
	"codeberg.org/citelens/server/internal/auth"
	"codeberg.org/citelens/server/internal/config"
	"codeberg.org/citelens/server/internal/crawler"
	"codeberg.org/citelens/server/internal/prompts"
	"codeberg.org/citelens/server/internal/provider"
	"codeberg.org/citelens/server/internal/ratelimit"
	"codeberg.org/citelens/server/internal/runner"
	ws "codeberg.org/citelens/server/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// holds all dependencies and state for the API server
type Server struct {
	db       *pgxpool.Pool // nil when reports are kept in memory
	redis    *redis.Client // nil when no cache is configured
	config   *config.Config
	store    reports.Store
	services *Services
	auth     *auth.Manager
	limiter  *ratelimit.Limiter
	hub      *ws.Hub
	runner   *runner.Runner
	router   *gin.Engine
	cleanup  *reports.CleanupService
}

// holds all external service clients (crawler, prompt generator, answer provider)
type Services struct {
	Crawler   *crawler.Crawler
	Generator prompts.Generator
	Provider  provider.Provider
}
