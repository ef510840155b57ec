package main

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/citelens/server/citelens/reports"
	"codeberg.org/citelens/server/internal/auth"
	"codeberg.org/citelens/server/internal/config"
	"codeberg.org/citelens/server/internal/logger"
	"codeberg.org/citelens/server/internal/metrics"
	"codeberg.org/citelens/server/internal/progress"
	"codeberg.org/citelens/server/internal/ratelimit"
	"codeberg.org/citelens/server/internal/runner"
	ws "codeberg.org/citelens/server/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const (
	// how often the cleanup service looks for interrupted runs
	cleanupCheckInterval = 5 * time.Minute

	// unfinished reports untouched for longer than this are failed; runs time
	// out well before it
	staleReportThreshold = 15 * time.Minute
)

// creates and configures a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	ctx := context.Background()

	db, store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	redisClient, err := openRedis(ctx, cfg)
	if err != nil {
		closeDB(db)
		return nil, err
	}

	limiter, err := ratelimit.New(cfg.RateLimit, redisClient)
	if err != nil {
		closeDB(db)
		closeRedis(redisClient)
		return nil, fmt.Errorf("failed to create rate limiter: %w", err)
	}

	services := InitializeServices(cfg, redisClient)
	hub := ws.NewHub()
	publisher := progress.Multi{hub, metrics.ProgressCounter{}}

	analysisRunner := runner.New(services.Provider, store, publisher, runner.Options{
		Concurrency: cfg.RunnerConcurrency,
		Backoff:     runner.DefaultBackoff,
	})

	// fail reports whose runs died with a previous process
	cleanupService := reports.NewCleanupService(store, cleanupCheckInterval, staleReportThreshold, publisher)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	server := &Server{
		db:       db,
		redis:    redisClient,
		config:   cfg,
		store:    store,
		services: services,
		auth:     auth.NewManager(cfg.JWTSecret, 0),
		limiter:  limiter,
		hub:      hub,
		runner:   analysisRunner,
		router:   router,
		cleanup:  cleanupService,
	}

	RegisterRoutes(router, server)

	logger.Info("server initialized",
		"environment", cfg.Environment,
		"persistent_reports", db != nil,
		"prompt_cache", redisClient != nil,
		"provider", services.Provider.Name(),
		"auth_enabled", server.auth.Enabled(),
	)

	return server, nil
}

// Postgres when DATABASE_URL is set, process memory otherwise
func openStore(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, reports.Store, error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, reports are kept in memory")
		return nil, reports.NewMemoryStore(), nil
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// keep the pool small, reports are written once per run
	poolConfig.MaxConns = 5
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	// simple protocol for PgBouncer compatibility in transaction mode
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	db, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	repo := reports.NewRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}

	return db, repo, nil
}

func openRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		logger.Warn("REDIS_URL not set, prompt cache disabled and rate limits kept in memory")
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close() //nolint:errcheck,gosec // best-effort cleanup on init failure
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

func closeDB(db *pgxpool.Pool) {
	if db != nil {
		db.Close()
	}
}

func closeRedis(client *redis.Client) {
	if client != nil {
		client.Close() //nolint:errcheck,gosec // best-effort cleanup
	}
}
