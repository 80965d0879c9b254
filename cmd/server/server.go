package main

import (
	"fmt"

	"codeberg.org/portfolio/presence/internal/auth"
	"codeberg.org/portfolio/presence/internal/config"
	"codeberg.org/portfolio/presence/internal/logger"
	"codeberg.org/portfolio/presence/internal/roomstore"
	ws "codeberg.org/portfolio/presence/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// creates and configures a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	issuer, err := auth.NewIssuer(cfg.SessionSecret, cfg.SessionMaxAge)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity issuer: %w", err)
	}

	var store roomstore.Store
	var redisClient *redis.Client

	// room snapshots go to redis when configured so several instances share occupancy
	if cfg.RedisURL != "" {
		redisStore, err := roomstore.NewRedisStoreFromURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis room store: %w", err)
		}

		store = redisStore
		redisClient = redisStore.Client()

		logger.Info("using redis room store")
	} else {
		store = roomstore.NewMemoryStore()

		logger.Info("using in-memory room store")
	}

	hub := ws.NewHub()
	hub.RegisterDefaultHandlers()

	flusher := roomstore.NewFlusher(hub, store, cfg.SnapshotFlushInterval, cfg.RoomSnapshotTTL)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	server := &Server{
		config:  cfg,
		hub:     hub,
		store:   store,
		flusher: flusher,
		issuer:  issuer,
		router:  router,
		redis:   redisClient,
	}

	if err := RegisterRoutes(router, server); err != nil {
		store.Close() //nolint:errcheck,gosec // best-effort cleanup on init failure
		return nil, err
	}

	return server, nil
}
