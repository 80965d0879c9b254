package main

import (
	"codeberg.org/portfolio/presence/api/rest/health"
	"codeberg.org/portfolio/presence/api/rest/identity"
	"codeberg.org/portfolio/presence/api/rest/rooms"
	"codeberg.org/portfolio/presence/api/websocket"
	"codeberg.org/portfolio/presence/internal/botdefense"
	"github.com/gin-gonic/gin"
)

// sets up all API routes and middleware
func RegisterRoutes(router *gin.Engine, server *Server) error {
	rateLimit, err := RateLimitMiddleware(server.config, server.redis)
	if err != nil {
		return err
	}

	router.Use(CORSMiddleware(server.config))
	router.Use(newDefense(server).Middleware())
	router.GET("/health", health.Handler(server.hub))

	v1 := router.Group("/api/v1")
	v1.Use(rateLimit)

	{
		v1.GET("/ping", health.PingHandler)

		rooms.RegisterRoutes(v1, server.store)
		identity.RegisterRoutes(v1, server.issuer)

		upgrader := websocket.NewUpgrader(server.config.AllowedOrigins, server.config.IsProduction())
		websocket.RegisterRoutes(v1, server.hub, server.issuer, upgrader)
	}

	return nil
}

// trapped ips are shared through redis when it is configured
func newDefense(server *Server) *botdefense.Defense {
	cfg := botdefense.DefaultConfig()
	cfg.Enabled = server.config.BotDefense

	if server.redis != nil {
		return botdefense.New(cfg, botdefense.NewRedisStore(server.redis))
	}

	return botdefense.New(cfg, botdefense.NewMemoryStore())
}
