package main

import (
	"codeberg.org/portfolio/presence/internal/auth"
	"codeberg.org/portfolio/presence/internal/config"
	"codeberg.org/portfolio/presence/internal/roomstore"
	ws "codeberg.org/portfolio/presence/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// holds all dependencies and state for the API server
type Server struct {
	config  *config.Config
	hub     *ws.Hub
	store   roomstore.Store
	flusher *roomstore.Flusher
	issuer  *auth.Issuer
	router  *gin.Engine

	// nil when REDIS_URL is not set
	redis *redis.Client
}
