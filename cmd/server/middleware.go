package main

import (
	"fmt"
	"time"

	"codeberg.org/portfolio/presence/internal/config"
	"codeberg.org/portfolio/presence/internal/errors"
	"codeberg.org/portfolio/presence/internal/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// allows the configured origins; every origin outside production
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}

	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		if cfg.IsProduction() {
			logger.Warn("ALLOWED_ORIGINS not configured, cross-origin requests are allowed from anywhere")
		}

		corsConfig.AllowAllOrigins = true
	}

	return cors.New(corsConfig)
}

// limits HTTP requests per client IP; shares redis with the room store when available
func RateLimitMiddleware(cfg *config.Config, redisClient *redis.Client) (gin.HandlerFunc, error) {
	rate, err := limiter.NewRateFromFormatted(cfg.HTTPRateLimit)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_RATE_LIMIT %q: %w", cfg.HTTPRateLimit, err)
	}

	var store limiter.Store

	if redisClient != nil {
		store, err = sredis.NewStoreWithOptions(redisClient, limiter.StoreOptions{
			Prefix:   "presence:limiter",
			MaxRetry: 3,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis limiter store: %w", err)
		}
	} else {
		store = memory.NewStore()
	}

	instance := limiter.New(store, rate)

	return mgin.NewMiddleware(instance,
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			errors.TooManyRequests(c, "rate limit exceeded, slow down")
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			// fail open: presence is not worth rejecting requests over a limiter outage
			logger.ErrorErr(err, "rate limiter error", "path", c.Request.URL.Path)
			c.Next()
		}),
	), nil
}
