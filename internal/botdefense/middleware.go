package botdefense

import (
	"context"
	"math/rand/v2"

	"codeberg.org/portfolio/presence/internal/logger"
	"github.com/gin-gonic/gin"
)

// traps scanners hitting honeypots and wastes their time afterwards
type Defense struct {
	config *Config
	store  Store
}

func New(config *Config, store Store) *Defense {
	if config == nil {
		config = DefaultConfig()
	}

	if store == nil {
		store = NewMemoryStore()
	}

	return &Defense{config: config, store: store}
}

func (d *Defense) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !d.config.Enabled {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		ip := c.ClientIP()
		path := c.Request.URL.Path

		if d.config.IsExemptPath(path) {
			c.Next()
			return
		}

		if d.config.IsHoneypotPath(path) {
			d.trap(ctx, ip, ReasonHoneypot)
			logger.Warn("honeypot triggered", "ip", ip, "path", path)
			d.respond(c)
			return
		}

		trapped, reason, err := d.store.Trapped(ctx, ip)
		if err != nil {
			logger.ErrorErr(err, "failed to check trapped status", "ip", ip)
		} else if trapped {
			logger.Debug("trapped ip request blocked", "ip", ip, "reason", reason)
			d.respond(c)
			return
		}

		if IsSuspiciousPath(path) {
			d.trap(ctx, ip, ReasonProbe)
			logger.Warn("suspicious path accessed", "ip", ip, "path", path)
			d.respond(c)
			return
		}

		signals := Detect(c.Request)
		if signals.Score > 0 {
			logger.Debug("bot signals",
				"ip", ip,
				"path", path,
				"score", signals.Score,
				"pattern", signals.BotPatternMatch,
				"missing_headers", signals.MissingHeaders,
			)
		}

		if d.config.TrapScore > 0 && signals.Score >= d.config.TrapScore {
			d.trap(ctx, ip, ReasonBotPattern)
			d.respond(c)
			return
		}

		c.Next()
	}
}

func (d *Defense) trap(ctx context.Context, ip string, reason TrapReason) {
	if err := d.store.Trap(ctx, ip, reason, d.config.TrapTTL); err != nil {
		logger.ErrorErr(err, "failed to trap ip", "ip", ip)
	}
}

func (d *Defense) respond(c *gin.Context) {
	if rand.IntN(2) == 0 { //nolint:gosec
		ServePoisonedRooms(c)
	} else {
		Tarpit(c, d.config.TarpitDuration, d.config.TarpitChunkDelay)
	}

	c.Abort()
}
