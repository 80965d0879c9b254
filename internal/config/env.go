package config

import (
	"crypto/rand"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort                  = "8080"
	defaultSessionMaxAge         = 24 * time.Hour
	defaultSnapshotFlushInterval = time.Second
	defaultRoomSnapshotTTL       = 30 * time.Second
	defaultHTTPRateLimit         = "120-M"
)

// loads configuration from environment variables
func LoadEnvironmentVariables() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		_ = err // not an error - production environments may not have .env file
	}

	environment := os.Getenv("ENVIRONMENT")
	if environment == "" {
		environment = "development"
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	sessionMaxAge, err := durationFromEnv("SESSION_MAX_AGE", defaultSessionMaxAge)
	if err != nil {
		return nil, err
	}

	flushInterval, err := durationFromEnv("SNAPSHOT_FLUSH_INTERVAL", defaultSnapshotFlushInterval)
	if err != nil {
		return nil, err
	}

	snapshotTTL, err := durationFromEnv("ROOM_SNAPSHOT_TTL", defaultRoomSnapshotTTL)
	if err != nil {
		return nil, err
	}

	// snapshots must outlive at least two flushes or rooms flicker out of the store
	if snapshotTTL < 2*flushInterval {
		return nil, fmt.Errorf("ROOM_SNAPSHOT_TTL (%s) must be at least twice SNAPSHOT_FLUSH_INTERVAL (%s)", snapshotTTL, flushInterval)
	}

	secret := []byte(os.Getenv("SESSION_SECRET"))
	if len(secret) == 0 {
		if environment == "production" {
			return nil, fmt.Errorf("SESSION_SECRET environment variable is required in production")
		}

		// identity tokens only need to survive this process in development
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
	}

	rateLimit := os.Getenv("HTTP_RATE_LIMIT")
	if rateLimit == "" {
		rateLimit = defaultHTTPRateLimit
	}

	// honeypot trapping is on unless explicitly disabled
	botDefense := true
	switch strings.ToLower(os.Getenv("BOT_DEFENSE")) {
	case "0", "false", "off":
		botDefense = false
	}

	return &Config{
		Port:                  port,
		Environment:           environment,
		RedisURL:              os.Getenv("REDIS_URL"),
		AllowedOrigins:        splitList(os.Getenv("ALLOWED_ORIGINS")),
		SessionSecret:         secret,
		SessionMaxAge:         sessionMaxAge,
		SnapshotFlushInterval: flushInterval,
		RoomSnapshotTTL:       snapshotTTL,
		HTTPRateLimit:         rateLimit,
		BotDefense:            botDefense,
	}, nil
}

// reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}

	return d, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return []string{}
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}
