package botdefense

import (
	"strings"
	"time"
)

// holds bot defense configuration
type Config struct {
	// whether bot defense is active
	Enabled bool

	// how long an IP stays trapped
	TrapTTL time.Duration

	// how long to slow-drip responses to trapped clients
	TarpitDuration time.Duration

	// delay between each byte sent during tarpitting
	TarpitChunkDelay time.Duration

	// requests scoring at least this much are trapped; 0 only logs the score
	TrapScore int

	// paths that only scanners would access
	HoneypotPaths []string

	// paths that bypass bot defense
	ExemptPaths []string
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:          true,
		TrapTTL:          24 * time.Hour,
		TarpitDuration:   30 * time.Second,
		TarpitChunkDelay: time.Second,
		HoneypotPaths: []string{
			// wordpress
			"/wp-admin",
			"/wp-login.php",
			"/xmlrpc.php",

			// config/secrets
			"/.env",
			"/.git",
			"/config.json",
			"/.aws/credentials",

			// admin panels
			"/admin",
			"/phpmyadmin",

			// backups
			"/backup.sql",
			"/db.sql",

			// presence-specific honeypots
			"/api/v1/rooms/export",
			"/api/v1/identity/all",
			"/api/v1/admin",
		},
		ExemptPaths: []string{
			"/health",
			"/api/v1/ping",
			"/api/v1/ws", // long-lived connections are limited by the hub
		},
	}
}

// exact or prefix match on a path segment boundary
func matchesAny(path string, candidates []string) bool {
	for _, p := range candidates {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}

	return false
}

func (c *Config) IsHoneypotPath(path string) bool {
	return matchesAny(path, c.HoneypotPaths)
}

func (c *Config) IsExemptPath(path string) bool {
	return matchesAny(path, c.ExemptPaths)
}
