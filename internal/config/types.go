package config

import "time"

type Config struct {
	Port                  string
	Environment           string
	RedisURL              string
	AllowedOrigins        []string
	SessionSecret         []byte
	SessionMaxAge         time.Duration
	SnapshotFlushInterval time.Duration
	RoomSnapshotTTL       time.Duration
	HTTPRateLimit         string
	BotDefense            bool
}

// terminal client flags
type Flags struct {
	Server    string
	Path      string
	StateFile string
	Offline   bool
	Touch     bool
	Color     string
}
