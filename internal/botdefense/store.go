package botdefense

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const trapKeyPrefix = "presence:trap:"

type TrapReason string

const (
	ReasonHoneypot   TrapReason = "honeypot"
	ReasonBotPattern TrapReason = "bot_pattern"
	ReasonProbe      TrapReason = "probe"
)

// remembers trapped IPs
type Store interface {
	Trap(ctx context.Context, ip string, reason TrapReason, ttl time.Duration) error
	Trapped(ctx context.Context, ip string) (bool, TrapReason, error)
}

type trapEntry struct {
	reason  TrapReason
	expires time.Time
}

// in-process trap list
type MemoryStore struct {
	mu    sync.Mutex
	traps map[string]trapEntry
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		traps: make(map[string]trapEntry),
		now:   time.Now,
	}
}

func (s *MemoryStore) Trap(_ context.Context, ip string, reason TrapReason, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.traps[ip] = trapEntry{reason: reason, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Trapped(_ context.Context, ip string) (bool, TrapReason, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.traps[ip]
	if !ok {
		return false, "", nil
	}

	if !s.now().Before(entry.expires) {
		delete(s.traps, ip)
		return false, "", nil
	}

	return true, entry.reason, nil
}

// trap list shared by every instance through redis
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Trap(ctx context.Context, ip string, reason TrapReason, ttl time.Duration) error {
	if err := s.client.Set(ctx, trapKeyPrefix+ip, string(reason), ttl).Err(); err != nil {
		return fmt.Errorf("failed to trap ip: %w", err)
	}

	return nil
}

func (s *RedisStore) Trapped(ctx context.Context, ip string) (bool, TrapReason, error) {
	reason, err := s.client.Get(ctx, trapKeyPrefix+ip).Result()
	if errors.Is(err, redis.Nil) {
		return false, "", nil
	}

	if err != nil {
		return false, "", fmt.Errorf("failed to check trap: %w", err)
	}

	return true, TrapReason(reason), nil
}
