package roomstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

// implements Store using Redis
type RedisStore struct {
	client *redis.Client
}

// creates a new Redis-backed room store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// creates a new Redis-backed room store from a URL
func NewRedisStoreFromURL(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// returns the underlying client (shared with the HTTP rate limiter)
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// writes the snapshot with a TTL and indexes the room
func (s *RedisStore) Save(ctx context.Context, snapshot *Snapshot, ttl time.Duration) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal room snapshot: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, fmt.Sprintf(keyRoomSnapshot, snapshot.RoomID), data, ttl)
	pipe.SAdd(ctx, keyActiveRooms, snapshot.RoomID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save room snapshot to redis: %w", err)
	}

	return nil
}

// reads a room snapshot
func (s *RedisStore) Get(ctx context.Context, roomID string) (*Snapshot, error) {
	data, err := s.client.Get(ctx, fmt.Sprintf(keyRoomSnapshot, roomID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrRoomNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read room snapshot from redis: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room snapshot: %w", err)
	}

	return &snapshot, nil
}

// lists indexed rooms, pruning index entries whose snapshot has expired
func (s *RedisStore) List(ctx context.Context) ([]Summary, error) {
	roomIDs, err := s.client.SMembers(ctx, keyActiveRooms).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms from redis: %w", err)
	}

	if len(roomIDs) == 0 {
		return []Summary{}, nil
	}

	// use pipeline to fetch all snapshots in one round trip
	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(roomIDs))

	for i, roomID := range roomIDs {
		cmds[i] = pipe.Get(ctx, fmt.Sprintf(keyRoomSnapshot, roomID))
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to read room snapshots from redis: %w", err)
	}

	summaries := make([]Summary, 0, len(roomIDs))
	stale := make([]any, 0)

	for i, cmd := range cmds {
		data, err := cmd.Bytes()
		if errors.Is(err, redis.Nil) {
			stale = append(stale, roomIDs[i])
			continue
		}

		var snapshot Snapshot
		if err != nil || json.Unmarshal(data, &snapshot) != nil {
			continue
		}

		summaries = append(summaries, Summary{
			RoomID:    snapshot.RoomID,
			Count:     len(snapshot.Participants),
			UpdatedAt: snapshot.UpdatedAt,
		})
	}

	if len(stale) > 0 {
		s.client.SRem(ctx, keyActiveRooms, stale...) //nolint:errcheck,gosec // best-effort index pruning
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].RoomID < summaries[j].RoomID
	})

	return summaries, nil
}

// removes a room snapshot and its index entry
func (s *RedisStore) Delete(ctx context.Context, roomID string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, fmt.Sprintf(keyRoomSnapshot, roomID))
	pipe.SRem(ctx, keyActiveRooms, roomID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete room snapshot from redis: %w", err)
	}

	return nil
}

// closes the redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
