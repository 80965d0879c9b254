package roomstore

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore implements Store using in-memory storage
type MemoryStore struct {
	mu     sync.RWMutex
	rooms  map[string]*memoryRoom
	now    func() time.Time
	done   chan struct{}
	closed bool
}

type memoryRoom struct {
	snapshot  Snapshot
	expiresAt time.Time
}

// creates a new in-memory room store
func NewMemoryStore() *MemoryStore {
	store := &MemoryStore{
		rooms: make(map[string]*memoryRoom),
		now:   time.Now,
		done:  make(chan struct{}),
	}

	go store.cleanupLoop()

	return store
}

// stores a copy of the snapshot until ttl elapses
func (s *MemoryStore) Save(_ context.Context, snapshot *Snapshot, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *snapshot
	cp.Participants = append([]Participant(nil), snapshot.Participants...)

	s.rooms[snapshot.RoomID] = &memoryRoom{
		snapshot:  cp,
		expiresAt: s.now().Add(ttl),
	}

	return nil
}

// returns the stored snapshot for a room
func (s *MemoryStore) Get(_ context.Context, roomID string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, exists := s.rooms[roomID]
	if !exists {
		return nil, ErrRoomNotFound
	}

	if s.now().After(room.expiresAt) {
		delete(s.rooms, roomID)
		return nil, ErrRoomNotFound
	}

	cp := room.snapshot
	cp.Participants = append([]Participant(nil), room.snapshot.Participants...)

	return &cp, nil
}

// lists live rooms ordered by room ID
func (s *MemoryStore) List(_ context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	summaries := make([]Summary, 0, len(s.rooms))

	for roomID, room := range s.rooms {
		if now.After(room.expiresAt) {
			continue
		}

		summaries = append(summaries, Summary{
			RoomID:    roomID,
			Count:     len(room.snapshot.Participants),
			UpdatedAt: room.snapshot.UpdatedAt,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].RoomID < summaries[j].RoomID
	})

	return summaries, nil
}

// removes a room snapshot
func (s *MemoryStore) Delete(_ context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.rooms, roomID)
	return nil
}

// stops the cleanup goroutine
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	close(s.done)
	return nil
}

func (s *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *MemoryStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for roomID, room := range s.rooms {
		if now.After(room.expiresAt) {
			delete(s.rooms, roomID)
		}
	}
}
