package channel

import (
	"context"
	"sync"

	"codeberg.org/portfolio/presence/internal/logger"
	"codeberg.org/portfolio/presence/internal/presence"
)

// holds at most one room membership and moves it between rooms
type Switcher struct {
	connector Connector

	mu      sync.Mutex
	current Room
}

func NewSwitcher(connector Connector) *Switcher {
	return &Switcher{connector: connector}
}

// leaves the current room, then joins roomID with a fresh initial presence
func (s *Switcher) Switch(ctx context.Context, roomID string, initial presence.Presence) (Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		logger.Debug("leaving room", "room_id", s.current.ID())
		s.current.Disconnect()
		s.current = nil
	}

	room, err := s.connector.Connect(ctx, roomID, initial)
	if err != nil {
		return nil, err
	}

	logger.Debug("joined room", "room_id", roomID, "connection_id", room.ConnectionID())

	s.current = room
	return room, nil
}

// the current room, nil before the first Switch or after Close
func (s *Switcher) Current() Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// leaves the current room
func (s *Switcher) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		s.current.Disconnect()
		s.current = nil
	}
}
