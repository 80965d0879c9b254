package channel

import (
	"sort"
	"sync"

	"codeberg.org/portfolio/presence/internal/logger"
	"codeberg.org/portfolio/presence/internal/presence"
)

const eventBuffer = 64

// membership view shared by Room implementations
type State struct {
	mu           sync.RWMutex
	roomID       string
	connectionID int
	self         presence.Presence
	others       map[int]presence.Presence
	changes      chan struct{}
	events       chan presence.EventMessage
	closed       bool
}

func NewState(roomID string, initial presence.Presence) *State {
	return &State{
		roomID:  roomID,
		self:    initial.Clone(),
		others:  make(map[int]presence.Presence),
		changes: make(chan struct{}, 1),
		events:  make(chan presence.EventMessage, eventBuffer),
	}
}

func (s *State) ID() string {
	return s.roomID
}

func (s *State) ConnectionID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connectionID
}

func (s *State) SetConnectionID(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connectionID = id
}

// merges patch into own presence and returns the merged record
func (s *State) MergeSelf(patch presence.Patch) presence.Presence {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.self = presence.Merge(s.self, patch)
	return s.self.Clone()
}

func (s *State) Self() presence.Presence {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.self.Clone()
}

func (s *State) Others() []presence.Other {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return []presence.Other{}
	}

	others := make([]presence.Other, 0, len(s.others))
	for id, p := range s.others {
		others = append(others, presence.Other{ConnectionID: id, Presence: p.Clone()})
	}

	sort.Slice(others, func(i, j int) bool {
		return others[i].ConnectionID < others[j].ConnectionID
	})

	return others
}

// replaces every other participant
func (s *State) SetOthers(others []presence.Other) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.others = make(map[int]presence.Presence, len(others))
	for _, o := range others {
		if o.ConnectionID == s.connectionID {
			continue
		}

		s.others[o.ConnectionID] = o.Presence.Clone()
	}

	s.notifyLocked()
}

// inserts or replaces one participant
func (s *State) PutOther(connectionID int, p presence.Presence) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if connectionID == s.connectionID {
		return
	}

	s.others[connectionID] = p.Clone()
	s.notifyLocked()
}

func (s *State) RemoveOther(connectionID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.others[connectionID]; !ok {
		return
	}

	delete(s.others, connectionID)
	s.notifyLocked()
}

// queues an event from another participant; dropped when nobody keeps up
func (s *State) Deliver(ev presence.EventMessage) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return
	}

	select {
	case s.events <- ev:
	default:
		logger.Debug("dropping room event, consumer is behind",
			"room_id", s.roomID,
			"kind", ev.Event.Kind,
		)
	}
}

func (s *State) Events() <-chan presence.EventMessage {
	return s.events
}

func (s *State) Changes() <-chan struct{} {
	return s.changes
}

// reports whether Close was called
func (s *State) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// forgets the others and closes the notification channels; safe to call more than once
func (s *State) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.notifyLocked()
	s.closed = true
	s.others = make(map[int]presence.Presence)
	close(s.changes)
	close(s.events)
}

// must be called with the write lock held
func (s *State) notifyLocked() {
	if s.closed {
		return
	}

	select {
	case s.changes <- struct{}{}:
	default:
	}
}
