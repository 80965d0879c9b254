package channel

import (
	"context"
	"sync"

	"codeberg.org/portfolio/presence/internal/presence"
)

// in-process broker; every room lives in this process
type Memory struct {
	mu     sync.Mutex
	rooms  map[string]map[int]*memoryRoom
	nextID map[string]int
}

type memoryRoom struct {
	*State
	broker *Memory
	once   sync.Once
}

func NewMemory() *Memory {
	return &Memory{
		rooms:  make(map[string]map[int]*memoryRoom),
		nextID: make(map[string]int),
	}
}

// joins roomID with the initial presence
func (m *Memory) Connect(ctx context.Context, roomID string, initial presence.Presence) (Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rooms[roomID] == nil {
		m.rooms[roomID] = make(map[int]*memoryRoom)
	}

	m.nextID[roomID]++
	id := m.nextID[roomID]

	room := &memoryRoom{State: NewState(roomID, initial), broker: m}
	room.SetConnectionID(id)

	others := make([]presence.Other, 0, len(m.rooms[roomID]))
	for otherID, other := range m.rooms[roomID] {
		others = append(others, presence.Other{ConnectionID: otherID, Presence: other.Self()})
		other.PutOther(id, room.Self())
	}

	room.SetOthers(others)
	m.rooms[roomID][id] = room

	return room, nil
}

// number of members in a room
func (m *Memory) Size(roomID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms[roomID])
}

func (r *memoryRoom) UpdateOwnPresence(patch presence.Patch) {
	if r.Closed() || len(patch) == 0 {
		return
	}

	self := r.MergeSelf(patch)
	id := r.ConnectionID()

	r.broker.mu.Lock()
	defer r.broker.mu.Unlock()

	for otherID, other := range r.broker.rooms[r.ID()] {
		if otherID != id {
			other.PutOther(id, self)
		}
	}
}

func (r *memoryRoom) Broadcast(ev presence.Event) {
	if r.Closed() {
		return
	}

	id := r.ConnectionID()
	msg := presence.EventMessage{ConnectionID: id, Event: ev}

	r.broker.mu.Lock()
	defer r.broker.mu.Unlock()

	for otherID, other := range r.broker.rooms[r.ID()] {
		if otherID != id {
			other.Deliver(msg)
		}
	}
}

func (r *memoryRoom) Disconnect() {
	r.once.Do(func() {
		id := r.ConnectionID()

		r.broker.mu.Lock()

		members := r.broker.rooms[r.ID()]
		delete(members, id)

		for _, other := range members {
			other.RemoveOther(id)
		}

		if len(members) == 0 {
			delete(r.broker.rooms, r.ID())
			delete(r.broker.nextID, r.ID())
		}

		r.broker.mu.Unlock()

		r.Close()
	})
}
