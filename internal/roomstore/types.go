package roomstore

import (
	"context"
	"errors"
	"time"
)

// redis key patterns
const (
	// presence:room:{roomID} - JSON snapshot of a room's participants
	keyRoomSnapshot = "presence:room:%s"

	// presence:rooms - set of room IDs with a live snapshot
	keyActiveRooms = "presence:rooms"
)

var ErrRoomNotFound = errors.New("room not found")

// a participant as seen by REST readers
type Participant struct {
	ConnectionID int    `json:"connection_id"`
	Name         string `json:"name"`
	Color        string `json:"color,omitempty"`
	IsExiting    bool   `json:"is_exiting"`
}

// point-in-time copy of a room's membership
type Snapshot struct {
	RoomID       string        `json:"room_id"`
	Participants []Participant `json:"participants"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// compact room listing entry
type Summary struct {
	RoomID    string    `json:"room_id"`
	Count     int       `json:"count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// persists room snapshots with a TTL
type Store interface {
	Save(ctx context.Context, snapshot *Snapshot, ttl time.Duration) error
	Get(ctx context.Context, roomID string) (*Snapshot, error)
	List(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, roomID string) error
	Close() error
}

// provides live room state to the flusher (implemented by the websocket hub)
type Source interface {
	// room IDs with at least one connection
	RoomIDs() []string

	// current membership of a room, false when the room is empty
	Snapshot(roomID string) (*Snapshot, bool)

	// rooms whose membership changed since the last call
	TakeDirty() []string
}
