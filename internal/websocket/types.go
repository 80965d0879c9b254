package websocket

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"codeberg.org/portfolio/presence/internal/presence"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// message type constants for websocket communication
const (
	// is sent by a client with a partial update of its own presence
	TypePresenceUpdate = "presence_update"

	// is sent by a client with a one-shot event for the rest of the room
	TypeBroadcastEvent = "broadcast_event"

	// is sent by clients to keep the connection alive
	TypePing = "ping"

	// is sent to a connecting client with its connection id and the others in the room
	TypeRoomState = "room_state"

	// is sent with the full presence of a participant after it changed
	TypePresence = "presence"

	// is sent when a new participant joins the room
	TypeUserJoined = "user_joined"

	// is sent when a participant leaves the room
	TypeUserLeft = "user_left"

	// is sent with a broadcast event from another participant
	TypeEvent = "event"

	// is sent by server in response to ping
	TypePong = "pong"

	// is sent when an error occurs
	TypeError = "error"

	// is sent by server before shutdown
	TypeServerShutdown = "server_shutdown"
)

// client connection constants
const (
	// time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// maximum message size allowed from peer
	maxMessageSize = 16 * 1024 // 16 KB

	// maximum payload of a single presence update or event
	maxPayloadSize = 4 * 1024 // 4 KB

	// presence is published every animation frame; leave headroom above 60fps
	maxPresenceUpdatesPerSecond = 90

	// broadcast events (ripples, confetti) token bucket
	eventsPerSecond = 20
	eventBurst      = 10
)

// hub connection limit constants
const (
	maxConnectionsPerIP = 10
	maxClientsPerRoom   = 100
)

// errors
var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrInvalidMessage    = errors.New("invalid message format")
	ErrClientNotFound    = errors.New("client not found")
	ErrRoomFull          = errors.New("room is full")
	ErrConnectionClosed  = errors.New("connection closed")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrPayloadTooLarge   = errors.New("payload too large")
)

// represents a websocket message with typed payload
type Message struct {
	Type         string          `json:"type"`
	RoomID       string          `json:"room_id"`
	ClientID     string          `json:"-"` // internal only, not sent to clients
	ConnectionID int             `json:"connection_id,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
	Sequence     uint64          `json:"seq,omitempty"`
	Payload      json.RawMessage `json:"payload"`
}

// sent to a connecting client
type RoomStatePayload struct {
	ConnectionID int              `json:"connection_id"`
	Others       []presence.Other `json:"others"`
}

// full presence of one participant
type PresencePayload struct {
	ConnectionID int               `json:"connection_id"`
	Presence     presence.Presence `json:"presence"`
}

// contains information about a newly joined participant
type UserJoinedPayload = PresencePayload

// contains information about a participant who left
type UserLeftPayload struct {
	ConnectionID int `json:"connection_id"`
}

// contains information about server shutdown
type ServerShutdownPayload struct {
	Reason string `json:"reason"`
}

// represents a websocket client connection
type Client struct {
	// unique identifier for this client
	ID string

	// room this client is connected to
	RoomID string

	// per-room connection id, assigned by the hub on registration
	ConnectionID int

	// name from a verified identity token; overrides any published name
	PinnedName *string

	// IP address of the client (for connection tracking)
	IPAddress string

	// websocket connection
	conn *websocket.Conn

	// hub reference for message broadcasting
	hub *Hub

	// buffered channel of outbound messages
	send chan []byte

	// mutex for thread-safe operations
	mu sync.RWMutex

	// flag indicating if client is closed
	closed bool

	// current merged presence (guarded by the hub mutex)
	presence presence.Presence

	// rate limiting: presence update timestamps (sliding window)
	presenceTimestamps []time.Time

	// rate limiting: broadcast events
	eventLimiter *rate.Limiter
}

// maintains the set of active clients and relays presence within rooms
type Hub struct {
	// registered clients by room ID and client ID
	rooms map[string]map[string]*Client

	// register requests from clients
	Register chan *Client

	// unregister requests from clients
	Unregister chan *Client

	// inbound messages from clients
	Broadcast chan *Message

	// mutex for thread-safe access to rooms
	mu sync.RWMutex

	// message handlers for different message types
	handlers map[string]MessageHandler

	// channel to signal shutdown
	shutdown     chan struct{}
	shutdownOnce sync.Once

	// closed when Run returns
	stopped chan struct{}

	// time clients get to read server_shutdown before connections close
	shutdownGrace time.Duration

	// connection tracking: IP address -> count of connections
	ipConnections map[string]int

	// sequence numbers per room for message ordering
	roomSequences map[string]uint64

	// last connection id handed out per room
	roomConnectionIDs map[string]int

	// rooms whose membership or presence changed since the last flush
	dirty map[string]struct{}
}

// processes a specific message type
type MessageHandler func(hub *Hub, client *Client, msg *Message) error
