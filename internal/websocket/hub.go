package websocket

import (
	"sort"
	"time"

	"codeberg.org/portfolio/presence/internal/logger"
	"codeberg.org/portfolio/presence/internal/presence"
	"codeberg.org/portfolio/presence/internal/roomstore"
)

func NewHub() *Hub {
	return &Hub{
		rooms:             make(map[string]map[string]*Client),
		Register:          make(chan *Client),
		Unregister:        make(chan *Client),
		Broadcast:         make(chan *Message, 256),
		handlers:          make(map[string]MessageHandler),
		shutdown:          make(chan struct{}),
		stopped:           make(chan struct{}),
		shutdownGrace:     500 * time.Millisecond,
		ipConnections:     make(map[string]int),
		roomSequences:     make(map[string]uint64),
		roomConnectionIDs: make(map[string]int),
		dirty:             make(map[string]struct{}),
	}
}

// registers a handler for a specific message type
func (h *Hub) RegisterHandler(messageType string, handler MessageHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[messageType] = handler
}

// registers the presence_update, broadcast_event and ping handlers
func (h *Hub) RegisterDefaultHandlers() {
	h.RegisterHandler(TypePresenceUpdate, PresenceUpdateHandler())
	h.RegisterHandler(TypeBroadcastEvent, BroadcastEventHandler())
	h.RegisterHandler(TypePing, PingHandler())
}

// starts the hub's main loop
func (h *Hub) Run() {
	defer close(h.stopped)

	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			// a read pump queues its last messages before asking to leave
			h.drainBroadcast()
			h.unregisterClient(client)

		case message := <-h.Broadcast:
			h.handleMessage(message)

		case <-h.shutdown:
			h.closeAllConnections()
			return
		}
	}
}

// handles every message already queued
func (h *Hub) drainBroadcast() {
	for {
		select {
		case message := <-h.Broadcast:
			h.handleMessage(message)
		default:
			return
		}
	}
}

// registerClient adds a client to a room and sends it the room state
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[client.RoomID] == nil {
		h.rooms[client.RoomID] = make(map[string]*Client)
	}

	h.roomConnectionIDs[client.RoomID]++
	client.ConnectionID = h.roomConnectionIDs[client.RoomID]

	if client.PinnedName != nil {
		client.presence.Name = client.PinnedName
	}

	others := h.othersLocked(client.RoomID, client.ID)
	h.rooms[client.RoomID][client.ID] = client
	h.dirty[client.RoomID] = struct{}{}

	logger.Info("client registered",
		"client_id", client.ID,
		"room_id", client.RoomID,
		"connection_id", client.ConnectionID,
		"room_size", len(h.rooms[client.RoomID]),
	)

	roomStateMsg, err := NewMessage(TypeRoomState, client.RoomID, client.ConnectionID, RoomStatePayload{
		ConnectionID: client.ConnectionID,
		Others:       others,
	})
	if err == nil {
		roomStateMsg.Sequence = h.roomSequences[client.RoomID]

		if sendErr := client.Send(roomStateMsg); sendErr != nil {
			logger.ErrorErr(sendErr, "failed to send room state",
				"client_id", client.ID,
				"room_id", client.RoomID,
			)
		}
	}

	userJoinedMsg, err := NewMessage(TypeUserJoined, client.RoomID, client.ConnectionID, UserJoinedPayload{
		ConnectionID: client.ConnectionID,
		Presence:     client.presence.Clone(),
	})
	if err == nil {
		h.broadcastToRoom(client.RoomID, userJoinedMsg, client.ID)
	}
}

// removes a client from the hub
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	roomClients, exists := h.rooms[client.RoomID]
	if !exists {
		return
	}

	if _, exists := roomClients[client.ID]; !exists {
		return
	}

	delete(roomClients, client.ID)
	client.Close()

	if client.IPAddress != "" {
		h.ipConnections[client.IPAddress]--

		if h.ipConnections[client.IPAddress] <= 0 {
			delete(h.ipConnections, client.IPAddress)
		}
	}

	h.dirty[client.RoomID] = struct{}{}

	logger.Info("client unregistered",
		"client_id", client.ID,
		"room_id", client.RoomID,
		"connection_id", client.ConnectionID,
	)

	if len(roomClients) == 0 {
		delete(h.rooms, client.RoomID)
		delete(h.roomSequences, client.RoomID)
		delete(h.roomConnectionIDs, client.RoomID)

		logger.Info("room has no more clients, removed",
			"room_id", client.RoomID,
		)

		return
	}

	userLeftMsg, err := NewMessage(TypeUserLeft, client.RoomID, client.ConnectionID, UserLeftPayload{
		ConnectionID: client.ConnectionID,
	})
	if err == nil {
		h.broadcastToRoom(client.RoomID, userLeftMsg, "")
	}
}

// processes an incoming message. handlers run on the hub goroutine so that
// updates from one sender reach the rest of the room in the order they were read.
func (h *Hub) handleMessage(msg *Message) {
	h.mu.RLock()

	roomClients, exists := h.rooms[msg.RoomID]
	if !exists {
		h.mu.RUnlock()
		logger.Warn("room not found for message",
			"room_id", msg.RoomID,
			"message_type", msg.Type,
		)
		return
	}

	sender, exists := roomClients[msg.ClientID]
	handler, handlerExists := h.handlers[msg.Type]
	h.mu.RUnlock()

	if !exists {
		logger.Warn("sender client not found for message",
			"client_id", msg.ClientID,
			"room_id", msg.RoomID,
			"message_type", msg.Type,
		)
		return
	}

	if !handlerExists {
		logger.Warn("unhandled message type received",
			"message_type", msg.Type,
			"client_id", sender.ID,
			"room_id", msg.RoomID,
		)

		sender.SendError("bad_request", "unsupported message type", "message type not recognized")
		return
	}

	// handlers report client-facing errors themselves
	if err := handler(h, sender, msg); err != nil {
		logger.Warn("handler error",
			"message_type", msg.Type,
			"client_id", sender.ID,
			"room_id", msg.RoomID,
			"error", err,
		)
	}
}

// merges a patch into the client's presence and sends the result to the rest of the room
func (h *Hub) UpdatePresence(client *Client, patch presence.Patch) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.rooms[client.RoomID][client.ID]; !exists {
		return
	}

	if client.PinnedName != nil {
		patch = patch.SetName(client.PinnedName)
	}

	client.presence = presence.Merge(client.presence, patch)
	h.dirty[client.RoomID] = struct{}{}

	msg, err := NewMessage(TypePresence, client.RoomID, client.ConnectionID, PresencePayload{
		ConnectionID: client.ConnectionID,
		Presence:     client.presence.Clone(),
	})
	if err != nil {
		logger.ErrorErr(err, "failed to create presence message",
			"client_id", client.ID,
			"room_id", client.RoomID,
		)
		return
	}

	h.broadcastToRoom(client.RoomID, msg, client.ID)
}

// relays a broadcast event from client to the rest of its room
func (h *Hub) RelayEvent(client *Client, ev presence.Event) {
	msg, err := NewMessage(TypeEvent, client.RoomID, client.ConnectionID, presence.EventMessage{
		ConnectionID: client.ConnectionID,
		Event:        ev,
	})
	if err != nil {
		logger.ErrorErr(err, "failed to create event message",
			"client_id", client.ID,
			"room_id", client.RoomID,
		)
		return
	}

	h.BroadcastToRoom(client.RoomID, msg, client.ID)
}

// sends a message to all clients in a room
func (h *Hub) BroadcastToRoom(roomID string, msg *Message, excludeClientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcastToRoom(roomID, msg, excludeClientID)
}

// the internal broadcast function (must be called with lock held)
func (h *Hub) broadcastToRoom(roomID string, msg *Message, excludeClientID string) {
	roomClients, exists := h.rooms[roomID]
	if !exists {
		return
	}

	// assign sequence number to message
	h.roomSequences[roomID]++
	msg.Sequence = h.roomSequences[roomID]

	for clientID, client := range roomClients {
		if clientID == excludeClientID {
			continue
		}

		if err := client.Send(msg); err != nil {
			logger.ErrorErr(err, "failed to send message to client",
				"client_id", clientID,
				"room_id", roomID,
			)
		}
	}
}

// others in a room sorted by connection id (must be called with lock held)
func (h *Hub) othersLocked(roomID, excludeClientID string) []presence.Other {
	roomClients := h.rooms[roomID]
	others := make([]presence.Other, 0, len(roomClients))

	for clientID, c := range roomClients {
		if clientID == excludeClientID {
			continue
		}

		others = append(others, presence.Other{
			ConnectionID: c.ConnectionID,
			Presence:     c.presence.Clone(),
		})
	}

	sort.Slice(others, func(i, j int) bool {
		return others[i].ConnectionID < others[j].ConnectionID
	})

	return others
}

// returns all clients in a room
func (h *Hub) GetRoomClients(roomID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	roomClients, exists := h.rooms[roomID]
	if !exists {
		return []*Client{}
	}

	clients := make([]*Client, 0, len(roomClients))

	for _, client := range roomClients {
		clients = append(clients, client)
	}

	return clients
}

// returns the number of clients in a room
func (h *Hub) GetClientCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

func (h *Hub) GetRoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// returns the IDs of rooms with at least one client
func (h *Hub) RoomIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.rooms))
	for roomID := range h.rooms {
		ids = append(ids, roomID)
	}

	return ids
}

// returns the current membership of a room for the snapshot store
func (h *Hub) Snapshot(roomID string) (*roomstore.Snapshot, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	roomClients, exists := h.rooms[roomID]
	if !exists || len(roomClients) == 0 {
		return nil, false
	}

	participants := make([]roomstore.Participant, 0, len(roomClients))

	for _, c := range roomClients {
		participants = append(participants, roomstore.Participant{
			ConnectionID: c.ConnectionID,
			Name:         c.presence.DisplayName(),
			Color:        c.presence.Color,
			IsExiting:    c.presence.IsExiting,
		})
	}

	sort.Slice(participants, func(i, j int) bool {
		return participants[i].ConnectionID < participants[j].ConnectionID
	})

	return &roomstore.Snapshot{
		RoomID:       roomID,
		Participants: participants,
		UpdatedAt:    time.Now().UTC(),
	}, true
}

// returns and resets the set of rooms changed since the last call
func (h *Hub) TakeDirty() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	ids := make([]string, 0, len(h.dirty))
	for roomID := range h.dirty {
		ids = append(ids, roomID)
	}

	h.dirty = make(map[string]struct{})
	return ids
}

// stops the hub; safe to call more than once
func (h *Hub) Shutdown() {
	h.shutdownOnce.Do(func() {
		close(h.shutdown)
	})
}

// closed once the hub loop has exited
func (h *Hub) Done() <-chan struct{} {
	return h.stopped
}

func (h *Hub) closeAllConnections() {
	h.mu.Lock()

	logger.Info("notifying clients of server shutdown")

	// send shutdown notification to all clients first
	for roomID, roomClients := range h.rooms {
		shutdownMsg, err := NewMessage(TypeServerShutdown, roomID, 0, ServerShutdownPayload{
			Reason: "server is shutting down",
		})
		if err != nil {
			logger.ErrorErr(err, "failed to create shutdown message")
			continue
		}

		for _, client := range roomClients {
			if err := client.Send(shutdownMsg); err != nil {
				logger.ErrorErr(err, "failed to send shutdown notification",
					"client_id", client.ID,
					"room_id", roomID,
				)
			}
		}
	}

	h.mu.Unlock()

	// give clients time to receive the shutdown message
	time.Sleep(h.shutdownGrace)

	h.mu.Lock()
	defer h.mu.Unlock()

	logger.Info("closing all websocket connections")

	for roomID, roomClients := range h.rooms {
		for clientID, client := range roomClients {
			client.Close()
			logger.Debug("closed client",
				"client_id", clientID,
				"room_id", roomID,
			)
		}

		h.dirty[roomID] = struct{}{}
	}

	// clear all rooms and connection tracking
	h.rooms = make(map[string]map[string]*Client)
	h.ipConnections = make(map[string]int)
	h.roomSequences = make(map[string]uint64)
	h.roomConnectionIDs = make(map[string]int)
}

// checks if a new connection should be allowed based on limits
func (h *Hub) CanAcceptConnection(roomID, ipAddress string) (bool, string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.rooms[roomID]) >= maxClientsPerRoom {
		return false, "room is full"
	}

	if h.ipConnections[ipAddress] >= maxConnectionsPerIP {
		return false, "maximum connections per IP address exceeded"
	}

	return true, ""
}

// increments the connection count for an IP address
func (h *Hub) TrackIPConnection(ipAddress string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ipConnections[ipAddress]++
}

// decrements the connection count for an IP address
func (h *Hub) UntrackIPConnection(ipAddress string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ipConnections[ipAddress]--

	if h.ipConnections[ipAddress] <= 0 {
		delete(h.ipConnections, ipAddress)
	}
}
