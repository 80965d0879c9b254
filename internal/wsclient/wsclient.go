package wsclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"codeberg.org/portfolio/presence/internal/channel"
	"codeberg.org/portfolio/presence/internal/logger"
	"codeberg.org/portfolio/presence/internal/presence"
	ws "codeberg.org/portfolio/presence/internal/websocket"
	"github.com/gorilla/websocket"
)

const (
	// how long Connect waits for room_state
	joinTimeout = 10 * time.Second

	// time allowed to write one message
	writeWait = 10 * time.Second

	// time allowed to flush the last presence while disconnecting
	flushWait = time.Second

	// application-level keepalive
	pingInterval = 30 * time.Second

	// outbound events waiting to be written
	eventQueueSize = 32
)

// joins rooms on a presence server over websocket
type Connector struct {
	endpoint string
	token    string
	dialer   *websocket.Dialer
}

// creates a connector for a ws:// or wss:// endpoint such as ws://host/api/v1/ws.
// token is an optional identity token.
func New(endpoint, token string) *Connector {
	return &Connector{
		endpoint: endpoint,
		token:    token,
		dialer:   websocket.DefaultDialer,
	}
}

// dials the server, waits for room_state and publishes the initial presence
func (c *Connector) Connect(ctx context.Context, roomID string, initial presence.Presence) (channel.Room, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid presence endpoint: %w", err)
	}

	q := u.Query()
	q.Set("room", roomID)

	if c.token != "" {
		q.Set("token", c.token)
	} else if initial.Name != nil {
		q.Set("name", *initial.Name)
	}

	u.RawQuery = q.Encode()

	conn, resp, err := c.dialer.DialContext(ctx, u.String(), nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close() //nolint:errcheck,gosec // handshake body is not used
	}

	if err != nil {
		return nil, fmt.Errorf("failed to dial presence server: %w", err)
	}

	r := &room{
		State:   channel.NewState(roomID, initial),
		conn:    conn,
		wake:    make(chan struct{}, 1),
		events:  make(chan presence.Event, eventQueueSize),
		done:    make(chan struct{}),
		pending: presence.SnapshotPatch(initial),
	}

	if err := r.join(ctx); err != nil {
		conn.Close() //nolint:errcheck,gosec // join failed
		return nil, err
	}

	r.wg.Add(2)
	go r.readLoop()
	go r.writeLoop()

	r.signal()

	logger.Info("joined presence room",
		"room_id", roomID,
		"connection_id", r.ConnectionID(),
		"others", len(r.Others()),
	)

	return r, nil
}

type room struct {
	*channel.State

	conn *websocket.Conn

	// pending presence, coalesced until the writer picks it up
	mu      sync.Mutex
	pending presence.Patch

	wake   chan struct{}
	events chan presence.Event

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func (r *room) join(ctx context.Context) error {
	deadline := time.Now().Add(joinTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	r.conn.SetReadDeadline(deadline) //nolint:errcheck,gosec // reset after join

	for {
		_, data, err := r.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("failed to join room: %w", err)
		}

		for _, msg := range splitMessages(data) {
			if msg.Type == ws.TypeError {
				return fmt.Errorf("presence server refused join: %s", msg.Payload)
			}

			if msg.Type != ws.TypeRoomState {
				continue
			}

			var state ws.RoomStatePayload
			if err := msg.UnmarshalPayload(&state); err != nil {
				return err
			}

			r.SetConnectionID(state.ConnectionID)
			r.SetOthers(state.Others)
			r.conn.SetReadDeadline(time.Time{}) //nolint:errcheck,gosec // no deadline while joined

			return nil
		}
	}
}

func (r *room) UpdateOwnPresence(patch presence.Patch) {
	if r.Closed() || len(patch) == 0 {
		return
	}

	r.MergeSelf(patch)

	r.mu.Lock()
	r.pending = r.pending.Combine(patch)
	r.mu.Unlock()

	r.signal()
}

func (r *room) Broadcast(ev presence.Event) {
	if r.Closed() {
		return
	}

	select {
	case r.events <- ev:
	default:
		logger.Debug("dropping outbound event, queue is full",
			"room_id", r.ID(),
			"kind", ev.Kind,
		)
	}
}

func (r *room) Disconnect() {
	r.shutdown()
	r.wg.Wait()
}

// stops both loops; the writer flushes and closes the connection on its way out
func (r *room) shutdown() {
	r.closeOnce.Do(func() {
		close(r.done)
		r.State.Close()
	})
}

func (r *room) signal() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *room) readLoop() {
	defer r.wg.Done()
	defer r.shutdown()

	for {
		_, data, err := r.conn.ReadMessage()
		if err != nil {
			select {
			case <-r.done:
			default:
				logger.Warn("presence connection lost", "room_id", r.ID(), "error", err)
			}

			return
		}

		for _, msg := range splitMessages(data) {
			r.apply(msg)
		}
	}
}

func (r *room) apply(msg ws.Message) {
	switch msg.Type {
	case ws.TypePresence, ws.TypeUserJoined:
		var payload ws.PresencePayload
		if err := msg.UnmarshalPayload(&payload); err != nil {
			logger.Debug("ignoring malformed presence", "room_id", r.ID(), "error", err)
			return
		}

		r.PutOther(payload.ConnectionID, payload.Presence)

	case ws.TypeUserLeft:
		var payload ws.UserLeftPayload
		if err := msg.UnmarshalPayload(&payload); err != nil {
			return
		}

		r.RemoveOther(payload.ConnectionID)

	case ws.TypeEvent:
		var payload presence.EventMessage
		if err := msg.UnmarshalPayload(&payload); err != nil || payload.Event.Validate() != nil {
			logger.Debug("ignoring malformed event", "room_id", r.ID())
			return
		}

		r.Deliver(payload)

	case ws.TypeRoomState:
		var payload ws.RoomStatePayload
		if err := msg.UnmarshalPayload(&payload); err == nil {
			r.SetOthers(payload.Others)
		}

	case ws.TypeError:
		logger.Warn("presence server error", "room_id", r.ID(), "payload", string(msg.Payload))

	case ws.TypeServerShutdown:
		logger.Info("presence server shutting down", "room_id", r.ID())

	case ws.TypePong:
	}
}

func (r *room) writeLoop() {
	defer r.wg.Done()
	defer r.conn.Close() //nolint:errcheck,gosec // unblocks the reader

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			r.flush()
			return

		case <-r.wake:
			r.mu.Lock()
			patch := r.pending
			r.pending = nil
			r.mu.Unlock()

			if len(patch) == 0 {
				continue
			}

			if !r.write(ws.TypePresenceUpdate, patch) {
				return
			}

		case ev := <-r.events:
			if !r.write(ws.TypeBroadcastEvent, ev) {
				return
			}

		case <-ticker.C:
			if !r.write(ws.TypePing, struct{}{}) {
				return
			}
		}
	}
}

// writes whatever presence is still pending (the exiting flag, usually) and says goodbye
func (r *room) flush() {
	r.mu.Lock()
	patch := r.pending
	r.pending = nil
	r.mu.Unlock()

	deadline := time.Now().Add(flushWait)

	if len(patch) > 0 {
		if err := r.send(ws.TypePresenceUpdate, patch, deadline); err != nil {
			logger.Debug("failed to flush presence", "room_id", r.ID(), "error", err)
		}
	}

	r.conn.WriteControl(websocket.CloseMessage, //nolint:errcheck,gosec // best-effort close frame
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		deadline)
}

func (r *room) send(msgType string, payload any, deadline time.Time) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", msgType, err)
	}

	msg := ws.Message{Type: msgType, RoomID: r.ID(), Timestamp: time.Now(), Payload: data}

	r.conn.SetWriteDeadline(deadline) //nolint:errcheck,gosec // write timing
	return r.conn.WriteJSON(msg)
}

func (r *room) write(msgType string, payload any) bool {
	if err := r.send(msgType, payload, time.Now().Add(writeWait)); err != nil {
		select {
		case <-r.done:
		default:
			logger.Warn("failed to write to presence server", "room_id", r.ID(), "error", err)
		}

		r.shutdown()
		return false
	}

	return true
}

// the server batches queued messages into one frame, one per line
func splitMessages(data []byte) []ws.Message {
	lines := bytes.Split(data, []byte{'\n'})
	out := make([]ws.Message, 0, len(lines))

	for _, line := range lines {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var msg ws.Message
		if err := json.Unmarshal(line, &msg); err != nil {
			logger.Debug("ignoring malformed message", "error", err)
			continue
		}

		out = append(out, msg)
	}

	return out
}
