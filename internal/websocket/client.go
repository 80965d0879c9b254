package websocket

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	apperrors "codeberg.org/portfolio/presence/internal/errors"
	"codeberg.org/portfolio/presence/internal/logger"
	"codeberg.org/portfolio/presence/internal/presence"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// creates a new websocket client connection
func NewClient(id, roomID, ipAddress string, pinnedName *string, initial presence.Presence, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		ID:                 id,
		RoomID:             roomID,
		PinnedName:         pinnedName,
		IPAddress:          ipAddress,
		conn:               conn,
		hub:                hub,
		send:               make(chan []byte, 256),
		closed:             false,
		presence:           initial,
		presenceTimestamps: make([]time.Time, 0, maxPresenceUpdatesPerSecond),
		eventLimiter:       rate.NewLimiter(rate.Limit(eventsPerSecond), eventBurst),
	}
}

// reads messages from the websocket connection to the hub for processing
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister <- c
		c.conn.Close() //nolint:errcheck,gosec // G104: defer cleanup
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck,gosec // G104: websocket setup
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck,gosec // G104: pong handler
		return nil
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket error",
					"client_id", c.ID,
					"room_id", c.RoomID,
					"error", err,
				)
			}

			break
		}

		// clients may batch several messages in one frame, one per line
		for _, line := range bytes.Split(messageBytes, []byte{'\n'}) {
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}

			var msg Message
			if err := json.Unmarshal(line, &msg); err != nil {
				logger.Debug("failed to unmarshal message",
					"client_id", c.ID,
					"room_id", c.RoomID,
					"error", err,
				)

				c.SendError(apperrors.CodeBadRequest, "invalid message format", err.Error())
				continue
			}

			// room and client come from the connection, never from the payload
			msg.RoomID = c.RoomID
			msg.ClientID = c.ID
			msg.Timestamp = time.Now()

			// forward to hub for processing
			c.hub.Broadcast <- &msg
		}
	}
}

// writes messages from the hub to the websocket connection for sending to the client
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.conn.Close() //nolint:errcheck,gosec // G104: defer cleanup
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck,gosec // G104: websocket timing

			if !ok {
				// hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck,gosec // G104: close message
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}

			w.Write(message) //nolint:errcheck,gosec // G104: websocket write

			// add queued messages to the current websocket message
			n := len(c.send)

			for range n {
				w.Write([]byte{'\n'}) //nolint:errcheck,gosec // G104: websocket write
				w.Write(<-c.send)     //nolint:errcheck,gosec // G104: websocket write
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck,gosec // G104: websocket ping timing

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sends a message to the client
func (c *Client) Send(msg *Message) (err error) {
	// recover from panic if channel is closed
	defer func() {
		if r := recover(); r != nil {
			err = ErrConnectionClosed
		}
	}()

	c.mu.RLock()

	if c.closed {
		c.mu.RUnlock()
		return ErrConnectionClosed
	}

	c.mu.RUnlock()

	messageBytes, marshalErr := json.Marshal(msg)
	if marshalErr != nil {
		return marshalErr
	}

	select {
	case c.send <- messageBytes:
		return nil
	default:
		// channel is full, send error directly to websocket before closing
		c.sendBufferOverflowError()
		c.Close()
		return ErrConnectionClosed
	}
}

// sends buffer overflow error directly to websocket (bypassing the full channel)
func (c *Client) sendBufferOverflowError() {
	if c.conn == nil {
		return
	}

	errorMsg, err := NewMessage(TypeError, c.RoomID, c.ConnectionID, apperrors.ErrorResponse{
		Error:   apperrors.CodeBufferOverflow,
		Message: "message buffer full, connection will be closed",
		Details: "too many messages queued, please reconnect",
	})
	if err != nil {
		return
	}

	errorBytes, err := json.Marshal(errorMsg)
	if err != nil {
		return
	}

	// write directly to websocket with short deadline
	c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck,gosec
	c.conn.WriteMessage(websocket.TextMessage, errorBytes)   //nolint:errcheck,gosec
}

// sends an error message to the client
func (c *Client) SendError(code, message, details string) {
	// sanitize error details in production
	sanitizedDetails := details

	if details != "" {
		sanitizedDetails = apperrors.SanitizeError(fmt.Errorf("%s", details))
	}

	errorMsg, err := NewMessage(TypeError, c.RoomID, c.ConnectionID, apperrors.ErrorResponse{
		Error:   code,
		Message: message,
		Details: sanitizedDetails,
	})
	if err != nil {
		logger.ErrorErr(err, "failed to create error message",
			"client_id", c.ID,
			"room_id", c.RoomID,
			"error_code", code,
		)
		return
	}

	c.Send(errorMsg) //nolint:errcheck,gosec // G104: best effort error notification
}

// closes the client connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// checks if the client is closed
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.closed
}

// checks if the client can publish another presence update
func (c *Client) checkPresenceRateLimit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	oneSecondAgo := now.Add(-1 * time.Second)

	// remove timestamps older than 1 second
	validTimestamps := make([]time.Time, 0, maxPresenceUpdatesPerSecond)

	for _, ts := range c.presenceTimestamps {
		if ts.After(oneSecondAgo) {
			validTimestamps = append(validTimestamps, ts)
		}
	}

	c.presenceTimestamps = validTimestamps

	// check if we've exceeded the limit
	if len(c.presenceTimestamps) >= maxPresenceUpdatesPerSecond {
		return false
	}

	// add current timestamp
	c.presenceTimestamps = append(c.presenceTimestamps, now)
	return true
}

// checks if the client can send another broadcast event
func (c *Client) checkEventRateLimit() bool {
	return c.eventLimiter.Allow()
}
