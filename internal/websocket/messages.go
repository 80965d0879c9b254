package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// creates a message with a JSON-encoded payload
func NewMessage(msgType, roomID string, connectionID int, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", msgType, err)
	}

	return &Message{
		Type:         msgType,
		RoomID:       roomID,
		ConnectionID: connectionID,
		Timestamp:    time.Now(),
		Payload:      data,
	}, nil
}

// decodes the payload into v
func (m *Message) UnmarshalPayload(v any) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("%w: empty payload", ErrInvalidMessage)
	}

	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	return nil
}
