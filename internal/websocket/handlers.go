package websocket

import (
	apperrors "codeberg.org/portfolio/presence/internal/errors"
	"codeberg.org/portfolio/presence/internal/logger"
	"codeberg.org/portfolio/presence/internal/presence"
)

// handles partial presence updates
func PresenceUpdateHandler() MessageHandler {
	return func(hub *Hub, client *Client, msg *Message) error {
		// presence is lossy: a newer snapshot follows within a frame
		if !client.checkPresenceRateLimit() {
			return ErrRateLimitExceeded
		}

		if len(msg.Payload) > maxPayloadSize {
			client.SendError(apperrors.CodeBadRequest, "presence update exceeds maximum size", "")
			return ErrPayloadTooLarge
		}

		patch, err := presence.ParsePatch(msg.Payload)
		if err != nil {
			client.SendError(apperrors.CodeValidationError, "failed to parse presence update", err.Error())
			return err
		}

		if len(patch) == 0 {
			return nil
		}

		hub.UpdatePresence(client, patch)
		return nil
	}
}

// handles ephemeral broadcast events (ripples, confetti)
func BroadcastEventHandler() MessageHandler {
	return func(hub *Hub, client *Client, msg *Message) error {
		if !client.checkEventRateLimit() {
			client.SendError(apperrors.CodeTooManyRequests, "too many events. maximum 20 per second.", "")
			return ErrRateLimitExceeded
		}

		if len(msg.Payload) > maxPayloadSize {
			client.SendError(apperrors.CodeBadRequest, "event exceeds maximum size", "")
			return ErrPayloadTooLarge
		}

		var ev presence.Event
		if err := msg.UnmarshalPayload(&ev); err != nil {
			client.SendError(apperrors.CodeValidationError, "failed to parse event", err.Error())
			return err
		}

		if err := ev.Validate(); err != nil {
			client.SendError(apperrors.CodeValidationError, "invalid event", err.Error())
			return err
		}

		hub.RelayEvent(client, ev)

		logger.Debug("event relayed",
			"client_id", client.ID,
			"room_id", client.RoomID,
			"kind", ev.Kind,
		)

		return nil
	}
}

// answers keepalive pings
func PingHandler() MessageHandler {
	return func(_ *Hub, client *Client, _ *Message) error {
		pong, err := NewMessage(TypePong, client.RoomID, client.ConnectionID, struct{}{})
		if err != nil {
			return err
		}

		return client.Send(pong)
	}
}
