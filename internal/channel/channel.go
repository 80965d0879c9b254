package channel

import (
	"context"
	"errors"

	"codeberg.org/portfolio/presence/internal/presence"
)

var ErrDisconnected = errors.New("room disconnected")

// establishes room membership
type Connector interface {
	Connect(ctx context.Context, roomID string, initial presence.Presence) (Room, error)
}

// one membership in one room. writes are fire-and-forget; reads never block.
type Room interface {
	ID() string

	// connection id assigned by the service, stable for this membership
	ConnectionID() int

	// shallow-merges patch into own presence and publishes it
	UpdateOwnPresence(patch presence.Patch)

	// merged local view of own presence
	Self() presence.Presence

	// other participants sorted by connection id; empty while disconnected
	Others() []presence.Other

	// sends a one-shot event to the other participants
	Broadcast(ev presence.Event)

	// events from other participants
	Events() <-chan presence.EventMessage

	// signalled (coalesced) whenever Others may have changed
	Changes() <-chan struct{}

	Disconnect()
}
