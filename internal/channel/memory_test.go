package channel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/portfolio/presence/internal/presence"
)

const homeRoom = "portfolio-room-home"

func connect(t *testing.T, broker *Memory, roomID, name string) Room {
	t.Helper()

	room, err := broker.Connect(context.Background(), roomID, presence.Presence{Name: presence.Ptr(name)})
	require.NoError(t, err)
	t.Cleanup(room.Disconnect)

	return room
}

func TestMemoryPresenceReachesOthers(t *testing.T) {
	broker := NewMemory()

	a := connect(t, broker, homeRoom, "Ada")
	b := connect(t, broker, homeRoom, "Grace")

	assert.Equal(t, 1, a.ConnectionID())
	assert.Equal(t, 2, b.ConnectionID())

	a.UpdateOwnPresence(presence.Patch{}.SetCursor(&presence.Cursor{X: 100, Y: 100, PageX: 100, PageY: 100}))

	others := b.Others()
	require.Len(t, others, 1)
	assert.Equal(t, 1, others[0].ConnectionID)
	require.NotNil(t, others[0].Presence.Cursor)
	assert.Equal(t, 100.0, others[0].Presence.Cursor.PageX)
	assert.Equal(t, "Ada", others[0].Presence.DisplayName())

	// own view is merged, not replaced
	assert.Equal(t, "Ada", a.Self().DisplayName())
	require.NotNil(t, a.Self().Cursor)

	select {
	case <-b.Changes():
	default:
		t.Fatal("expected a change notification")
	}
}

func TestMemoryRoomsAreIsolated(t *testing.T) {
	broker := NewMemory()

	a := connect(t, broker, homeRoom, "Ada")
	b := connect(t, broker, "portfolio-room-blog", "Grace")

	a.UpdateOwnPresence(presence.Patch{}.SetClicking(true))
	a.Broadcast(presence.NewConfettiEvent(1, 2))

	assert.Empty(t, b.Others())

	select {
	case ev := <-b.Events():
		t.Fatalf("unexpected event %v", ev)
	default:
	}
}

func TestMemoryBroadcastSkipsSender(t *testing.T) {
	broker := NewMemory()

	a := connect(t, broker, homeRoom, "Ada")
	b := connect(t, broker, homeRoom, "Grace")

	a.Broadcast(presence.NewConfettiEvent(10, 20))

	select {
	case ev := <-b.Events():
		assert.Equal(t, a.ConnectionID(), ev.ConnectionID)
		assert.Equal(t, presence.EventConfetti, ev.Event.Kind)
	case <-time.After(time.Second):
		t.Fatal("b did not receive the event")
	}

	select {
	case ev := <-a.Events():
		t.Fatalf("sender received its own event %v", ev)
	default:
	}
}

func TestMemoryDisconnectRemovesParticipant(t *testing.T) {
	broker := NewMemory()

	a := connect(t, broker, homeRoom, "Ada")
	b := connect(t, broker, homeRoom, "Grace")
	require.Len(t, a.Others(), 1)

	b.Disconnect()
	b.Disconnect()

	assert.Empty(t, a.Others())
	assert.Empty(t, b.Others())
	assert.Equal(t, 1, broker.Size(homeRoom))

	// writes after disconnect are ignored
	b.UpdateOwnPresence(presence.Patch{}.SetClicking(true))
	b.Broadcast(presence.NewConfettiEvent(0, 0))

	_, open := <-b.Events()
	assert.False(t, open)
}

func TestMemoryConnectHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemory().Connect(ctx, homeRoom, presence.Presence{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSwitcherLeavesPreviousRoom(t *testing.T) {
	broker := NewMemory()
	watcher := connect(t, broker, homeRoom, "Watcher")

	switcher := NewSwitcher(broker)
	defer switcher.Close()

	first, err := switcher.Switch(context.Background(), homeRoom, presence.Presence{Name: presence.Ptr("Ada")})
	require.NoError(t, err)
	first.UpdateOwnPresence(presence.Patch{}.SetCursor(&presence.Cursor{PageX: 5, PageY: 5}))
	require.Len(t, watcher.Others(), 1)

	second, err := switcher.Switch(context.Background(), "portfolio-room-blog", presence.Presence{Name: presence.Ptr("Ada")})
	require.NoError(t, err)

	assert.Empty(t, watcher.Others())
	assert.Equal(t, "portfolio-room-blog", switcher.Current().ID())
	assert.Nil(t, second.Self().Cursor)

	switcher.Close()
	assert.Nil(t, switcher.Current())
	assert.Equal(t, 0, broker.Size("portfolio-room-blog"))
}

func TestStateIgnoresOwnConnection(t *testing.T) {
	state := NewState(homeRoom, presence.Presence{})
	state.SetConnectionID(3)

	state.PutOther(3, presence.Presence{IsClicking: true})
	state.SetOthers([]presence.Other{{ConnectionID: 3}, {ConnectionID: 1}})

	others := state.Others()
	require.Len(t, others, 1)
	assert.Equal(t, 1, others[0].ConnectionID)

	state.Close()
	state.Close()
	assert.Empty(t, state.Others())
}
