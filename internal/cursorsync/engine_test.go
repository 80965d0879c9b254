package cursorsync

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/portfolio/presence/internal/channel"
	"codeberg.org/portfolio/presence/internal/localstate"
	"codeberg.org/portfolio/presence/internal/presence"
)

const homeRoom = "portfolio-room-home"

var viewport = Viewport{ScrollX: 0, ScrollY: 200, Width: 1000, Height: 800}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

type burstRecorder struct {
	mu     sync.Mutex
	bursts []Burst
}

func (r *burstRecorder) record(b Burst) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bursts = append(r.bursts, b)
}

func (r *burstRecorder) all() []Burst {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Burst(nil), r.bursts...)
}

func joinRoom(t *testing.T, broker *channel.Memory, name string) channel.Room {
	t.Helper()

	room, err := broker.Connect(context.Background(), homeRoom, presence.Presence{Name: presence.Ptr(name)})
	require.NoError(t, err)
	t.Cleanup(room.Disconnect)

	return room
}

func otherPresence(t *testing.T, room channel.Room, connectionID int) presence.Presence {
	t.Helper()

	for _, o := range room.Others() {
		if o.ConnectionID == connectionID {
			return o.Presence
		}
	}

	t.Fatalf("connection %d not visible", connectionID)
	return presence.Presence{}
}

func TestEngineStateMachine(t *testing.T) {
	broker := channel.NewMemory()
	room := joinRoom(t, broker, "Ada")
	clk := newClock()

	e := New(room, nil, Options{Now: clk.Now})
	assert.Equal(t, NotMoved, e.State())

	// nothing is published before the first move
	e.Tick(clk.Now(), viewport)
	assert.Nil(t, room.Self().Cursor)

	e.PointerMove(10, 20)
	assert.Equal(t, Active, e.State())

	e.SetVisible(false)
	assert.Equal(t, IdleHidden, e.State())
	assert.True(t, room.Self().IsExiting)

	e.SetVisible(true)
	assert.Equal(t, Active, e.State())
	assert.False(t, room.Self().IsExiting)

	e.PointerLeave()
	assert.Equal(t, IdleHidden, e.State())

	e.PointerEnter()
	assert.Equal(t, Active, e.State())

	e.BeforeUnload()
	assert.Equal(t, Exiting, e.State())
	assert.True(t, room.Self().IsExiting)

	// terminal
	e.PointerMove(50, 50)
	e.SetVisible(true)
	assert.Equal(t, Exiting, e.State())
}

func TestEngineTickPublishesDerivedCoordinates(t *testing.T) {
	broker := channel.NewMemory()
	a := joinRoom(t, broker, "Ada")
	b := joinRoom(t, broker, "Grace")
	clk := newClock()

	e := New(a, nil, Options{Now: clk.Now, Name: presence.Ptr("Ada"), Color: "#E57373"})

	e.PointerMove(250, 400)
	e.Tick(clk.Now(), viewport)

	p := otherPresence(t, b, a.ConnectionID())
	require.NotNil(t, p.Cursor)
	assert.Equal(t, 250.0, p.Cursor.X)
	assert.Equal(t, 400.0, p.Cursor.Y)
	assert.Equal(t, 250.0, p.Cursor.PageX)
	assert.Equal(t, 600.0, p.Cursor.PageY)
	require.NotNil(t, p.Cursor.XPercent)
	assert.InDelta(t, 0.25, *p.Cursor.XPercent, 1e-9)
	assert.InDelta(t, 0.5, *p.Cursor.YPercent, 1e-9)
	assert.Equal(t, "Ada", p.DisplayName())
	assert.Equal(t, "#E57373", p.Color)

	// a hidden tab keeps its position
	e.SetVisible(false)
	p = otherPresence(t, b, a.ConnectionID())
	require.NotNil(t, p.Cursor)
	assert.True(t, p.IsExiting)
	assert.Equal(t, 250.0, p.Cursor.X)
}

func TestEngineClicking(t *testing.T) {
	broker := channel.NewMemory()
	room := joinRoom(t, broker, "Ada")
	clk := newClock()

	e := New(room, nil, Options{Now: clk.Now})

	e.PointerDown(5, 5, false)
	e.Tick(clk.Now(), viewport)
	assert.True(t, room.Self().IsClicking)
	assert.False(t, room.Self().IsThrowingConfetti)

	e.PointerUp()
	e.Tick(clk.Now(), viewport)
	assert.False(t, room.Self().IsClicking)
}

func TestEngineConfettiClearsItself(t *testing.T) {
	broker := channel.NewMemory()
	a := joinRoom(t, broker, "Ada")
	b := joinRoom(t, broker, "Grace")
	clk := newClock()
	rec := &burstRecorder{}

	e := New(a, nil, Options{Now: clk.Now, OnBurst: rec.record})

	e.PointerMove(100, 100)
	e.Tick(clk.Now(), viewport)
	e.PointerDown(100, 100, true)

	// the local burst renders before any tick
	bursts := rec.all()
	require.Len(t, bursts, 1)
	assert.True(t, bursts[0].Local)
	assert.Equal(t, 100.0, bursts[0].X)

	select {
	case msg := <-b.Events():
		assert.Equal(t, presence.EventConfetti, msg.Event.Kind)
		assert.Equal(t, 300.0, msg.Event.Confetti.PageY)
	default:
		t.Fatal("confetti event not broadcast")
	}

	e.Tick(clk.Now(), viewport)
	assert.True(t, a.Self().IsThrowingConfetti)

	e.PointerUp()
	e.Tick(clk.Advance(300*time.Millisecond), viewport)
	assert.True(t, a.Self().IsThrowingConfetti)

	e.Tick(clk.Advance(200*time.Millisecond), viewport)
	assert.False(t, a.Self().IsThrowingConfetti)
	assert.False(t, otherPresence(t, b, a.ConnectionID()).IsThrowingConfetti)
}

func TestEngineConfettiRearmResetsDeadline(t *testing.T) {
	broker := channel.NewMemory()
	room := joinRoom(t, broker, "Ada")
	clk := newClock()

	e := New(room, nil, Options{Now: clk.Now})

	e.PointerDown(1, 1, true)
	clk.Advance(400 * time.Millisecond)
	e.PointerDown(1, 1, true)

	e.Tick(clk.Advance(200*time.Millisecond), viewport)
	assert.True(t, room.Self().IsThrowingConfetti)

	e.Tick(clk.Advance(300*time.Millisecond), viewport)
	assert.False(t, room.Self().IsThrowingConfetti)
}

func TestEngineRunClearsConfettiWithoutInput(t *testing.T) {
	broker := channel.NewMemory()
	room := joinRoom(t, broker, "Ada")

	e := New(room, nil, Options{})
	e.PointerDown(10, 10, true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		e.Run(ctx, 5*time.Millisecond, func() Viewport { return viewport })
		close(done)
	}()

	require.Eventually(t, func() bool {
		return room.Self().IsThrowingConfetti
	}, 200*time.Millisecond, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		return !room.Self().IsThrowingConfetti
	}, 600*time.Millisecond, 5*time.Millisecond)

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("run loop did not stop")
	}
}

func TestEngineTouchNeverPublishesCursor(t *testing.T) {
	broker := channel.NewMemory()
	a := joinRoom(t, broker, "Ada")
	b := joinRoom(t, broker, "Grace")
	clk := newClock()

	store := localstate.NewCursorStore(localstate.NewMemoryStore())
	store.SaveCursorPosition(localstate.Position{X: 1, Y: 2})

	e := New(a, store, Options{Touch: true, Now: clk.Now})
	assert.Nil(t, e.Restored())

	e.PointerMove(10, 10)
	e.PointerDown(10, 10, true)
	e.PointerUp()
	e.SetVisible(false)
	e.SetVisible(true)
	e.Tick(clk.Advance(time.Second), viewport)
	e.BeforeUnload()

	assert.Equal(t, NotMoved, e.State())
	assert.Nil(t, a.Self().Cursor)
	assert.Nil(t, otherPresence(t, b, a.ConnectionID()).Cursor)
	assert.Nil(t, e.Presence().Cursor)
	assert.Empty(t, e.RemoteCursors(b.Others(), viewport))
}

func TestEngineBeforeUnloadSavesPosition(t *testing.T) {
	broker := channel.NewMemory()
	store := localstate.NewCursorStore(localstate.NewMemoryStore())
	clk := newClock()

	first := joinRoom(t, broker, "Ada")
	e := New(first, store, Options{Now: clk.Now})
	assert.Nil(t, e.Restored())

	e.PointerMove(120, 80)
	e.Tick(clk.Now(), viewport)
	e.BeforeUnload()

	second := joinRoom(t, broker, "Ada")
	next := New(second, store, Options{Now: clk.Now})

	restored := next.Restored()
	require.NotNil(t, restored)
	assert.Equal(t, localstate.Position{X: 120, Y: 80}, *restored)

	// the restored cursor is only visual
	next.Tick(clk.Now(), viewport)
	assert.Nil(t, second.Self().Cursor)

	next.PointerMove(1, 1)
	assert.Nil(t, next.Restored())
}

func TestRenderPosition(t *testing.T) {
	c := presence.Cursor{X: 10, Y: 20, PageX: 110, PageY: 520}

	tests := []struct {
		name    string
		local   bool
		scrollX float64
		scrollY float64
		wantX   float64
		wantY   float64
	}{
		{name: "local uses viewport coordinates", local: true, scrollX: 50, scrollY: 50, wantX: 10, wantY: 20},
		{name: "remote without scroll", wantX: 110, wantY: 520},
		{name: "remote subtracts viewer scroll", scrollX: 100, scrollY: 500, wantX: 10, wantY: 20},
		{name: "remote may land off screen", scrollY: 1000, wantX: 110, wantY: -480},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := RenderPosition(c, tt.local, tt.scrollX, tt.scrollY)
			assert.Equal(t, tt.wantX, x)
			assert.Equal(t, tt.wantY, y)
		})
	}
}

func TestRemoteCursors(t *testing.T) {
	broker := channel.NewMemory()
	room := joinRoom(t, broker, "Ada")
	clk := newClock()
	rec := &burstRecorder{}

	e := New(room, nil, Options{Now: clk.Now, OnBurst: rec.record, ExitAnimation: 200 * time.Millisecond})

	cursor := &presence.Cursor{PageX: 300, PageY: 700}
	others := []presence.Other{
		{ConnectionID: 2, Presence: presence.Presence{Name: presence.Ptr("Grace"), Color: "#4DB6AC", Cursor: cursor}},
		{ConnectionID: 3, Presence: presence.Presence{Name: presence.Ptr("Linus")}},
	}

	views := e.RemoteCursors(others, viewport)
	require.Len(t, views, 1)
	assert.Equal(t, 2, views[0].ConnectionID)
	assert.Equal(t, "Grace", views[0].Name)
	assert.Equal(t, 300.0, views[0].X)
	assert.Equal(t, 500.0, views[0].Y)
	assert.Equal(t, 1.0, views[0].Opacity)
	assert.Empty(t, rec.all())

	// rising edge of the confetti flag renders one burst
	others[0].Presence.IsThrowingConfetti = true
	e.RemoteCursors(others, viewport)
	e.RemoteCursors(others, viewport)

	bursts := rec.all()
	require.Len(t, bursts, 1)
	assert.Equal(t, 2, bursts[0].ConnectionID)
	assert.False(t, bursts[0].Local)
	assert.Equal(t, 500.0, bursts[0].Y)

	// exit animation eases out
	others[0].Presence.IsExiting = true
	views = e.RemoteCursors(others, viewport)
	assert.True(t, views[0].Exiting)
	assert.Equal(t, 1.0, views[0].Opacity)

	clk.Advance(100 * time.Millisecond)
	views = e.RemoteCursors(others, viewport)
	assert.InDelta(t, 0.5, views[0].Opacity, 1e-9)
	assert.InDelta(t, 0.75, views[0].Scale, 1e-9)

	clk.Advance(time.Second)
	views = e.RemoteCursors(others, viewport)
	assert.Equal(t, 0.0, views[0].Opacity)
	assert.Equal(t, 0.5, views[0].Scale)

	// a participant that comes back starts fresh
	others[0].Presence.IsExiting = false
	views = e.RemoteCursors(others, viewport)
	assert.Equal(t, 1.0, views[0].Opacity)
}

func TestRemoteCursorsForgetsDepartedParticipants(t *testing.T) {
	broker := channel.NewMemory()
	room := joinRoom(t, broker, "Ada")
	rec := &burstRecorder{}

	e := New(room, nil, Options{OnBurst: rec.record})

	throwing := []presence.Other{{ConnectionID: 7, Presence: presence.Presence{
		Cursor:             &presence.Cursor{PageX: 1, PageY: 1},
		IsThrowingConfetti: true,
	}}}

	e.RemoteCursors(throwing, viewport)
	e.RemoteCursors(nil, viewport)
	e.RemoteCursors(throwing, viewport)

	assert.Len(t, rec.all(), 2)
}
