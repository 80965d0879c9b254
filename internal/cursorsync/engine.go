package cursorsync

import (
	"context"
	"sync"
	"time"

	"codeberg.org/portfolio/presence/internal/channel"
	"codeberg.org/portfolio/presence/internal/localstate"
	"codeberg.org/portfolio/presence/internal/logger"
	"codeberg.org/portfolio/presence/internal/presence"
)

// samples local pointer state and publishes it to one room every frame
type Engine struct {
	mu sync.Mutex

	room    channel.Room
	cursors *localstate.CursorStore
	opts    Options

	state State

	// last raw pointer sample in viewport coordinates
	x, y     float64
	viewport Viewport

	clicking      bool
	confetti      bool
	confettiUntil time.Time

	restored *localstate.Position
	remote   map[int]*remoteCursor
}

type remoteCursor struct {
	exitingSince time.Time
	throwing     bool
}

// creates an engine publishing to room. cursors may be nil.
func New(room channel.Room, cursors *localstate.CursorStore, opts Options) *Engine {
	e := &Engine{
		room:    room,
		cursors: cursors,
		opts:    opts.withDefaults(),
		remote:  make(map[int]*remoteCursor),
	}

	if cursors != nil && !e.opts.Touch {
		e.restored = cursors.LoadCursorPosition()
	}

	return e
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// last saved cursor position, shown until the pointer really moves
func (e *Engine) Restored() *localstate.Position {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.restored == nil || e.state != NotMoved {
		return nil
	}

	pos := *e.restored
	return &pos
}

// records a raw pointer position in viewport coordinates
func (e *Engine) PointerMove(x, y float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.acceptsInput() {
		return
	}

	e.x, e.y = x, y

	switch e.state {
	case NotMoved, IdleHidden:
		e.state = Active
	}
}

// records a press at (x, y); a modifier click throws confetti
func (e *Engine) PointerDown(x, y float64, modifier bool) {
	e.mu.Lock()

	if !e.acceptsInput() {
		e.mu.Unlock()
		return
	}

	e.x, e.y = x, y
	e.state = Active
	e.clicking = true

	if !modifier {
		e.mu.Unlock()
		return
	}

	// re-arming moves the deadline instead of stacking timers
	e.confetti = true
	e.confettiUntil = e.opts.Now().Add(e.opts.ConfettiDuration)

	pageX, pageY := x+e.viewport.ScrollX, y+e.viewport.ScrollY
	e.mu.Unlock()

	e.emit(Burst{X: x, Y: y, Local: true})
	e.room.Broadcast(presence.NewConfettiEvent(pageX, pageY))
}

func (e *Engine) PointerUp() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.clicking = false
}

// tab visibility changes
func (e *Engine) SetVisible(visible bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.setHidden(!visible)
}

func (e *Engine) PointerLeave() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.setHidden(true)
}

func (e *Engine) PointerEnter() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.setHidden(false)
}

// must be called with the lock held
func (e *Engine) setHidden(hidden bool) {
	if e.opts.Touch {
		return
	}

	switch {
	case hidden && e.state == Active:
		e.state = IdleHidden
		e.publishLocked()
	case !hidden && e.state == IdleHidden:
		e.state = Active
		e.publishLocked()
	}
}

// leaves the room for good: saves the cursor for the next room and publishes isExiting
func (e *Engine) BeforeUnload() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.opts.Touch || e.state == Exiting {
		return
	}

	moved := e.state != NotMoved
	e.state = Exiting

	if !moved {
		return
	}

	if e.cursors != nil {
		e.cursors.SaveCursorPosition(localstate.Position{X: e.x, Y: e.y})
	}

	e.publishLocked()
}

// recomputes derived coordinates and publishes the full snapshot
func (e *Engine) Tick(now time.Time, vp Viewport) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.viewport = vp

	if e.opts.Touch {
		return
	}

	if e.confetti && !now.Before(e.confettiUntil) {
		e.confetti = false
	}

	if e.state == NotMoved || e.state == Exiting {
		return
	}

	e.publishLocked()
}

// drives Tick until ctx is cancelled
func (e *Engine) Run(ctx context.Context, interval time.Duration, viewport func() Viewport) {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Debug("cursor sync loop started", "room_id", e.room.ID(), "interval", interval)

	for {
		select {
		case <-ctx.Done():
			logger.Debug("cursor sync loop stopped", "room_id", e.room.ID())
			return
		case <-ticker.C:
			e.Tick(e.opts.Now(), viewport())
		}
	}
}

// the snapshot this engine publishes; nil cursor before the first move
func (e *Engine) Presence() presence.Presence {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.snapshotLocked()
}

func (e *Engine) acceptsInput() bool {
	return !e.opts.Touch && e.state != Exiting
}

func (e *Engine) snapshotLocked() presence.Presence {
	p := presence.Presence{
		Name:               e.opts.Name,
		Color:              e.opts.Color,
		IsClicking:         e.clicking,
		IsThrowingConfetti: e.confetti,
		IsExiting:          e.state == IdleHidden || e.state == Exiting,
	}

	if e.state == NotMoved || e.opts.Touch {
		return p
	}

	c := &presence.Cursor{
		X:     e.x,
		Y:     e.y,
		PageX: e.x + e.viewport.ScrollX,
		PageY: e.y + e.viewport.ScrollY,
	}

	if e.viewport.Width > 0 && e.viewport.Height > 0 {
		c.XPercent = presence.Ptr(clamp01(e.x / e.viewport.Width))
		c.YPercent = presence.Ptr(clamp01(e.y / e.viewport.Height))
	}

	p.Cursor = c
	return p
}

func (e *Engine) publishLocked() {
	p := e.snapshotLocked()

	patch := presence.Patch{}.
		SetCursor(p.Cursor).
		SetClicking(p.IsClicking).
		SetThrowingConfetti(p.IsThrowingConfetti).
		SetExiting(p.IsExiting)

	if p.Name != nil {
		patch = patch.SetName(p.Name)
	}

	if p.Color != "" {
		patch = patch.SetColor(p.Color)
	}

	e.room.UpdateOwnPresence(patch)
}

func (e *Engine) emit(b Burst) {
	if e.opts.OnBurst != nil {
		e.opts.OnBurst(b)
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
