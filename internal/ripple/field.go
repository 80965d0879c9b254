package ripple

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lucasb-eyer/go-colorful"

	"codeberg.org/portfolio/presence/internal/logger"
	"codeberg.org/portfolio/presence/internal/presence"
)

// where local ripples go; channel.Room satisfies it
type Publisher interface {
	Broadcast(ev presence.Event)
	UpdateOwnPresence(patch presence.Patch)
}

type Options struct {
	// nil uses a time-seeded source
	Rand *rand.Rand

	// mirror local ripples into own presence instead of broadcasting them
	SnapshotMode bool
}

// one painted grid cell
type Cell struct {
	Col int
	Row int
	R   uint8
	G   uint8
	B   uint8
	A   float64
}

// the animated ambient grid
type Field struct {
	mu sync.Mutex

	cfg  Config
	opts Options
	rng  *rand.Rand
	base colorful.Color

	cols      int
	rows      int
	opacities []float64

	ripples []Ripple

	// ripple ids already applied, until they expire
	seen map[string]time.Time

	lastLocal  time.Time
	lastRemote map[int]time.Time
	lastTick   time.Time

	// last cursor position seen per remote connection
	remotePos map[int]point

	publisher      Publisher
	transientUntil time.Time
}

func NewField(cfg Config, opts Options) *Field {
	cfg = cfg.withDefaults()

	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // visual noise
	}

	base, err := ParseColor(cfg.Color)
	if err != nil {
		logger.Warn("invalid grid color, using default", "color", cfg.Color, "error", err)
		base, _ = ParseColor(DefaultConfig().Color)
	}

	f := &Field{
		cfg:        cfg,
		opts:       opts,
		rng:        rng,
		base:       base,
		seen:       make(map[string]time.Time),
		lastRemote: make(map[int]time.Time),
		remotePos:  make(map[int]point),
	}

	f.resizeLocked(cfg.Width, cfg.Height)
	return f
}

// sets where local ripples are sent; nil keeps them local
func (f *Field) SetPublisher(p Publisher) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.publisher = p
	f.transientUntil = time.Time{}
}

func (f *Field) Resize(width, height float64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.resizeLocked(width, height)
}

func (f *Field) resizeLocked(width, height float64) {
	step := f.cfg.SquareSize + f.cfg.GridGap

	cols := int(math.Max(0, math.Floor(width/step)))
	rows := int(math.Max(0, math.Floor(height/step)))

	f.cfg.Width, f.cfg.Height = width, height

	if cols == f.cols && rows == f.rows && f.opacities != nil {
		return
	}

	f.cols, f.rows = cols, rows
	f.opacities = make([]float64, cols*rows)

	for i := range f.opacities {
		f.opacities[i] = f.rng.Float64() * f.cfg.MaxOpacity
	}
}

func (f *Field) Size() (cols, rows int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cols, f.rows
}

// a pointer move in container coordinates; at most one ripple per RippleThrottle
func (f *Field) PointerMove(now time.Time, x, y float64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.lastLocal.IsZero() && now.Sub(f.lastLocal) < f.cfg.RippleThrottle {
		return false
	}

	f.lastLocal = now
	f.addLocalLocked(now, x, y, MoveShape, f.rng.Float64()*30, false)

	return true
}

// a click in container coordinates; never throttled and shared with the room
func (f *Field) Click(now time.Time, x, y float64) Ripple {
	f.mu.Lock()
	r := f.addLocalLocked(now, x, y, ClickShape, 30+f.rng.Float64()*60, true)
	pub := f.publisher
	snapshot := f.opts.SnapshotMode

	if pub != nil && snapshot {
		f.transientUntil = now.Add(f.cfg.TransientClear)
	}

	f.mu.Unlock()

	if pub == nil {
		return r
	}

	if snapshot {
		ev := r.Event()
		pub.UpdateOwnPresence(presence.Patch{}.SetRipple(&ev))
	} else {
		pub.Broadcast(presence.NewRippleEvent(r.Event()))
	}

	return r
}

func (f *Field) addLocalLocked(now time.Time, x, y float64, shape Shape, hue float64, shared bool) Ripple {
	r := Ripple{
		X:         x,
		Y:         y,
		MaxRadius: shape.MaxRadius,
		Intensity: shape.Intensity,
		Velocity:  shape.Velocity,
		Hue:       hue,
		Start:     now,
	}

	if shared {
		r.ID = uuid.NewString()
		f.seen[r.ID] = now
	}

	f.ripples = append(f.ripples, r)
	return r
}

// a ripple shared by another participant; duplicates by id are ignored
func (f *Field) AddRemote(now time.Time, connectionID int, ev presence.RippleEvent) bool {
	if ev.ID == "" || ev.MaxRadius <= 0 || ev.Velocity <= 0 {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.seen[ev.ID]; ok {
		return false
	}

	f.seen[ev.ID] = now
	f.ripples = append(f.ripples, fromEvent(ev, connectionID, now))

	return true
}

// synthesizes a movement ripple from another participant's cursor, at most one per RemoteThrottle
func (f *Field) RemoteMove(now time.Time, connectionID int, pageX, pageY float64, rect Rect, scrollX, scrollY float64) bool {
	x, y, inside := ToContainer(pageX, pageY, rect, scrollX, scrollY)
	if !inside {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if last, ok := f.lastRemote[connectionID]; ok && now.Sub(last) < f.cfg.RemoteThrottle {
		return false
	}

	f.lastRemote[connectionID] = now

	r := f.addLocalLocked(now, x, y, MoveShape, f.rng.Float64()*30, false)
	r.ConnectionID = connectionID
	f.ripples[len(f.ripples)-1] = r

	return true
}

type point struct {
	x, y float64
}

// feeds the current room roster: remote cursors and snapshot-mode ripples.
// a cursor only makes a ripple when its page position differs from the last roster.
func (f *Field) ApplyOthers(now time.Time, others []presence.Other, rect Rect, scrollX, scrollY float64) {
	present := make(map[int]struct{}, len(others))

	for _, o := range others {
		present[o.ConnectionID] = struct{}{}
		p := o.Presence

		if p.Ripple != nil {
			f.AddRemote(now, o.ConnectionID, *p.Ripple)
		}

		if p.Cursor == nil {
			continue
		}

		if f.cursorMoved(o.ConnectionID, point{p.Cursor.PageX, p.Cursor.PageY}) && !p.IsExiting {
			f.RemoteMove(now, o.ConnectionID, p.Cursor.PageX, p.Cursor.PageY, rect, scrollX, scrollY)
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for id := range f.lastRemote {
		if _, ok := present[id]; !ok {
			delete(f.lastRemote, id)
		}
	}

	for id := range f.remotePos {
		if _, ok := present[id]; !ok {
			delete(f.remotePos, id)
		}
	}
}

// records pos; the first sighting is a baseline, not a move
func (f *Field) cursorMoved(connectionID int, pos point) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	last, seen := f.remotePos[connectionID]
	f.remotePos[connectionID] = pos

	return seen && last != pos
}

// drops every ripple and remote tracking state, e.g. when switching rooms
func (f *Field) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.ripples = nil
	f.seen = make(map[string]time.Time)
	f.lastRemote = make(map[int]time.Time)
	f.remotePos = make(map[int]point)
	f.transientUntil = time.Time{}
}

// applies a broadcast event; confetti belongs to the cursor layer
func (f *Field) ApplyEvent(now time.Time, msg presence.EventMessage) bool {
	if msg.Event.Kind != presence.EventRipple || msg.Event.Ripple == nil {
		return false
	}

	return f.AddRemote(now, msg.ConnectionID, *msg.Event.Ripple)
}

// advances flicker, drops expired ripples and clears a mirrored ripple
func (f *Field) Tick(now time.Time) {
	f.mu.Lock()

	dt := time.Duration(0)
	if !f.lastTick.IsZero() {
		dt = min(max(now.Sub(f.lastTick), 0), maxFrameDelta)
	}

	f.lastTick = now

	chance := f.cfg.FlickerChance * dt.Seconds()
	for i := range f.opacities {
		if f.rng.Float64() < chance {
			f.opacities[i] = f.rng.Float64() * f.cfg.MaxOpacity
		}
	}

	// rebuilt rather than filtered in place
	active := make([]Ripple, 0, len(f.ripples))
	for _, r := range f.ripples {
		if now.Sub(r.Start) < f.cfg.RippleDuration {
			active = append(active, r)
		}
	}

	f.ripples = active

	for id, at := range f.seen {
		if now.Sub(at) >= f.cfg.RippleDuration {
			delete(f.seen, id)
		}
	}

	var pub Publisher
	if !f.transientUntil.IsZero() && !now.Before(f.transientUntil) {
		pub = f.publisher
		f.transientUntil = time.Time{}
	}

	f.mu.Unlock()

	if pub != nil {
		pub.UpdateOwnPresence(presence.Patch{}.SetRipple(nil))
	}
}

// ripples still animating
func (f *Field) Active() []Ripple {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]Ripple(nil), f.ripples...)
}

// colored cells for the current state
func (f *Field) Frame(now time.Time) []Cell {
	f.mu.Lock()
	defer f.mu.Unlock()

	step := f.cfg.SquareSize + f.cfg.GridGap
	half := f.cfg.SquareSize / 2
	cells := make([]Cell, 0, len(f.opacities))

	for row := 0; row < f.rows; row++ {
		for col := 0; col < f.cols; col++ {
			cx := float64(col)*step + half
			cy := float64(row)*step + half

			var total, hueWeighted float64

			for _, r := range f.ripples {
				c := r.Contribution(cx, cy, r.Progress(now, f.cfg.RippleDuration), f.cfg.RippleDecay)
				if c <= 0 {
					continue
				}

				total += c
				hueWeighted += c * r.Hue
			}

			color := f.base
			if total > 0 {
				color = ShiftHue(f.base, hueWeighted/total)
			}

			r, g, b := color.RGB255()

			cells = append(cells, Cell{
				Col: col,
				Row: row,
				R:   r,
				G:   g,
				B:   b,
				A:   math.Min(f.opacities[row*f.cols+col]+total, 1),
			})
		}
	}

	return cells
}
