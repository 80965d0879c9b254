package tui

import (
	"context"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"codeberg.org/portfolio/presence/internal/channel"
	"codeberg.org/portfolio/presence/internal/cursorsync"
	"codeberg.org/portfolio/presence/internal/logger"
	"codeberg.org/portfolio/presence/internal/presence"
	"codeberg.org/portfolio/presence/internal/ripple"
	"codeberg.org/portfolio/presence/internal/rooms"
)

const (
	// pixels per terminal cell; matches one ripple grid step
	cellPx = 10.0

	// one wheel notch
	scrollStep = 3 * cellPx

	// the simulated page is this many screens tall
	pageScreens = 3

	burstDuration = 600 * time.Millisecond

	// header and help lines around the canvas
	chromeLines = 2
)

// pages cycled with tab
var pages = []string{"/", "/blog", "/projects", "/about"}

type viewportCell struct {
	v atomic.Pointer[cursorsync.Viewport]
}

func (c *viewportCell) Load() cursorsync.Viewport {
	if vp := c.v.Load(); vp != nil {
		return *vp
	}

	return cursorsync.Viewport{}
}

func (c *viewportCell) Store(vp cursorsync.Viewport) {
	c.v.Store(&vp)
}

func NewRoomModel(opts Options) *RoomModel {
	cfg := ripple.DefaultConfig()
	if opts.GridColor != "" {
		cfg.Color = opts.GridColor
	}

	return &RoomModel{
		opts:     opts,
		switcher: channel.NewSwitcher(opts.Connector),
		field:    ripple.NewField(cfg, ripple.Options{}),
		viewport: &viewportCell{},
	}
}

// leaves the current room (if any) and joins the one for path
func (m *RoomModel) Enter(path string) tea.Cmd {
	m.leave()

	m.path = path
	m.roomID = rooms.RoomID(path)
	m.status = "connecting"
	m.connected = false
	m.others = nil
	m.views = nil
	m.bursts = nil

	initial := presence.Presence{
		Name:  presence.Ptr(m.opts.Session.Name),
		Color: presence.ColorFor(m.opts.Session.ColorIndex),
	}

	return joinRoom(m.switcher, m.roomID, initial)
}

// stops the engine loop and saves the cursor; the switcher tears the membership down
func (m *RoomModel) leave() {
	if m.engine != nil {
		m.engine.BeforeUnload()
	}

	if m.cancel != nil {
		m.cancel()
	}

	m.engine = nil
	m.cancel = nil
	m.room = nil
	m.field.SetPublisher(nil)
	m.field.Reset()
}

// leaves the room without joining another
func (m *RoomModel) Close() {
	m.leave()
	m.roomID = ""
	m.switcher.Close()
}

func (m *RoomModel) Update(msg tea.Msg) (*RoomModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case joinedMsg:
		return m, m.joined(msg.room)

	case joinFailedMsg:
		if msg.roomID != m.roomID {
			return m, nil
		}

		logger.Warn("failed to join room", "room_id", msg.roomID, "error", msg.err)
		m.status = "offline"

	case othersChangedMsg:
		if msg.room != m.room {
			return m, nil
		}

		m.others = m.room.Others()
		return m, watchRoom(m.room)

	case roomEventMsg:
		if msg.room != m.room {
			return m, nil
		}

		// confetti bursts come from the cursor layer
		m.field.ApplyEvent(time.Now(), msg.ev)
		return m, watchRoom(m.room)

	case roomClosedMsg:
		if msg.room != m.room {
			return m, nil
		}

		m.connected = false
		m.status = "disconnected"
		m.others = nil

	case frameMsg:
		m.frame(time.Time(msg))
		return m, nextFrame()

	case tea.FocusMsg:
		if m.engine != nil {
			m.engine.SetVisible(true)
		}

	case tea.BlurMsg:
		if m.engine != nil {
			m.engine.SetVisible(false)
		}

	case tea.MouseMsg:
		return m, m.mouse(msg)
	}

	return m, nil
}

func (m *RoomModel) joined(room channel.Room) tea.Cmd {
	if room.ID() != m.roomID {
		// left while the join was in flight
		if m.roomID == "" {
			m.switcher.Close()
		}

		return nil
	}

	m.room = room
	m.connected = true
	m.status = "connected"
	m.others = room.Others()

	m.engine = cursorsync.New(room, m.opts.Cursors, cursorsync.Options{
		Touch:   m.opts.Touch,
		Name:    presence.Ptr(m.opts.Session.Name),
		Color:   presence.ColorFor(m.opts.Session.ColorIndex),
		OnBurst: m.addBurst,
	})

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	go m.engine.Run(ctx, cursorsync.DefaultFrameInterval, m.viewport.Load)

	m.field.SetPublisher(room)

	logger.Info("entered room", "room_id", room.ID(), "connection_id", room.ConnectionID())

	return watchRoom(room)
}

func (m *RoomModel) resize(width, height int) {
	m.width = width
	m.height = max(height-chromeLines, 1)

	m.field.Resize(float64(m.width)*cellPx, float64(m.height)*cellPx)
	m.scrollY = min(m.scrollY, m.maxScroll())
	m.storeViewport()
}

func (m *RoomModel) storeViewport() {
	m.viewport.Store(cursorsync.Viewport{
		ScrollY: m.scrollY,
		Width:   float64(m.width) * cellPx,
		Height:  float64(m.height) * cellPx,
	})
}

func (m *RoomModel) maxScroll() float64 {
	return float64(m.height) * cellPx * (pageScreens - 1)
}

func (m *RoomModel) container() ripple.Rect {
	return ripple.Rect{Width: float64(m.width) * cellPx, Height: float64(m.height) * cellPx}
}

func (m *RoomModel) frame(now time.Time) {
	vp := m.viewport.Load()

	if !m.opts.Touch {
		m.field.ApplyOthers(now, m.others, m.container(), vp.ScrollX, vp.ScrollY)
	}

	m.field.Tick(now)

	if m.engine != nil {
		m.views = m.engine.RemoteCursors(m.others, vp)
	}

	live := m.bursts[:0:0]
	for _, b := range m.bursts {
		if now.Before(b.until) {
			live = append(live, b)
		}
	}

	m.bursts = live
}

func (m *RoomModel) mouse(msg tea.MouseMsg) tea.Cmd {
	if m.opts.Touch || m.engine == nil {
		return nil
	}

	// row 0 is the header
	x := float64(msg.X) * cellPx
	y := float64(msg.Y-1) * cellPx

	if y < 0 || msg.Y > m.height {
		return nil
	}

	now := time.Now()

	switch msg.Action {
	case tea.MouseActionMotion:
		m.pointerX, m.pointerY = x, y
		m.engine.PointerMove(x, y)
		m.field.PointerMove(now, x, y)

	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.scroll(-scrollStep)
		case tea.MouseButtonWheelDown:
			m.scroll(scrollStep)
		case tea.MouseButtonLeft:
			m.pointerX, m.pointerY = x, y
			return m.click(now, x, y, msg.Ctrl || msg.Alt)
		}

	case tea.MouseActionRelease:
		m.engine.PointerUp()
	}

	return nil
}

func (m *RoomModel) click(now time.Time, x, y float64, modifier bool) tea.Cmd {
	m.engine.PointerDown(x, y, modifier)
	m.field.Click(now, x, y)

	if modifier && m.opts.Sound != nil && !m.opts.Sound.Muted() {
		return ringBell
	}

	return nil
}

// confetti at the last pointer position
func (m *RoomModel) Confetti() tea.Cmd {
	if m.opts.Touch || m.engine == nil {
		return nil
	}

	cmd := m.click(time.Now(), m.pointerX, m.pointerY, true)
	m.engine.PointerUp()

	return cmd
}

func (m *RoomModel) scroll(delta float64) {
	m.scrollY = min(max(m.scrollY+delta, 0), m.maxScroll())
	m.storeViewport()
}

// the page after the current one
func (m *RoomModel) NextPath() string {
	for i, p := range pages {
		if rooms.RoomID(p) == m.roomID {
			return pages[(i+1)%len(pages)]
		}
	}

	return pages[0]
}

func (m *RoomModel) addBurst(b cursorsync.Burst) {
	m.bursts = append(m.bursts, activeBurst{
		x:     b.X,
		y:     b.Y,
		local: b.Local,
		until: time.Now().Add(burstDuration),
	})
}
