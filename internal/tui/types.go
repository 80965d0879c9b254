package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/glamour"

	"codeberg.org/portfolio/presence/internal/channel"
	"codeberg.org/portfolio/presence/internal/cursorsync"
	"codeberg.org/portfolio/presence/internal/localstate"
	"codeberg.org/portfolio/presence/internal/presence"
	"codeberg.org/portfolio/presence/internal/ripple"
)

// represents the current state of the TUI
type AppState int

const (
	StateWelcome AppState = iota
	StateRoom
)

type Options struct {
	// "online" or "offline"
	Mode      string
	Connector channel.Connector
	Session   localstate.SessionData
	Cursors   *localstate.CursorStore
	Sound     *localstate.SoundPreference

	// page path joined from the welcome screen
	Path      string
	Touch     bool
	GridColor string
}

// main TUI application model
type Model struct {
	state   AppState
	opts    Options
	width   int
	height  int
	err     error
	welcome *Welcome
	room    *RoomModel
	keys    keyMap
	help    help.Model
}

// welcome screen model
type Welcome struct {
	mode     string
	path     string
	input    string
	width    int
	intro    string
	renderer *glamour.TermRenderer
	commands []Command
}

// represents an available TUI command
type Command struct {
	Name        string
	Description string
}

// one joined room and everything animating in it
type RoomModel struct {
	opts     Options
	switcher *channel.Switcher

	path   string
	roomID string
	room   channel.Room

	engine *cursorsync.Engine
	cancel context.CancelFunc
	field  *ripple.Field

	// read by the engine loop
	viewport *viewportCell

	width   int
	height  int
	scrollY float64

	// last pointer position in pixels
	pointerX float64
	pointerY float64

	others []presence.Other
	views  []cursorsync.CursorView
	bursts []activeBurst

	connected bool
	status    string
}

type activeBurst struct {
	x, y  float64
	local bool
	until time.Time
}

// sent when an error occurs
type ErrorMsg struct {
	err error
}

// sent to join the room for a page path
type EnterRoomMsg struct {
	Path string
}

// sent to go back to the welcome screen
type LeaveRoomMsg struct{}

type frameMsg time.Time

type joinedMsg struct {
	room channel.Room
}

type joinFailedMsg struct {
	roomID string
	err    error
}

type othersChangedMsg struct {
	room channel.Room
}

type roomEventMsg struct {
	room channel.Room
	ev   presence.EventMessage
}

type roomClosedMsg struct {
	room channel.Room
}
