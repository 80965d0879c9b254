package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"codeberg.org/portfolio/presence/internal/logger"
)

func NewApp(opts Options) *Model {
	if opts.Path == "" {
		opts.Path = "/"
	}

	return &Model{
		state:   StateWelcome,
		opts:    opts,
		welcome: NewWelcome(opts.Mode, opts.Path),
		room:    NewRoomModel(opts),
		keys:    newKeyMap(),
		help:    help.New(),
	}
}

func (m *Model) Init() tea.Cmd {
	return nextFrame()
}

// leaves the room; call after the program exits
func (m *Model) Close() {
	m.room.Close()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// only quit from welcome screen with ctrl+c, any quit key in a room
		if msg.String() == "ctrl+c" && m.state == StateWelcome {
			return m, tea.Quit
		}

		if m.state == StateRoom {
			if cmd, handled := m.roomKey(msg); handled {
				return m, cmd
			}
		}

		if m.err != nil {
			m.err = nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

		m.welcome, _ = m.welcome.Update(msg)
		m.room, _ = m.room.Update(msg)
		return m, nil

	case ErrorMsg:
		m.err = msg.err
		return m, nil

	case EnterRoomMsg:
		m.state = StateRoom
		m.welcome, _ = m.welcome.Update(msg)
		return m, m.room.Enter(msg.Path)

	case LeaveRoomMsg:
		m.state = StateWelcome
		m.room.Close()
		return m, nil

	case joinedMsg, joinFailedMsg, othersChangedMsg, roomEventMsg, roomClosedMsg:
		// late room traffic still reaches the room after leaving it
		return m.updateRoom(msg)

	case frameMsg:
		// the frame loop keeps running on the welcome screen so it never has to restart
		if m.state != StateRoom {
			return m, nextFrame()
		}
	}

	switch m.state {
	case StateWelcome:
		return m.updateWelcome(msg)

	case StateRoom:
		return m.updateRoom(msg)

	default:
		return m, nil
	}
}

func (m *Model) roomKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit, true

	case key.Matches(msg, m.keys.Leave):
		return func() tea.Msg { return LeaveRoomMsg{} }, true

	case key.Matches(msg, m.keys.NextRoom):
		path := m.room.NextPath()
		return func() tea.Msg { return EnterRoomMsg{Path: path} }, true

	case key.Matches(msg, m.keys.Confetti):
		return m.room.Confetti(), true

	case key.Matches(msg, m.keys.Mute):
		if m.opts.Sound != nil {
			muted := !m.opts.Sound.Muted()
			m.opts.Sound.SetMuted(muted)
			logger.Debug("sound preference changed", "muted", muted)
		}

		return nil, true

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return nil, true
	}

	return nil, false
}

func (m *Model) View() string {
	if m.err != nil {
		return errorView(m.err)
	}

	switch m.state {
	case StateWelcome:
		return m.welcome.View()

	case StateRoom:
		return m.room.Header() + "\n" + m.room.View(time.Now()) + "\n" + m.help.View(m.keys)

	default:
		return "Unknown state"
	}
}

func (m *Model) updateWelcome(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.welcome, cmd = m.welcome.Update(msg)

	return m, cmd
}

func (m *Model) updateRoom(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.room, cmd = m.room.Update(msg)

	return m, cmd
}

func errorView(err error) string {
	return errorStyle.Render(fmt.Sprintf("\n  Error: %v\n\n  Press any key to continue\n", err))
}
