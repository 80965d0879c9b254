package tui

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"codeberg.org/portfolio/presence/internal/channel"
	"codeberg.org/portfolio/presence/internal/presence"
)

const (
	frameInterval = 50 * time.Millisecond
	joinTimeout   = 10 * time.Second
)

func nextFrame() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// switches the membership to roomID
func joinRoom(switcher *channel.Switcher, roomID string, initial presence.Presence) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), joinTimeout)
		defer cancel()

		room, err := switcher.Switch(ctx, roomID, initial)
		if err != nil {
			return joinFailedMsg{roomID: roomID, err: err}
		}

		return joinedMsg{room: room}
	}
}

// waits for the next roster change or event from room
func watchRoom(room channel.Room) tea.Cmd {
	return func() tea.Msg {
		select {
		case _, ok := <-room.Changes():
			if !ok {
				return roomClosedMsg{room: room}
			}

			return othersChangedMsg{room: room}

		case ev, ok := <-room.Events():
			if !ok {
				return roomClosedMsg{room: room}
			}

			return roomEventMsg{room: room, ev: ev}
		}
	}
}

func ringBell() tea.Msg {
	fmt.Fprint(os.Stderr, "\a") //nolint:errcheck // best-effort bell
	return nil
}
