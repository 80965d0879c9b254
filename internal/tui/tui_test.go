package tui

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/portfolio/presence/api/rest/identity"
	"codeberg.org/portfolio/presence/internal/auth"
	"codeberg.org/portfolio/presence/internal/channel"
	"codeberg.org/portfolio/presence/internal/localstate"
	"codeberg.org/portfolio/presence/internal/presence"
	"codeberg.org/portfolio/presence/internal/rooms"
)

func newTestApp(t *testing.T, broker *channel.Memory) *Model {
	t.Helper()

	sound := localstate.NewSoundPreference(localstate.NewMemoryStore())
	sound.SetMuted(true)

	app := NewApp(Options{
		Mode:      "offline",
		Connector: broker,
		Session:   localstate.SessionData{SessionID: "s-1", Name: "Ada", ColorIndex: 1},
		Cursors:   localstate.NewCursorStore(localstate.NewMemoryStore()),
		Sound:     sound,
	})
	t.Cleanup(app.Close)

	app.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return app
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

// runs a command and feeds its message back, as the program would
func run(t *testing.T, app *Model, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	require.NotNil(t, cmd)

	_, next := app.Update(cmd())
	return next
}

func enter(t *testing.T, app *Model, path string) {
	t.Helper()

	_, cmd := app.Update(EnterRoomMsg{Path: path})
	watch := run(t, app, cmd)
	require.NotNil(t, watch, "expected a room watcher after joining")
}

func TestWelcomeCommands(t *testing.T) {
	w := NewWelcome("offline", "/")

	for _, r := range "join /blog" {
		w, _ = w.Update(keyMsg(string(r)))
	}

	_, cmd := w.Update(keyMsg("enter"))
	require.NotNil(t, cmd)
	assert.Equal(t, EnterRoomMsg{Path: "/blog"}, cmd())

	w, _ = w.Update(keyMsg("j"))
	w, _ = w.Update(keyMsg("o"))
	w, _ = w.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	w, _ = w.Update(keyMsg("i"))
	assert.Contains(t, w.View(), "ji_")

	w.input = "dance"
	_, cmd = w.Update(keyMsg("enter"))
	require.NotNil(t, cmd)
	assert.IsType(t, ErrorMsg{}, cmd())

	w.input = "join"
	_, cmd = w.Update(keyMsg("enter"))
	assert.Equal(t, EnterRoomMsg{Path: "/"}, cmd())

	w.input = "quit"
	_, cmd = w.Update(keyMsg("enter"))
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestAppJoinsRoom(t *testing.T) {
	broker := channel.NewMemory()
	app := newTestApp(t, broker)

	enter(t, app, "/")

	assert.Equal(t, StateRoom, app.state)
	assert.Equal(t, rooms.HomeRoom, app.room.roomID)
	assert.True(t, app.room.connected)
	assert.Equal(t, 1, broker.Size(rooms.HomeRoom))

	view := app.View()
	assert.Contains(t, view, rooms.HomeRoom)
	assert.Contains(t, view, "just you")
}

func TestAppSharesCursor(t *testing.T) {
	broker := channel.NewMemory()
	app := newTestApp(t, broker)
	enter(t, app, "/")

	watcher, err := broker.Connect(context.Background(), rooms.HomeRoom, presence.Presence{Name: presence.Ptr("Grace")})
	require.NoError(t, err)
	t.Cleanup(watcher.Disconnect)

	app.Update(tea.MouseMsg{X: 10, Y: 5, Action: tea.MouseActionMotion})

	require.Eventually(t, func() bool {
		for _, o := range watcher.Others() {
			if o.Presence.Cursor != nil {
				return o.Presence.Cursor.PageX == 100 && o.Presence.Cursor.PageY == 40
			}
		}

		return false
	}, time.Second, 10*time.Millisecond)

	// roster changes reach the header
	_, _ = app.Update(othersChangedMsg{room: app.room.room})
	assert.Contains(t, app.View(), "1 other here")
}

func TestAppRendersRemoteCursors(t *testing.T) {
	broker := channel.NewMemory()
	app := newTestApp(t, broker)
	enter(t, app, "/")

	other, err := broker.Connect(context.Background(), rooms.HomeRoom, presence.Presence{Name: presence.Ptr("Grace")})
	require.NoError(t, err)
	t.Cleanup(other.Disconnect)

	other.UpdateOwnPresence(presence.Patch{}.SetCursor(&presence.Cursor{PageX: 200, PageY: 100}))

	app.Update(othersChangedMsg{room: app.room.room})
	app.Update(frameMsg(time.Now()))

	require.Len(t, app.room.views, 1)
	assert.Equal(t, 200.0, app.room.views[0].X)
	assert.Contains(t, app.View(), "Grace")
}

func TestAppRoomKeys(t *testing.T) {
	broker := channel.NewMemory()
	app := newTestApp(t, broker)
	enter(t, app, "/")

	// confetti at the pointer
	app.Update(keyMsg("c"))
	require.Len(t, app.room.bursts, 1)
	assert.True(t, app.room.bursts[0].local)

	// mute toggles the stored preference
	app.Update(keyMsg("m"))
	assert.False(t, app.opts.Sound.Muted())

	app.Update(keyMsg("?"))
	assert.True(t, app.help.ShowAll)

	// tab moves to the next page's room
	_, cmd := app.Update(keyMsg("tab"))
	require.NotNil(t, cmd)
	assert.Equal(t, EnterRoomMsg{Path: "/blog"}, cmd())

	_, cmd = app.Update(cmd())
	run(t, app, cmd)

	assert.Equal(t, rooms.RoomID("/blog"), app.room.roomID)
	assert.Equal(t, 0, broker.Size(rooms.HomeRoom))
	assert.Equal(t, 1, broker.Size(rooms.RoomID("/blog")))

	// esc leaves the room
	_, cmd = app.Update(keyMsg("esc"))
	run(t, app, cmd)

	assert.Equal(t, StateWelcome, app.state)
	assert.Equal(t, 0, broker.Size(rooms.RoomID("/blog")))

	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestAppSwitchClearsRipples(t *testing.T) {
	broker := channel.NewMemory()
	app := newTestApp(t, broker)
	enter(t, app, "/")

	ev := presence.NewRippleEvent(presence.RippleEvent{ID: "r-home", X: 50, Y: 50, MaxRadius: 100, Intensity: 1, Velocity: 1})
	app.Update(roomEventMsg{room: app.room.room, ev: presence.EventMessage{ConnectionID: 2, Event: ev}})
	app.Update(tea.MouseMsg{X: 10, Y: 5, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	require.Len(t, app.room.field.Active(), 2)

	_, cmd := app.Update(keyMsg("tab"))
	require.NotNil(t, cmd)
	_, cmd = app.Update(cmd())
	run(t, app, cmd)

	require.Equal(t, rooms.RoomID("/blog"), app.room.roomID)
	assert.Empty(t, app.room.field.Active())
}

func TestAppQuitFromRoom(t *testing.T) {
	app := newTestApp(t, channel.NewMemory())
	enter(t, app, "/")

	_, cmd := app.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestAppTouchIgnoresPointer(t *testing.T) {
	broker := channel.NewMemory()

	app := NewApp(Options{
		Mode:      "offline",
		Connector: broker,
		Session:   localstate.SessionData{Name: "Ada"},
		Touch:     true,
	})
	t.Cleanup(app.Close)
	app.Update(tea.WindowSizeMsg{Width: 40, Height: 12})
	enter(t, app, "/")

	app.Update(tea.MouseMsg{X: 3, Y: 3, Action: tea.MouseActionMotion})
	app.Update(tea.MouseMsg{X: 3, Y: 3, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft, Ctrl: true})
	app.Update(keyMsg("c"))
	app.Update(frameMsg(time.Now()))

	assert.Nil(t, app.room.room.Self().Cursor)
	assert.Empty(t, app.room.bursts)
	assert.Empty(t, app.room.field.Active())
}

func TestLeftRoomClosesLateJoin(t *testing.T) {
	broker := channel.NewMemory()
	app := newTestApp(t, broker)

	_, cmd := app.Update(EnterRoomMsg{Path: "/"})
	require.NotNil(t, cmd)

	app.Update(LeaveRoomMsg{})
	app.Update(cmd())

	assert.Equal(t, StateWelcome, app.state)
	assert.Equal(t, 0, broker.Size(rooms.HomeRoom))
}

func TestIdentityClient(t *testing.T) {
	gin.SetMode(gin.TestMode)

	issuer, err := auth.NewIssuer([]byte("test-secret"), time.Hour)
	require.NoError(t, err)

	router := gin.New()
	identity.RegisterRoutes(router.Group("/api/v1"), issuer)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	client, err := NewIdentityClient("ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/ws")
	require.NoError(t, err)

	token, err := client.Token(context.Background(), localstate.SessionData{SessionID: "s-1", Name: "Ada", ColorIndex: 3})
	require.NoError(t, err)

	claims, err := issuer.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "Ada", claims.Name)
	assert.Equal(t, 3, claims.ColorIndex)

	_, err = client.Token(context.Background(), localstate.SessionData{Name: strings.Repeat("x", 100)})
	assert.Error(t, err)

	_, err = NewIdentityClient("ftp://example.com")
	assert.Error(t, err)
}
