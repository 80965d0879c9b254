package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/portfolio/presence/internal/auth"
	"codeberg.org/portfolio/presence/internal/presence"
	ws "codeberg.org/portfolio/presence/internal/websocket"
)

func setupServer(t *testing.T) (*httptest.Server, *auth.Issuer) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := ws.NewHub()
	hub.RegisterDefaultHandlers()
	go hub.Run()
	t.Cleanup(hub.Shutdown)

	issuer, err := auth.NewIssuer([]byte("test-secret"), time.Hour)
	require.NoError(t, err)

	router := gin.New()
	RegisterRoutes(router.Group("/api/v1"), hub, issuer, NewUpgrader(nil, false))

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return server, issuer
}

func dial(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/ws?" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close() //nolint:errcheck,gosec
	t.Cleanup(func() { conn.Close() }) //nolint:errcheck,gosec

	return conn
}

func readRoomState(t *testing.T, conn *websocket.Conn) (ws.Message, ws.RoomStatePayload) {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck,gosec

	var msg ws.Message
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, ws.TypeRoomState, msg.Type)

	var state ws.RoomStatePayload
	require.NoError(t, msg.UnmarshalPayload(&state))

	return msg, state
}

func TestWebSocketHandlerJoinsRoomFromPath(t *testing.T) {
	server, _ := setupServer(t)

	conn := dial(t, server, "path=/blog/hello")
	msg, state := readRoomState(t, conn)

	assert.Equal(t, "portfolio-room-blog-hello", msg.RoomID)
	assert.Equal(t, 1, state.ConnectionID)
}

func TestWebSocketHandlerPinsIdentity(t *testing.T) {
	server, issuer := setupServer(t)

	token, _, err := issuer.GenerateToken("s-1", "Ada", 1)
	require.NoError(t, err)

	first := dial(t, server, "room=portfolio-room-home&token="+token)
	readRoomState(t, first)

	second := dial(t, server, "room=portfolio-room-home&name=Grace")
	_, state := readRoomState(t, second)

	require.Len(t, state.Others, 1)
	assert.Equal(t, "Ada", state.Others[0].Presence.DisplayName())
	assert.Equal(t, presence.ColorFor(1), state.Others[0].Presence.Color)
}

func TestWebSocketHandlerRejectsBadRequests(t *testing.T) {
	server, _ := setupServer(t)

	tests := []struct {
		name  string
		query string
	}{
		{name: "invalid room id", query: "room=somebody-elses-room"},
		{name: "name too long", query: "name=" + strings.Repeat("x", 65)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(server.URL + "/api/v1/ws?" + tt.query)
			require.NoError(t, err)
			defer resp.Body.Close() //nolint:errcheck

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}
