package rooms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/portfolio/presence/internal/roomstore"
)

func setupRouter(t *testing.T) (*gin.Engine, *roomstore.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := roomstore.NewMemoryStore()
	t.Cleanup(func() { store.Close() }) //nolint:errcheck,gosec

	router := gin.New()
	RegisterRoutes(router.Group("/api/v1"), store)

	return router, store
}

func get(router *gin.Engine, url string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, url, nil))
	return w
}

func TestListRooms(t *testing.T) {
	router, store := setupRouter(t)
	ctx := context.Background()

	for i := range 3 {
		require.NoError(t, store.Save(ctx, &roomstore.Snapshot{
			RoomID:       fmt.Sprintf("portfolio-room-page-%d", i),
			Participants: []roomstore.Participant{{ConnectionID: 1, Name: "Ada"}},
		}, time.Minute))
	}

	w := get(router, "/api/v1/rooms?limit=2")
	require.Equal(t, http.StatusOK, w.Code)

	var resp ListRoomsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Rooms, 2)
	assert.Equal(t, 3, resp.Pagination.Total)
	assert.True(t, resp.Pagination.HasMore)

	w = get(router, "/api/v1/rooms?limit=2&offset=2")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Rooms, 1)
	assert.False(t, resp.Pagination.HasMore)

	w = get(router, "/api/v1/rooms?offset=10")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Rooms)

	w = get(router, "/api/v1/rooms?limit=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetRoomPresence(t *testing.T) {
	router, store := setupRouter(t)

	require.NoError(t, store.Save(context.Background(), &roomstore.Snapshot{
		RoomID: "portfolio-room-home",
		Participants: []roomstore.Participant{
			{ConnectionID: 1, Name: "Ada"},
			{ConnectionID: 2, Name: "Grace", IsExiting: true},
		},
	}, time.Minute))

	tests := []struct {
		name   string
		url    string
		status int
		label  string
	}{
		{name: "occupied room", url: "/api/v1/rooms/portfolio-room-home/presence", status: http.StatusOK, label: "2 others here"},
		{name: "empty room", url: "/api/v1/rooms/portfolio-room-blog/presence", status: http.StatusNotFound},
		{name: "invalid id", url: "/api/v1/rooms/not-a-room/presence", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(router, tt.url)
			require.Equal(t, tt.status, w.Code)

			if tt.status != http.StatusOK {
				return
			}

			var resp RoomPresenceResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, 2, resp.Count)
			assert.Equal(t, tt.label, resp.Label)
			assert.True(t, resp.Participants[1].IsExiting)
		})
	}
}

func TestResolveRoom(t *testing.T) {
	router, _ := setupRouter(t)

	tests := []struct {
		path string
		want string
	}{
		{path: "", want: "portfolio-room-home"},
		{path: "/", want: "portfolio-room-home"},
		{path: "/blog/hello-world", want: "portfolio-room-blog-hello-world"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := get(router, "/api/v1/rooms/resolve?path="+tt.path)
			require.Equal(t, http.StatusOK, w.Code)

			var resp ResolveRoomResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.want, resp.RoomID)
		})
	}
}
