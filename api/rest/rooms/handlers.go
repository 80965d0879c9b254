package rooms

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "codeberg.org/portfolio/presence/internal/errors"
	"codeberg.org/portfolio/presence/internal/presence"
	roomid "codeberg.org/portfolio/presence/internal/rooms"
	"codeberg.org/portfolio/presence/internal/roomstore"
)

// lists rooms that currently have participants
func ListRoomsHandler(store roomstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var params ListParams
		if err := c.ShouldBindQuery(&params); err != nil {
			apperrors.BadRequest(c, "invalid pagination parameters", err)
			return
		}

		params = params.normalize()

		summaries, err := store.List(c.Request.Context())
		if err != nil {
			apperrors.InternalError(c, "failed to list rooms", err)
			return
		}

		total := len(summaries)
		start := min(params.Offset, total)
		end := min(start+params.Limit, total)

		c.JSON(http.StatusOK, ListRoomsResponse{
			Rooms:      summaries[start:end],
			Pagination: newMeta(params, total),
		})
	}
}

// returns the participants of one room
func GetRoomPresenceHandler(store roomstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := c.Param("room_id")

		if !roomid.Valid(roomID) {
			apperrors.BadRequest(c, "invalid room_id format", nil)
			return
		}

		snapshot, err := store.Get(c.Request.Context(), roomID)
		if errors.Is(err, roomstore.ErrRoomNotFound) {
			apperrors.RoomNotFound(c)
			return
		}

		if err != nil {
			apperrors.InternalError(c, "failed to read room", err)
			return
		}

		// label reads from the point of view of someone about to join
		others := make([]presence.Other, 0, len(snapshot.Participants))
		for _, p := range snapshot.Participants {
			others = append(others, presence.Other{ConnectionID: p.ConnectionID})
		}

		count, label := presence.Count(others)

		c.JSON(http.StatusOK, RoomPresenceResponse{
			RoomID:       roomID,
			Count:        count,
			Label:        label,
			Participants: snapshot.Participants,
		})
	}
}

// maps a page path to its room identifier
func ResolveRoomHandler(c *gin.Context) {
	path := c.Query("path")

	c.JSON(http.StatusOK, ResolveRoomResponse{
		Path:   path,
		RoomID: roomid.RoomID(path),
	})
}
