package websocket

import (
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"codeberg.org/portfolio/presence/internal/auth"
	"codeberg.org/portfolio/presence/internal/errors"
	"codeberg.org/portfolio/presence/internal/logger"
	"codeberg.org/portfolio/presence/internal/presence"
	"codeberg.org/portfolio/presence/internal/rooms"
	ws "codeberg.org/portfolio/presence/internal/websocket"
)

// builds the upgrader used for room connections
func NewUpgrader(allowedOrigins []string, production bool) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     ws.CheckOrigin(allowedOrigins, production),
	}
}

// handles websocket connections joining a presence room
func WebSocketHandler(hub *ws.Hub, upgrader *websocket.Upgrader) gin.HandlerFunc {
	return func(c *gin.Context) {
		var params ConnectParams
		if err := c.ShouldBindQuery(&params); err != nil {
			errors.BadRequest(c, "invalid parameters", err)
			return
		}

		roomID := params.RoomID
		if roomID == "" {
			roomID = rooms.RoomID(params.Path)
		}

		if !rooms.Valid(roomID) {
			errors.BadRequest(c, "invalid room format", nil)
			return
		}

		var initial presence.Presence
		var pinnedName *string

		if params.Name != "" {
			initial.Name = presence.Ptr(params.Name)
		}

		// a valid identity token pins the name; an invalid one was already ignored
		if claims, ok := auth.GetIdentity(c); ok {
			pinnedName = presence.Ptr(claims.Name)
			initial.Color = presence.ColorFor(claims.ColorIndex)
		}

		// check connection limits before accepting new connection
		ipAddress := c.ClientIP()
		canAccept, reason := hub.CanAcceptConnection(roomID, ipAddress)

		if !canAccept {
			errors.TooManyRequests(c, reason)
			return
		}

		clientID := ws.GenerateClientID()

		// upgrade HTTP connection to websocket
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.ErrorErr(err, "failed to upgrade connection",
				"room_id", roomID,
				"ip", ipAddress,
			)

			return
		}

		// track IP connection only after successful upgrade
		hub.TrackIPConnection(ipAddress)

		client := ws.NewClient(clientID, roomID, ipAddress, pinnedName, initial, conn, hub)

		hub.Register <- client

		go client.WritePump()
		go client.ReadPump()

		logger.Info("websocket connection established",
			"client_id", clientID,
			"room_id", roomID,
			"identified", pinnedName != nil,
			"ip", ipAddress,
		)
	}
}
