package rooms

import (
	"github.com/gin-gonic/gin"

	"codeberg.org/portfolio/presence/internal/roomstore"
)

func RegisterRoutes(router *gin.RouterGroup, store roomstore.Store) {
	router.GET("/rooms", ListRoomsHandler(store))
	router.GET("/rooms/resolve", ResolveRoomHandler)
	router.GET("/rooms/:room_id/presence", GetRoomPresenceHandler(store))
}
