package websocket

import (
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"codeberg.org/portfolio/presence/internal/auth"
	ws "codeberg.org/portfolio/presence/internal/websocket"
)

func RegisterRoutes(router *gin.RouterGroup, hub *ws.Hub, issuer *auth.Issuer, upgrader *websocket.Upgrader) {
	router.GET("/ws", issuer.OptionalIdentityMiddleware(), WebSocketHandler(hub, upgrader))
}
