package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	serviceName    = "portfolio-presence"
	serviceVersion = "1.0.0"
)

// returns the server health status
func Handler(rooms RoomCounter) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, Response{
			Status:  "healthy",
			Service: serviceName,
			Version: serviceVersion,
			Rooms:   rooms.GetRoomCount(),
		})
	}
}

// responds with pong for testing
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, PingResponse{
		Message: "pong",
	})
}
