package botdefense

import (
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// drips a never-ending html page one byte at a time
func Tarpit(c *gin.Context, duration, chunkDelay time.Duration) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		return
	}

	page := []byte("<html><head><title>rooms</title></head><body><ul>")
	deadline := time.Now().Add(duration)
	ctx := c.Request.Context()

	for i := 0; time.Now().Before(deadline); i++ {
		if i >= len(page) {
			page = fmt.Appendf(page[:0], "<li>room-%d</li>", rand.IntN(100000)) //nolint:gosec
			i = 0
		}

		if _, err := c.Writer.Write(page[i : i+1]); err != nil {
			return
		}
		flusher.Flush()

		select {
		case <-ctx.Done():
			return
		case <-time.After(chunkDelay):
		}
	}
}

type fakeRoom struct {
	ID      string `json:"id"`
	Count   int    `json:"count"`
	Created string `json:"created_at"`
}

var fakeRoomWords = []string{"lobby", "studio", "garden", "archive", "blog", "projects", "about", "labs", "notes"}

// serves a plausible but useless room listing
func ServePoisonedRooms(c *gin.Context) {
	rooms := make([]fakeRoom, rand.IntN(15)+5) //nolint:gosec
	for i := range rooms {
		rooms[i] = fakeRoom{
			ID:      fmt.Sprintf("%s-%d", fakeRoomWords[rand.IntN(len(fakeRoomWords))], rand.IntN(1000)), //nolint:gosec
			Count:   rand.IntN(40) + 1,                                                                   //nolint:gosec
			Created: time.Now().Add(-time.Duration(rand.IntN(720)) * time.Hour).UTC().Format(time.RFC3339), //nolint:gosec
		}
	}

	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}
