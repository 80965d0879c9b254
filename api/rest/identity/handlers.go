package identity

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"codeberg.org/portfolio/presence/internal/auth"
	apperrors "codeberg.org/portfolio/presence/internal/errors"
	"codeberg.org/portfolio/presence/internal/localstate"
	"codeberg.org/portfolio/presence/internal/presence"
)

// issues a signed pseudonymous identity
func CreateIdentityHandler(issuer *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateIdentityRequest

		// an empty body asks for a fully random identity
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			apperrors.ValidationError(c, err)
			return
		}

		session := localstate.NewSessionData(time.Now(), localstate.DefaultNames, len(presence.Palette))

		if id := strings.TrimSpace(req.SessionID); id != "" {
			session.SessionID = id
		}

		if name := strings.TrimSpace(req.Name); name != "" {
			session.Name = name
		}

		if req.ColorIndex != nil {
			session.ColorIndex = *req.ColorIndex % len(presence.Palette)
		}

		token, expiresAt, err := issuer.GenerateToken(session.SessionID, session.Name, session.ColorIndex)
		if err != nil {
			apperrors.InternalError(c, "failed to issue identity", err)
			return
		}

		c.JSON(http.StatusCreated, CreateIdentityResponse{
			Token:      token,
			SessionID:  session.SessionID,
			Name:       session.Name,
			ColorIndex: session.ColorIndex,
			Color:      presence.ColorFor(session.ColorIndex),
			ExpiresAt:  expiresAt,
		})
	}
}
