package identity

import (
	"github.com/gin-gonic/gin"

	"codeberg.org/portfolio/presence/internal/auth"
)

func RegisterRoutes(router *gin.RouterGroup, issuer *auth.Issuer) {
	router.POST("/identity", CreateIdentityHandler(issuer))
}
