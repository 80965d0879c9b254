package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"codeberg.org/portfolio/presence/internal/logger"
)

const contextKeyIdentity = "identity"

// validates an identity token if present (bearer header or ?token=) but never requires one
func (i *Issuer) OptionalIdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")

		if header := c.GetHeader("Authorization"); header != "" {
			parts := strings.SplitN(header, " ", 2)
			if len(parts) == 2 && parts[0] == "Bearer" {
				token = parts[1]
			}
		}

		if token == "" {
			c.Next()
			return
		}

		claims, err := i.ValidateToken(token)
		if err != nil {
			logger.Debug("ignoring invalid identity token", "path", c.Request.URL.Path, "error", err)
			c.Next()
			return
		}

		c.Set(contextKeyIdentity, claims)

		c.Next()
	}
}

// extracts identity claims after OptionalIdentityMiddleware
func GetIdentity(c *gin.Context) (*Claims, bool) {
	v, exists := c.Get(contextKeyIdentity)
	if !exists {
		return nil, false
	}

	claims, ok := v.(*Claims)
	return claims, ok
}
