package middleware

import (
	"net/http"
	"strings"

	"wordguess/internal/service"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// JWT requires a valid identity token in the Authorization header.
func JWT(ids *service.IdentityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ids.Enabled() {
			c.AbortWithStatusJSON(http.StatusNotImplemented, gin.H{"error": "identity tokens are not configured"})
			return
		}

		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}

		id, err := ids.Parse(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// IdentityFrom returns the identity stored by JWT, if any.
func IdentityFrom(c *gin.Context) (*service.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*service.Identity)
	return id, ok
}
