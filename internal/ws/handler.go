package ws

import (
	"errors"
	"net/http"

	"wordguess/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// ErrUnauthorized rejects an upgrade whose token failed verification.
var ErrUnauthorized = errors.New("invalid token")

// IdentifyFunc verifies an optional identity token. A nil result with a nil
// error means the connection is anonymous.
type IdentifyFunc func(token string) (*Identity, error)

func NewUpgrader(allowedOrigin string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}
}

// HandleWS upgrades the request and serves the connection. The token query
// parameter is optional; a present but invalid token is refused.
func HandleWS(hub *Hub, upgrader *websocket.Upgrader, identify IdentifyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		var identity *Identity
		if token := c.Query("token"); token != "" && identify != nil {
			id, err := identify(token)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": ErrUnauthorized.Error()})
				return
			}
			identity = id
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("ws upgrade failed", "remote", c.ClientIP(), "error", err)
			return
		}

		client := NewClient(conn, hub, identity)
		go client.Run()
	}
}
