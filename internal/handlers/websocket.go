package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/pettrust/pettrust-backend/internal/services"
)

// WebSocketHandler upgrades an authenticated request to a websocket
// connection registered with the hub.
func WebSocketHandler(hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")
		role := c.GetString("role")

		services.HandleWebSocket(hub, c.Writer, c.Request, userID, role)
	}
}
