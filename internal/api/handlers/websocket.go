package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/playmatatu/poolsim/internal/session"
	"github.com/playmatatu/poolsim/internal/ws"
)

// HandleEnvWebSocket streams snapshots of one env to viewers
func HandleEnvWebSocket(hub *ws.Hub, manager *session.Manager) gin.HandlerFunc {
	return ws.HandleEnvWebSocket(hub, manager)
}
