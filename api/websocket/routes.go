package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"

	ws "codeberg.org/qemxa/server/internal/websocket"
)

func RegisterRoutes(router *gin.RouterGroup, hub *ws.Hub, opener SessionOpener, validator TokenValidator, checkOrigin func(*http.Request) bool) {
	router.GET("/ws/chats/:vin", WebSocketHandler(hub, opener, validator, checkOrigin))
}
