package chats

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(rg *gin.RouterGroup, svc Service, authMiddleware gin.HandlerFunc) {
	chats := rg.Group("/chats/:vin")
	chats.Use(authMiddleware)
	{
		chats.GET("", GetChatHandler(svc))
		chats.POST("/messages", SendMessageHandler(svc))
		chats.PUT("/messages/:message_id", EditMessageHandler(svc))
		chats.POST("/messages/:message_id/regenerate", RegenerateHandler(svc))
		chats.DELETE("/messages/:message_id", DeleteMessageHandler(svc))
		chats.POST("/reset", ResetChatHandler(svc))
	}
}
