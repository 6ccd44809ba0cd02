package users

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(rg *gin.RouterGroup, usage UsageReader, authMiddleware gin.HandlerFunc) {
	users := rg.Group("/users")
	users.Use(authMiddleware) // all user routes require authentication

	users.GET("/usage", GetUsage(usage))
}
