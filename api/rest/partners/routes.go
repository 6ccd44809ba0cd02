package partners

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(rg *gin.RouterGroup, store Store, authMiddleware gin.HandlerFunc) {
	partners := rg.Group("/partners")
	partners.Use(authMiddleware)
	{
		partners.GET("", ListProfilesHandler(store))
		partners.PUT("", SaveProfileHandler(store))
	}
}
