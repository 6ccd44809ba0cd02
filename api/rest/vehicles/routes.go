package vehicles

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(rg *gin.RouterGroup, store Store, authMiddleware gin.HandlerFunc) {
	vehicles := rg.Group("/vehicles")
	vehicles.Use(authMiddleware)
	{
		vehicles.GET("", ListVehiclesHandler(store))
		vehicles.POST("", CreateVehicleHandler(store))
	}
}
