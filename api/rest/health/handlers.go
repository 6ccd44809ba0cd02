package health

import (
	"context"
	"net/http"
	"time"

	"codeberg.org/qemxa/server/internal/logger"
	"github.com/gin-gonic/gin"
)

const version = "1.0.0"

// returns the server health status. a nil pinger skips the store check.
func Handler(store Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := Response{
			Status:  "healthy",
			Service: "qemxa",
			Version: version,
		}

		if store == nil {
			c.JSON(http.StatusOK, resp)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			logger.ErrorErr(err, "health check: store unreachable")

			resp.Status = "degraded"
			resp.Store = "unreachable"
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}

		resp.Store = "ok"
		c.JSON(http.StatusOK, resp)
	}
}

// responds with pong for testing
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, PingResponse{Message: "pong"})
}
