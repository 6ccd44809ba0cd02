package users

import (
	"net/http"

	"codeberg.org/qemxa/server/internal/errors"
	"github.com/gin-gonic/gin"
)

// GetUsage godoc
// @Summary Get user's usage statistics
// @Description Returns the user's tier, today's message count and the limits of the plan
// @Tags users
// @Produce json
// @Success 200 {object} chat.UsageSummary
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/users/usage [get]
// @Security BearerAuth
func GetUsage(usage UsageReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		if userID == "" {
			errors.Unauthorized(c, "user not authenticated")
			return
		}

		summary, err := usage.Usage(c.Request.Context(), userID)
		if err != nil {
			errors.InternalError(c, "failed to fetch usage data", err)
			return
		}

		c.JSON(http.StatusOK, summary)
	}
}
