package partners

import (
	stderrors "errors"
	"net/http"

	"codeberg.org/qemxa/server/internal/errors"
	"codeberg.org/qemxa/server/qemxa/partners"
	"github.com/gin-gonic/gin"
)

// ListProfilesHandler godoc
// @Summary List the user's partner profiles
// @Tags partners
// @Produce json
// @Success 200 {object} ListResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /api/v1/partners [get]
// @Security BearerAuth
func ListProfilesHandler(store Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			errors.Unauthorized(c, "user not authenticated")
			return
		}

		list, err := store.ListPartnerProfiles(c.Request.Context(), userID)
		if err != nil {
			errors.InternalError(c, "failed to list partner profiles", err)
			return
		}

		if list == nil {
			list = []partners.Profile{}
		}

		c.JSON(http.StatusOK, ListResponse{Partners: list})
	}
}

// SaveProfileHandler godoc
// @Summary Create or update a partner profile
// @Description Saves a service shop or parts seller. Refused when the listings exceed the profile's plan.
// @Tags partners
// @Accept json
// @Produce json
// @Param request body SaveProfileRequest true "Profile"
// @Success 200 {object} partners.Profile
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /api/v1/partners [put]
// @Security BearerAuth
func SaveProfileHandler(store Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			errors.Unauthorized(c, "user not authenticated")
			return
		}

		var req SaveProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		profile := &partners.Profile{
			ID:          req.ID,
			UserID:      userID,
			Name:        req.Name,
			Type:        req.Type,
			Description: req.Description,
			Address:     req.Address,
			Phone:       req.Phone,
			Products:    req.Products,
			Services:    req.Services,
		}

		if err := store.SavePartnerProfile(c.Request.Context(), profile); err != nil {
			switch {
			case stderrors.Is(err, partners.ErrInvalidPartnerType):
				errors.ValidationError(c, err)
			case stderrors.Is(err, partners.ErrListingLimitReached):
				errors.LimitReached(c, "listing limit reached for this partner plan")
			default:
				errors.InternalError(c, "failed to save partner profile", err)
			}
			return
		}

		c.JSON(http.StatusOK, profile)
	}
}
