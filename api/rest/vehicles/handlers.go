package vehicles

import (
	stderrors "errors"
	"net/http"
	"strings"

	"codeberg.org/qemxa/server/internal/errors"
	"codeberg.org/qemxa/server/qemxa/vehicles"
	"github.com/gin-gonic/gin"
)

// ListVehiclesHandler godoc
// @Summary List the user's vehicles
// @Tags vehicles
// @Produce json
// @Success 200 {object} ListResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/vehicles [get]
// @Security BearerAuth
func ListVehiclesHandler(store Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			errors.Unauthorized(c, "user not authenticated")
			return
		}

		list, err := store.ListVehicles(c.Request.Context(), userID)
		if err != nil {
			errors.InternalError(c, "failed to list vehicles", err)
			return
		}

		if list == nil {
			list = []vehicles.Vehicle{}
		}

		c.JSON(http.StatusOK, ListResponse{Vehicles: list})
	}
}

// CreateVehicleHandler godoc
// @Summary Register a vehicle
// @Description Adds a vehicle to the user's garage. Brand, model and year are decoded from the VIN when omitted. Refused once the plan's vehicle limit is reached.
// @Tags vehicles
// @Accept json
// @Produce json
// @Param request body vehicles.CreateVehicleRequest true "Vehicle"
// @Success 201 {object} vehicles.Vehicle
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /api/v1/vehicles [post]
// @Security BearerAuth
func CreateVehicleHandler(store Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			errors.Unauthorized(c, "user not authenticated")
			return
		}

		var req vehicles.CreateVehicleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		req.VIN = strings.ToUpper(strings.TrimSpace(req.VIN))

		vehicle, err := store.CreateVehicle(c.Request.Context(), userID, req)
		if err != nil {
			switch {
			case stderrors.Is(err, vehicles.ErrInvalidVIN):
				errors.ValidationError(c, err)
			case stderrors.Is(err, vehicles.ErrVehicleExists):
				errors.Conflict(c, "vehicle already registered")
			case stderrors.Is(err, vehicles.ErrVehicleLimitReached):
				errors.LimitReached(c, "vehicle limit reached for your plan")
			default:
				errors.InternalError(c, "failed to create vehicle", err)
			}
			return
		}

		c.JSON(http.StatusCreated, vehicle)
	}
}
