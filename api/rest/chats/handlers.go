package chats

import (
	stderrors "errors"
	"net/http"
	"strings"

	"codeberg.org/qemxa/server/internal/chat"
	"codeberg.org/qemxa/server/internal/errors"
	"codeberg.org/qemxa/server/internal/history"
	"codeberg.org/qemxa/server/internal/logger"
	"github.com/gin-gonic/gin"
)

// GetChatHandler godoc
// @Summary Get a vehicle chat
// @Description Returns the chat history for one of the user's vehicles, creating the welcome chat on first access
// @Tags chats
// @Produce json
// @Param vin path string true "Vehicle VIN"
// @Success 200 {object} ChatResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/chats/{vin} [get]
// @Security BearerAuth
func GetChatHandler(svc Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := sessionKey(c)
		if !ok {
			return
		}

		session, err := svc.Open(c.Request.Context(), key)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, ChatResponse{
			VIN:            session.VIN,
			Messages:       session.History,
			ServiceHistory: session.ServiceHistory,
		})
	}
}

// SendMessageHandler godoc
// @Summary Send a message
// @Description Appends a user message and waits for the assistant reply. A failed reply restores the chat and returns 502 with the restored history.
// @Tags chats
// @Accept json
// @Produce json
// @Param vin path string true "Vehicle VIN"
// @Param request body SendMessageRequest true "Message"
// @Success 200 {object} TurnResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Failure 502 {object} errors.ErrorResponse
// @Router /api/v1/chats/{vin}/messages [post]
// @Security BearerAuth
func SendMessageHandler(svc Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := sessionKey(c)
		if !ok {
			return
		}

		var req SendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		out, err := svc.Send(c.Request.Context(), key, req.Content, req.ImageURL, req.UseSearch)
		respondTurn(c, out, err)
	}
}

// EditMessageHandler godoc
// @Summary Edit a user message
// @Description Replaces a user message, drops everything after it and asks for a new reply
// @Tags chats
// @Accept json
// @Produce json
// @Param vin path string true "Vehicle VIN"
// @Param message_id path string true "Message ID"
// @Param request body EditMessageRequest true "New content"
// @Success 200 {object} TurnResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Failure 502 {object} errors.ErrorResponse
// @Router /api/v1/chats/{vin}/messages/{message_id} [put]
// @Security BearerAuth
func EditMessageHandler(svc Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := sessionKey(c)
		if !ok {
			return
		}

		var req EditMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		out, err := svc.Edit(c.Request.Context(), key, c.Param("message_id"), req.Content, req.UseSearch)
		respondTurn(c, out, err)
	}
}

// RegenerateHandler godoc
// @Summary Regenerate an assistant reply
// @Description Drops an assistant reply and everything after it, then asks for a new one
// @Tags chats
// @Accept json
// @Produce json
// @Param vin path string true "Vehicle VIN"
// @Param message_id path string true "Assistant message ID"
// @Param request body RegenerateRequest false "Options"
// @Success 200 {object} TurnResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Failure 502 {object} errors.ErrorResponse
// @Router /api/v1/chats/{vin}/messages/{message_id}/regenerate [post]
// @Security BearerAuth
func RegenerateHandler(svc Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := sessionKey(c)
		if !ok {
			return
		}

		var req RegenerateRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				errors.ValidationError(c, err)
				return
			}
		}

		out, err := svc.Regenerate(c.Request.Context(), key, c.Param("message_id"), req.UseSearch)
		respondTurn(c, out, err)
	}
}

// DeleteMessageHandler godoc
// @Summary Delete a message
// @Description Deletes a message. A user message is removed together with the reply that follows it.
// @Tags chats
// @Produce json
// @Param vin path string true "Vehicle VIN"
// @Param message_id path string true "Message ID"
// @Success 200 {object} TurnResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /api/v1/chats/{vin}/messages/{message_id} [delete]
// @Security BearerAuth
func DeleteMessageHandler(svc Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := sessionKey(c)
		if !ok {
			return
		}

		out, err := svc.Delete(c.Request.Context(), key, c.Param("message_id"))
		respondTurn(c, out, err)
	}
}

// ResetChatHandler godoc
// @Summary Reset a chat
// @Description Replaces the chat with a fresh welcome message
// @Tags chats
// @Produce json
// @Param vin path string true "Vehicle VIN"
// @Success 200 {object} TurnResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /api/v1/chats/{vin}/reset [post]
// @Security BearerAuth
func ResetChatHandler(svc Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := sessionKey(c)
		if !ok {
			return
		}

		out, err := svc.Reset(c.Request.Context(), key)
		respondTurn(c, out, err)
	}
}

func sessionKey(c *gin.Context) (chat.SessionKey, bool) {
	userID := c.GetString("user_id")
	if userID == "" {
		errors.Unauthorized(c, "user not authenticated")
		return chat.SessionKey{}, false
	}

	vin := strings.TrimSpace(c.Param("vin"))
	if vin == "" {
		errors.BadRequest(c, "vin is required", nil)
		return chat.SessionKey{}, false
	}

	return chat.SessionKey{VIN: vin, UserID: userID}, true
}

func respondTurn(c *gin.Context, out *chat.Outcome, err error) {
	if err != nil {
		respondError(c, err)
		return
	}

	resp := TurnResponse{
		State:    out.State,
		Messages: out.History,
		Usage:    out.Usage,
	}

	if out.State == chat.StateRolledBack {
		errors.GenerationFailed(c, out.Err, resp)
		return
	}

	if out.PersistErr != nil {
		// the reply stands; the client is told it may not survive a reload
		logger.ErrorErr(out.PersistErr, "turn committed but not saved",
			"user_id", c.GetString("user_id"),
			"vin", c.Param("vin"),
		)
		resp.Warning = "your chat could not be saved and will be retried on the next message"
	}

	c.JSON(http.StatusOK, resp)
}

// maps chat errors onto HTTP responses
func respondError(c *gin.Context, err error) {
	switch {
	case stderrors.Is(err, chat.ErrQuotaExhausted):
		errors.QuotaExhausted(c)
	case stderrors.Is(err, chat.ErrBusy):
		errors.Busy(c)
	case stderrors.Is(err, chat.ErrVehicleNotFound):
		errors.NotFound(c, "vehicle")
	case stderrors.Is(err, history.ErrNotFound):
		errors.NotFound(c, "message")
	case stderrors.Is(err, history.ErrInvalidOperation):
		errors.InvalidOperation(c, err.Error())
	case stderrors.Is(err, chat.ErrMessageTooLong):
		errors.ValidationError(c, err)
	case stderrors.Is(err, chat.ErrFeatureUnavailable):
		errors.Forbidden(c, "image diagnosis requires the platinum plan")
	default:
		errors.InternalError(c, "failed to process chat request", err)
	}
}
