package websocket

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"codeberg.org/qemxa/server/internal/chat"
	"codeberg.org/qemxa/server/internal/errors"
	"codeberg.org/qemxa/server/internal/logger"
	ws "codeberg.org/qemxa/server/internal/websocket"
)

// subscribes a client to live updates of one chat. the first message is
// session_state, every later change arrives as history_update.
func WebSocketHandler(hub *ws.Hub, opener SessionOpener, validator TokenValidator, checkOrigin func(*http.Request) bool) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin,
	}

	return func(c *gin.Context) {
		var params ConnectParams
		if err := c.ShouldBindQuery(&params); err != nil {
			errors.BadRequest(c, "token is required", err)
			return
		}

		vin := strings.TrimSpace(c.Param("vin"))
		if vin == "" {
			errors.BadRequest(c, "vin is required", nil)
			return
		}

		claims, err := validator.ValidateJWT(params.Token)
		if err != nil {
			errors.Unauthorized(c, "invalid or expired token")
			return
		}

		key := chat.SessionKey{VIN: vin, UserID: claims.UserID}

		// use timeout context for DB operations to prevent hanging
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		session, err := opener.Open(ctx, key)
		if err != nil {
			if stderrors.Is(err, chat.ErrVehicleNotFound) {
				errors.NotFound(c, "vehicle")
				return
			}

			errors.InternalError(c, "failed to open chat", err)
			return
		}

		ipAddress := c.ClientIP()

		if ok, reason := hub.CanAcceptConnection(key.UserID, ipAddress); !ok {
			errors.TooManyRequests(c, reason)
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.ErrorErr(err, "failed to upgrade connection",
				"vin", vin,
				"ip", ipAddress,
			)
			return
		}

		// track IP connection only after successful upgrade
		hub.TrackIPConnection(ipAddress)

		clientID := ws.GenerateClientID()
		client := ws.NewClient(clientID, key, ipAddress, session.History, conn, hub)

		hub.Register <- client

		go client.WritePump()
		go client.ReadPump()

		logger.Info("websocket connection established",
			"client_id", clientID,
			"vin", vin,
			"user_id", key.UserID,
			"ip", ipAddress,
		)
	}
}
