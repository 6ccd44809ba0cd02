package websocket

import (
	"context"
	stderrors "errors"
	"time"

	"codeberg.org/qemxa/server/internal/chat"
	"codeberg.org/qemxa/server/internal/errors"
	"codeberg.org/qemxa/server/internal/history"
)

// builds a mutation from a decoded client payload
type mutationBuilder func(p MutationPayload) chat.Mutation

// registers the chat operation and ping handlers on the hub
func RegisterChatHandlers(hub *Hub, svc ChatService, timeout time.Duration) {
	hub.RegisterHandler(TypeSendMessage, MutationHandler(svc, timeout, func(p MutationPayload) chat.Mutation {
		return chat.SendMessage(p.Content, p.ImageURL)
	}))

	hub.RegisterHandler(TypeEditMessage, MutationHandler(svc, timeout, func(p MutationPayload) chat.Mutation {
		return chat.EditMessage(p.MessageID, p.Content)
	}))

	hub.RegisterHandler(TypeRegenerate, MutationHandler(svc, timeout, func(p MutationPayload) chat.Mutation {
		return chat.RegenerateReply(p.MessageID)
	}))

	hub.RegisterHandler(TypeDeleteMessage, MutationHandler(svc, timeout, func(p MutationPayload) chat.Mutation {
		return chat.DeleteMessage(p.MessageID)
	}))

	hub.RegisterHandler(TypeResetChat, MutationHandler(svc, timeout, func(MutationPayload) chat.Mutation {
		return chat.ResetChat()
	}))

	hub.RegisterHandler(TypePing, PingHandler())
}

// runs one chat operation for the client. history changes reach every
// watcher through the hub's Publish; the sender also gets a turn_result.
func MutationHandler(svc ChatService, timeout time.Duration, build mutationBuilder) MessageHandler {
	return func(_ *Hub, client *Client, msg *Message) error {
		if !client.checkTurnRateLimit() {
			client.SendError(errors.CodeTooManyRequests, "too many requests. maximum 10 per minute.", "")
			return ErrRateLimitExceeded
		}

		var payload MutationPayload
		if len(msg.Payload) > 0 {
			if err := msg.UnmarshalPayload(&payload); err != nil {
				client.SendError(errors.CodeValidationError, "failed to parse request", err.Error())
				return err
			}
		}

		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		out, err := svc.Perform(ctx, client.Key, build(payload), payload.UseSearch)
		if err != nil {
			code, message := classifyTurnError(err)
			client.SendError(code, message, errors.Sanitize(err))

			// rejections are expected traffic, not handler failures
			return nil
		}

		result := TurnResultPayload{
			State:     out.State,
			UsedToday: out.Usage.Count,
		}

		if out.Err != nil {
			result.Error = errors.Sanitize(out.Err)
		}

		resultMsg, err := NewMessage(TypeTurnResult, client.SessionID, client.UserID, result)
		if err != nil {
			return err
		}

		return client.Send(resultMsg)
	}
}

// maps chat errors onto the codes the REST API uses
func classifyTurnError(err error) (string, string) {
	switch {
	case stderrors.Is(err, chat.ErrQuotaExhausted):
		return errors.CodeQuotaExhausted, "daily message limit reached"
	case stderrors.Is(err, chat.ErrBusy):
		return errors.CodeBusy, "a reply is already being generated for this chat"
	case stderrors.Is(err, chat.ErrMessageTooLong):
		return errors.CodeValidationError, "message is too long for your plan"
	case stderrors.Is(err, chat.ErrFeatureUnavailable):
		return errors.CodeForbidden, "image diagnosis requires the platinum plan"
	case stderrors.Is(err, history.ErrNotFound):
		return errors.CodeNotFound, "message not found"
	case stderrors.Is(err, history.ErrInvalidOperation):
		return errors.CodeInvalidOperation, "operation not allowed on this message"
	case stderrors.Is(err, chat.ErrVehicleNotFound):
		return errors.CodeNotFound, "vehicle not found"
	default:
		return errors.CodeServerError, "failed to process request"
	}
}

// handles ping messages from clients (keep-alive)
func PingHandler() MessageHandler {
	return func(_ *Hub, client *Client, _ *Message) error {
		pongMsg, err := NewMessage(TypePong, client.SessionID, client.UserID, nil)
		if err != nil {
			return err
		}

		client.Send(pongMsg) //nolint:errcheck,gosec // best-effort pong
		return nil
	}
}
