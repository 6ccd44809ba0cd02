package websocket

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"codeberg.org/qemxa/server/internal/chat"
	apierrors "codeberg.org/qemxa/server/internal/errors"
	"codeberg.org/qemxa/server/internal/history"
	"codeberg.org/qemxa/server/internal/quota"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatService struct {
	mu        sync.Mutex
	mutations []chat.Mutation
	searches  []bool
	outcome   *chat.Outcome
	err       error
}

func (f *fakeChatService) Perform(_ context.Context, _ chat.SessionKey, m chat.Mutation, useSearch bool) (*chat.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.mutations = append(f.mutations, m)
	f.searches = append(f.searches, useSearch)
	return f.outcome, f.err
}

func runHandler(t *testing.T, hub *Hub, client *Client, msgType string, payload any) Message {
	t.Helper()

	hub.mu.RLock()
	handler := hub.handlers[msgType]
	hub.mu.RUnlock()
	require.NotNil(t, handler, "no handler for %s", msgType)

	msg, err := NewMessage(msgType, client.SessionID, client.UserID, payload)
	require.NoError(t, err)
	require.NoError(t, handler(hub, client, msg))

	return readMessage(t, client)
}

func TestMutationHandlers_BuildMutations(t *testing.T) {
	tests := []struct {
		msgType string
		payload MutationPayload
		want    chat.Mutation
	}{
		{TypeSendMessage, MutationPayload{Content: "hi", ImageURL: "data:image/png;base64,AA=="}, chat.SendMessage("hi", "data:image/png;base64,AA==")},
		{TypeEditMessage, MutationPayload{MessageID: "m1", Content: "fixed"}, chat.EditMessage("m1", "fixed")},
		{TypeRegenerate, MutationPayload{MessageID: "m2"}, chat.RegenerateReply("m2")},
		{TypeDeleteMessage, MutationPayload{MessageID: "m3"}, chat.DeleteMessage("m3")},
		{TypeResetChat, MutationPayload{}, chat.ResetChat()},
	}

	for _, tt := range tests {
		t.Run(tt.msgType, func(t *testing.T) {
			svc := &fakeChatService{outcome: &chat.Outcome{
				State: chat.StateCommitted,
				Usage: quota.UsageCounter{Date: "2026-10-16", Count: 2},
			}}

			hub := NewHub()
			RegisterChatHandlers(hub, svc, time.Second)
			client := testClient(hub, "c1", chat.SessionKey{VIN: "vin", UserID: "u"}, 8)

			reply := runHandler(t, hub, client, tt.msgType, tt.payload)
			assert.Equal(t, TypeTurnResult, reply.Type)

			var result TurnResultPayload
			require.NoError(t, reply.UnmarshalPayload(&result))
			assert.Equal(t, chat.StateCommitted, result.State)
			assert.Equal(t, 2, result.UsedToday)

			require.Len(t, svc.mutations, 1)
			assert.Equal(t, tt.want, svc.mutations[0])
		})
	}
}

func TestMutationHandler_RolledBackReportsError(t *testing.T) {
	svc := &fakeChatService{outcome: &chat.Outcome{
		State:   chat.StateRolledBack,
		History: history.History{},
		Err:     &chat.GenerationError{Err: errors.New("upstream 500")},
	}}

	hub := NewHub()
	RegisterChatHandlers(hub, svc, 0)
	client := testClient(hub, "c1", chat.SessionKey{VIN: "vin", UserID: "u"}, 8)

	reply := runHandler(t, hub, client, TypeSendMessage, MutationPayload{Content: "hi", UseSearch: true})

	var result TurnResultPayload
	require.NoError(t, reply.UnmarshalPayload(&result))
	assert.Equal(t, chat.StateRolledBack, result.State)
	assert.NotEmpty(t, result.Error)
	assert.Equal(t, []bool{true}, svc.searches)
}

func TestMutationHandler_ErrorCodes(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{chat.ErrQuotaExhausted, apierrors.CodeQuotaExhausted},
		{chat.ErrBusy, apierrors.CodeBusy},
		{chat.ErrMessageTooLong, apierrors.CodeValidationError},
		{chat.ErrFeatureUnavailable, apierrors.CodeForbidden},
		{history.ErrNotFound, apierrors.CodeNotFound},
		{chat.ErrEmptyMessage, apierrors.CodeInvalidOperation},
		{errors.New("boom"), apierrors.CodeServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			hub := NewHub()
			RegisterChatHandlers(hub, &fakeChatService{err: tt.err}, 0)
			client := testClient(hub, "c1", chat.SessionKey{VIN: "vin", UserID: "u"}, 8)

			reply := runHandler(t, hub, client, TypeSendMessage, MutationPayload{Content: "x"})
			assert.Equal(t, TypeError, reply.Type)

			var body apierrors.ErrorResponse
			require.NoError(t, reply.UnmarshalPayload(&body))
			assert.Equal(t, tt.code, body.Error)
		})
	}
}

func TestMutationHandler_RateLimited(t *testing.T) {
	svc := &fakeChatService{outcome: &chat.Outcome{State: chat.StateCommitted}}

	hub := NewHub()
	handler := MutationHandler(svc, 0, func(MutationPayload) chat.Mutation { return chat.ResetChat() })
	client := testClient(hub, "c1", chat.SessionKey{VIN: "vin", UserID: "u"}, 32)

	for range maxTurnsPerMinute {
		require.NoError(t, handler(hub, client, &Message{Type: TypeResetChat}))
	}

	err := handler(hub, client, &Message{Type: TypeResetChat})
	assert.ErrorIs(t, err, ErrRateLimitExceeded)
	assert.Len(t, svc.mutations, maxTurnsPerMinute)
}

func TestPingHandler(t *testing.T) {
	hub := NewHub()
	RegisterChatHandlers(hub, &fakeChatService{}, 0)
	client := testClient(hub, "c1", chat.SessionKey{VIN: "vin", UserID: "u"}, 8)

	reply := runHandler(t, hub, client, TypePing, nil)
	assert.Equal(t, TypePong, reply.Type)
}
