package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/qemxa/server/internal/auth"
	"codeberg.org/qemxa/server/internal/chat"
	"codeberg.org/qemxa/server/internal/history"
	ws "codeberg.org/qemxa/server/internal/websocket"
)

type fakeOpener struct {
	sessions map[chat.SessionKey]*chat.Session
}

func (f *fakeOpener) Open(_ context.Context, key chat.SessionKey) (*chat.Session, error) {
	s, ok := f.sessions[key]
	if !ok {
		return nil, chat.ErrVehicleNotFound
	}

	return s, nil
}

func setup(t *testing.T) (*gin.Engine, *ws.Hub, *auth.Authenticator) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	authn, err := auth.New("ws-test-secret")
	require.NoError(t, err)

	key := chat.SessionKey{VIN: "WBA00000000000001", UserID: "user-1"}
	opener := &fakeOpener{sessions: map[chat.SessionKey]*chat.Session{
		key: {
			VIN:     key.VIN,
			UserID:  key.UserID,
			History: history.History{{ID: "welcome", Role: history.RoleAssistant, Content: "გამარჯობა"}},
		},
	}}

	hub := ws.NewHub()
	go hub.Run()
	t.Cleanup(hub.Shutdown)

	router := gin.New()
	RegisterRoutes(router.Group("/api/v1"), hub, opener, authn, ws.NewOriginChecker("development", nil))

	return router, hub, authn
}

func TestWebSocketHandler_Rejections(t *testing.T) {
	router, _, authn := setup(t)

	strangerToken, err := authn.GenerateJWT("stranger", "")
	require.NoError(t, err)

	tests := []struct {
		name   string
		url    string
		status int
	}{
		{"missing token", "/api/v1/ws/chats/WBA00000000000001", http.StatusBadRequest},
		{"invalid token", "/api/v1/ws/chats/WBA00000000000001?token=bogus", http.StatusUnauthorized},
		{"vehicle of another user", "/api/v1/ws/chats/WBA00000000000001?token=" + strangerToken, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.url, nil))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestWebSocketHandler_StreamsHistory(t *testing.T) {
	router, hub, authn := setup(t)

	server := httptest.NewServer(router)
	defer server.Close()

	token, err := authn.GenerateJWT("user-1", "")
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/ws/chats/WBA00000000000001?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close() //nolint:errcheck // test cleanup
	defer resp.Body.Close() //nolint:errcheck // test cleanup

	conn.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck,gosec // test timing

	var state ws.Message
	require.NoError(t, conn.ReadJSON(&state))
	assert.Equal(t, ws.TypeSessionState, state.Type)

	var snapshot ws.SessionStatePayload
	require.NoError(t, state.UnmarshalPayload(&snapshot))
	require.Len(t, snapshot.Messages, 1)
	assert.Equal(t, "welcome", snapshot.Messages[0].ID)

	key := chat.SessionKey{VIN: "WBA00000000000001", UserID: "user-1"}
	hub.Publish(key, history.History{{ID: "u1", Role: history.RoleUser, Content: "ხმაური"}}, chat.StatePending)

	var update ws.Message
	require.NoError(t, conn.ReadJSON(&update))
	assert.Equal(t, ws.TypeHistoryUpdate, update.Type)

	var payload ws.HistoryUpdatePayload
	require.NoError(t, update.UnmarshalPayload(&payload))
	assert.Equal(t, chat.StatePending, payload.State)
	assert.Equal(t, "ხმაური", payload.Messages[0].Content)
}
