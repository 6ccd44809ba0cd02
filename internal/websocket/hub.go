package websocket

import (
	"time"

	"codeberg.org/qemxa/server/internal/chat"
	"codeberg.org/qemxa/server/internal/history"
	"codeberg.org/qemxa/server/internal/logger"
)

func NewHub() *Hub {
	return &Hub{
		sessions:         make(map[string]map[string]*Client),
		Register:         make(chan *Client),
		Unregister:       make(chan *Client),
		Broadcast:        make(chan *Message, 256),
		handlers:         make(map[string]MessageHandler),
		shutdown:         make(chan struct{}),
		userConnections:  make(map[string]int),
		ipConnections:    make(map[string]int),
		sessionSequences: make(map[string]uint64),
	}
}

// registers a handler for a specific message type
func (h *Hub) RegisterHandler(messageType string, handler MessageHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[messageType] = handler
}

// starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case message := <-h.Broadcast:
			h.handleMessage(message)

		case <-h.shutdown:
			h.closeAllConnections()
			return
		}
	}
}

// sends a visible change of a chat to every client watching it.
// never blocks: a client whose buffer is full is dropped.
func (h *Hub) Publish(key chat.SessionKey, messages history.History, state chat.State) {
	sessionID := key.String()

	msg, err := NewMessage(TypeHistoryUpdate, sessionID, key.UserID, HistoryUpdatePayload{
		State:    state,
		Messages: messages,
	})
	if err != nil {
		logger.ErrorErr(err, "failed to create history update",
			"session_id", sessionID,
		)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcastToSession(sessionID, msg, "")
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sessions[client.SessionID] == nil {
		h.sessions[client.SessionID] = make(map[string]*Client)
	}

	h.sessions[client.SessionID][client.ID] = client

	if client.UserID != "" {
		h.userConnections[client.UserID]++
	}

	logger.Info("client registered",
		"client_id", client.ID,
		"session_id", client.SessionID,
		"user_id", client.UserID,
	)

	stateMsg, err := NewMessage(TypeSessionState, client.SessionID, client.UserID, SessionStatePayload{
		VIN:      client.Key.VIN,
		State:    chat.StateIdle,
		Messages: client.InitialHistory,
	})
	if err != nil {
		return
	}

	if sendErr := client.Send(stateMsg); sendErr != nil {
		logger.ErrorErr(sendErr, "failed to send session state",
			"client_id", client.ID,
			"session_id", client.SessionID,
		)
	}
}

// removes a client from the hub
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sessionClients, exists := h.sessions[client.SessionID]
	if !exists {
		return
	}

	if _, exists := sessionClients[client.ID]; !exists {
		return
	}

	delete(sessionClients, client.ID)
	client.Close()
	h.untrack(client)

	logger.Info("client unregistered",
		"client_id", client.ID,
		"session_id", client.SessionID,
	)

	if len(sessionClients) == 0 {
		delete(h.sessions, client.SessionID)
		delete(h.sessionSequences, client.SessionID)
	}
}

// must be called with lock held
func (h *Hub) untrack(client *Client) {
	if client.UserID != "" {
		h.userConnections[client.UserID]--

		if h.userConnections[client.UserID] <= 0 {
			delete(h.userConnections, client.UserID)
		}
	}

	if client.IPAddress != "" {
		h.ipConnections[client.IPAddress]--

		if h.ipConnections[client.IPAddress] <= 0 {
			delete(h.ipConnections, client.IPAddress)
		}
	}
}

// processes an incoming message
func (h *Hub) handleMessage(msg *Message) {
	h.mu.RLock()

	sessionClients, exists := h.sessions[msg.SessionID]
	if !exists {
		h.mu.RUnlock()
		logger.Warn("session not found for message",
			"session_id", msg.SessionID,
			"message_type", msg.Type,
		)
		return
	}

	sender, exists := sessionClients[msg.ClientID]
	handler, hasHandler := h.handlers[msg.Type]
	h.mu.RUnlock()

	if !exists {
		logger.Warn("sender client not found for message",
			"client_id", msg.ClientID,
			"session_id", msg.SessionID,
			"message_type", msg.Type,
		)
		return
	}

	if !hasHandler {
		logger.Warn("unhandled message type received",
			"message_type", msg.Type,
			"client_id", sender.ID,
			"session_id", msg.SessionID,
		)

		sender.SendError("bad_request", "unsupported message type", "message type not recognized")
		return
	}

	// turns can take a while, keep the hub loop free
	go func() {
		if err := handler(h, sender, msg); err != nil {
			logger.ErrorErr(err, "handler error",
				"message_type", msg.Type,
				"client_id", sender.ID,
				"session_id", msg.SessionID,
			)
		}
	}()
}

// the internal broadcast function (must be called with lock held)
func (h *Hub) broadcastToSession(sessionID string, msg *Message, excludeClientID string) {
	sessionClients, exists := h.sessions[sessionID]
	if !exists {
		return
	}

	h.sessionSequences[sessionID]++
	msg.Sequence = h.sessionSequences[sessionID]

	for clientID, client := range sessionClients {
		if clientID == excludeClientID {
			continue
		}

		if err := client.Send(msg); err != nil {
			logger.Warn("dropping client that cannot keep up",
				"client_id", clientID,
				"session_id", sessionID,
				"error", err,
			)

			delete(sessionClients, clientID)
			h.untrack(client)
		}
	}

	if len(sessionClients) == 0 {
		delete(h.sessions, sessionID)
		delete(h.sessionSequences, sessionID)
	}
}

// returns all clients watching a chat
func (h *Hub) GetSessionClients(sessionID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sessionClients, exists := h.sessions[sessionID]
	if !exists {
		return []*Client{}
	}

	clients := make([]*Client, 0, len(sessionClients))

	for _, client := range sessionClients {
		clients = append(clients, client)
	}

	return clients
}

func (h *Hub) GetClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

func (h *Hub) GetSessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func (h *Hub) Shutdown() {
	h.shutdownOnce.Do(func() {
		close(h.shutdown)
	})
}

func (h *Hub) closeAllConnections() {
	h.mu.Lock()

	logger.Info("notifying clients of server shutdown")

	for sessionID, sessionClients := range h.sessions {
		shutdownMsg, err := NewMessage(TypeServerShutdown, sessionID, "", ServerShutdownPayload{
			Reason: "server is shutting down",
		})
		if err != nil {
			continue
		}

		for _, client := range sessionClients {
			client.Send(shutdownMsg) //nolint:errcheck,gosec // best effort
		}
	}

	h.mu.Unlock()

	// give clients time to receive the shutdown message
	time.Sleep(500 * time.Millisecond)

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sessionClients := range h.sessions {
		for _, client := range sessionClients {
			client.Close()
		}
	}

	h.sessions = make(map[string]map[string]*Client)
	h.userConnections = make(map[string]int)
	h.ipConnections = make(map[string]int)
	h.sessionSequences = make(map[string]uint64)
}

// checks if a new connection should be allowed based on limits
func (h *Hub) CanAcceptConnection(userID, ipAddress string) (bool, string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if userID != "" && h.userConnections[userID] >= maxConnectionsPerUser {
		return false, "maximum connections per user exceeded"
	}

	if h.ipConnections[ipAddress] >= maxConnectionsPerIP {
		return false, "maximum connections per IP address exceeded"
	}

	return true, ""
}

// increments the connection count for an IP address
func (h *Hub) TrackIPConnection(ipAddress string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ipConnections[ipAddress]++
}

// decrements the connection count for an IP address that never registered
func (h *Hub) UntrackIPConnection(ipAddress string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ipConnections[ipAddress]--

	if h.ipConnections[ipAddress] <= 0 {
		delete(h.ipConnections, ipAddress)
	}
}
