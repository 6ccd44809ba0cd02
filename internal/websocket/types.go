package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"codeberg.org/qemxa/server/internal/chat"
	"codeberg.org/qemxa/server/internal/history"
	"github.com/gorilla/websocket"
)

// message type constants for websocket communication
const (
	// is sent to a connecting client with the current chat
	TypeSessionState = "session_state"

	// is sent whenever the visible chat changes (pending, committed, rolled back)
	TypeHistoryUpdate = "history_update"

	// is sent to the requesting client after a turn finishes
	TypeTurnResult = "turn_result"

	// client requests mirroring the REST chat operations
	TypeSendMessage   = "send_message"
	TypeEditMessage   = "edit_message"
	TypeRegenerate    = "regenerate"
	TypeDeleteMessage = "delete_message"
	TypeResetChat     = "reset_chat"

	// is sent when an error occurs
	TypeError = "error"

	// is sent by clients to keep the connection alive
	TypePing = "ping"

	// is sent by server in response to ping
	TypePong = "pong"

	// is sent by server before shutdown
	TypeServerShutdown = "server_shutdown"
)

// client connection constants
const (
	// time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// data URL images can be large
	maxMessageSize = 8 * 1024 * 1024

	maxTurnsPerMinute = 10

	sendBufferSize = 64
)

// hub connection limit constants
const (
	maxConnectionsPerUser = 5
	maxConnectionsPerIP   = 10
)

var (
	ErrInvalidMessage    = errors.New("invalid message format")
	ErrConnectionClosed  = errors.New("connection closed")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// represents a websocket message with typed payload
type Message struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id"`
	ClientID  string          `json:"-"`
	UserID    string          `json:"user_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Sequence  uint64          `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// chat snapshot sent to a connecting client
type SessionStatePayload struct {
	VIN      string          `json:"vin"`
	State    chat.State      `json:"state"`
	Messages history.History `json:"messages"`
}

// visible chat after a change
type HistoryUpdatePayload struct {
	State    chat.State      `json:"state"`
	Messages history.History `json:"messages"`
}

// request body for the chat operations
type MutationPayload struct {
	MessageID string `json:"message_id,omitempty"`
	Content   string `json:"content,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
	UseSearch bool   `json:"use_search,omitempty"`
}

// outcome of a turn, sent only to the client that asked for it
type TurnResultPayload struct {
	State     chat.State `json:"state"`
	UsedToday int        `json:"used_today"`
	Error     string     `json:"error,omitempty"`
}

type ServerShutdownPayload struct {
	Reason string `json:"reason"`
}

// runs chat operations on behalf of a websocket client
type ChatService interface {
	Perform(ctx context.Context, key chat.SessionKey, m chat.Mutation, useSearch bool) (*chat.Outcome, error)
}

// represents a websocket client connection
type Client struct {
	// unique identifier for this client
	ID string

	// hub key of the chat this client watches
	SessionID string

	// vehicle and owner of the chat
	Key chat.SessionKey

	UserID string

	// IP address of the client (for connection tracking)
	IPAddress string

	// chat to send on connect
	InitialHistory history.History

	conn *websocket.Conn

	hub *Hub

	// buffered channel of outbound messages
	send chan []byte

	mu sync.RWMutex

	closed bool

	// sliding window of turn requests
	turnTimestamps []time.Time
}

// maintains the set of active clients and fans chat updates out to them
type Hub struct {
	// registered clients by session ID and client ID
	sessions map[string]map[string]*Client

	// register requests from clients
	Register chan *Client

	// unregister requests from clients
	Unregister chan *Client

	// inbound client messages
	Broadcast chan *Message

	// mutex for thread-safe access to sessions
	mu sync.RWMutex

	// message handlers for different message types
	handlers map[string]MessageHandler

	shutdown     chan struct{}
	shutdownOnce sync.Once

	// connection tracking: user ID -> count of connections
	userConnections map[string]int

	// connection tracking: IP address -> count of connections
	ipConnections map[string]int

	// sequence numbers per session for message ordering
	sessionSequences map[string]uint64
}

// processes a specific message type
type MessageHandler func(hub *Hub, client *Client, msg *Message) error
