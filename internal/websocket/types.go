package websocket

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"codeberg.org/citelens/server/internal/progress"
	"github.com/gorilla/websocket"
)

// message type constants for websocket communication
const (
	// carries a progress.Event of an analysis run
	TypeProgress = "progress"

	// is sent when an error occurs
	TypeError = "error"

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

	// clients only send control frames, anything larger is dropped
	maxMessageSize = 4 * 1024

	// buffered outgoing messages per client
	sendBufferSize = 64

	// buffered events waiting for the hub loop
	eventBufferSize = 256
)

// hub connection limit constants
const (
	maxConnectionsPerIP = 10
)

var ErrConnectionClosed = errors.New("connection closed")

// represents a websocket message with typed payload
type Message struct {
	Type      string          `json:"type"`
	ReportID  string          `json:"report_id"`
	Timestamp time.Time       `json:"timestamp"`
	Sequence  uint64          `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

// contains information about server shutdown
type ServerShutdownPayload struct {
	Reason string `json:"reason"`
}

// one browser subscribed to the progress of a single report
type Client struct {
	ID        string
	ReportID  string
	IPAddress string

	conn   *websocket.Conn
	hub    *Hub
	send   chan []byte
	mu     sync.RWMutex
	closed bool
}

// fans run progress out to the clients watching each report
type Hub struct {
	// registered clients by report ID and client ID
	reports map[string]map[string]*Client

	// register requests from clients
	Register chan *Client

	// unregister requests from clients
	Unregister chan *Client

	// events published by runs
	events chan progress.Event

	// mutex for thread-safe access to reports
	mu sync.RWMutex

	// last non-terminal event per report, replayed to late subscribers
	latest map[string]progress.Event

	// per-report message sequence numbers
	sequences map[string]uint64

	// connection tracking: IP address -> count of connections
	ipConnections map[string]int

	shutdown     chan struct{}
	shutdownOnce sync.Once
}
