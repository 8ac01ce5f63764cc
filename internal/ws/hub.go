package ws

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"aipocket/backend/internal/chat"
	"aipocket/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024 // 64KB
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
	HandshakeTimeout: 10 * time.Second,
	ReadBufferSize:   1024,
	WriteBufferSize:  1024,
}

// Hub tracks the live chat connections. Each connection is bound to one
// character session and streams its snapshots.
type Hub struct {
	sessions *chat.Manager
	log      *logger.Logger

	register   chan *Client
	unregister chan *Client
	clients    map[*Client]bool
	active     atomic.Int64
}

// NewHub creates a connection hub
func NewHub(sessions *chat.Manager, log *logger.Logger) *Hub {
	return &Hub{
		sessions:   sessions,
		log:        log,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// Run processes connection lifecycle events
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.active.Store(int64(len(h.clients)))
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.active.Store(int64(len(h.clients)))
			}
		}
	}
}

// ActiveConnections returns the number of live connections
func (h *Hub) ActiveConnections() int {
	return int(h.active.Load())
}

// ServeWS upgrades an HTTP request into a chat stream for one character
func (h *Hub) ServeWS(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "character id must be a positive integer"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.LogError(err, "WebSocket upgrade failed")
		return
	}

	session := h.sessions.Get(uint(id))
	snapshots, cancel := session.Subscribe()

	client := &Client{
		hub:       h,
		conn:      conn,
		session:   session,
		snapshots: snapshots,
		cancelSub: cancel,
		send:      make(chan []byte, 16),
		log:       h.log.WithCharacterID(uint(id)),
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}
