package ws

import (
	"context"
	"encoding/json"
	"time"

	"aipocket/backend/internal/chat"
	"aipocket/backend/pkg/logger"

	"github.com/gorilla/websocket"
)

// Command is an inbound client message
type Command struct {
	Type    string `json:"type"`    // "send" or "search"
	Content string `json:"content"` // message text or search query
}

// Event is an outbound server message
type Event struct {
	Type    string      `json:"type"` // "state" or "error"
	Content interface{} `json:"content"`
}

// Client is one WebSocket connection bound to a character session
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	session   *chat.Session
	snapshots <-chan chat.Snapshot
	cancelSub func()
	send      chan []byte
	log       *logger.Logger
}

// readPump consumes commands from the peer until the connection drops
func (c *Client) readPump() {
	defer func() {
		c.cancelSub()
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.LogError(err, "WebSocket read failed")
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(raw, &cmd); err != nil {
			c.sendEvent(Event{Type: "error", Content: "invalid command"})
			continue
		}

		switch cmd.Type {
		case "send":
			// Send blocks for the duration of the generation call; run it
			// off the read loop so the peer can keep typing search queries
			go func(text string) {
				if err := c.session.Send(context.Background(), text); err != nil {
					c.sendEvent(Event{Type: "error", Content: err.Error()})
				}
			}(cmd.Content)
		case "search":
			c.session.SetQuery(cmd.Content)
		default:
			c.sendEvent(Event{Type: "error", Content: "unknown command type"})
		}
	}
}

// writePump streams session snapshots and pings to the peer
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case snap, ok := <-c.snapshots:
			if !ok {
				return
			}
			payload, err := json.Marshal(Event{Type: "state", Content: snap})
			if err != nil {
				c.log.LogError(err, "Failed to encode snapshot")
				continue
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case payload, ok := <-c.send:
			if !ok {
				c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendEvent queues an event for the peer, dropping it if the buffer is full
func (c *Client) sendEvent(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}
