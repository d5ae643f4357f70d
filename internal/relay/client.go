package relay

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 512 * 1024
)

// Client wraps one websocket connection with a buffered outbound queue.
// Sends are best-effort; a connection whose queue is full is dropped from the
// registry instead of stalling the broadcast loop.
type Client struct {
	relay *Relay
	conn  *websocket.Conn
	send  chan []byte

	mu     sync.Mutex
	closed bool
}

func newClient(relay *Relay, conn *websocket.Conn) *Client {
	return &Client{
		relay: relay,
		conn:  conn,
		send:  make(chan []byte, relay.sendBuffer),
	}
}

func (c *Client) trySend(payload []byte) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	select {
	case c.send <- payload:
		c.mu.Unlock()
	default:
		c.mu.Unlock()
		// Queue full: the connection is too slow to keep up. Drop it
		// rather than block the remaining deliveries.
		c.relay.dropClient(c)
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// readPump processes inbound frames in arrival order. Each valid JSON text
// frame is rebroadcast; an undecodable frame is logged and dropped without
// closing the connection or notifying the sender.
func (c *Client) readPump() {
	defer func() {
		c.relay.dropClient(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	pongWait := c.relay.heartbeat * 2
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.relay.logger.Debug("websocket read failed", "error", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		var payload json.RawMessage
		if err := json.Unmarshal(message, &payload); err != nil {
			c.relay.logger.Warn("dropping undecodable frame", "error", err)
			continue
		}
		c.relay.broadcast(payload, c)
	}
}

// writePump serialises all writes to the connection and keeps the transport
// alive with periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.relay.heartbeat)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.relay.dropClient(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.relay.dropClient(c)
				return
			}
		}
	}
}
